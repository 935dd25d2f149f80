package entity

const (
	PlayerX = "X"
	PlayerO = "O"

	EmptyCell = ""

	BoardSize = 3

	// MaxMarksPerPlayer - a player may hold at most this many marks; the
	// next placement evicts that player's oldest mark.
	MaxMarksPerPlayer = 3
)

// Cell is one square of the board. Order is the room's moveSeq value at the
// moment the mark was placed, never a wall clock; it is serialized under the
// legacy "timestamp" key the client already understands.
type Cell struct {
	Value string `json:"value"`
	Order uint64 `json:"timestamp,omitempty"`
}

// Board is the 3x3 grid, row-major.
type Board [BoardSize][BoardSize]Cell

// NewBoard returns an all-empty board.
func NewBoard() Board {
	return Board{}
}

func (that *Board) IsEmptyAt(row, col int) bool {
	return that[row][col].Value == EmptyCell
}

// CountMarks returns how many cells currently hold the given symbol.
func (that *Board) CountMarks(symbol string) int {
	count := 0
	for row := range that {
		for col := range that[row] {
			if that[row][col].Value == symbol {
				count++
			}
		}
	}

	return count
}

// IsFull reports whether all 9 cells are occupied.
func (that *Board) IsFull() bool {
	for row := range that {
		for col := range that[row] {
			if that[row][col].Value == EmptyCell {
				return false
			}
		}
	}

	return true
}

// OpponentOf returns the other symbol.
func OpponentOf(symbol string) string {
	if symbol == PlayerX {
		return PlayerO
	}
	return PlayerX
}
