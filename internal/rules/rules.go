package rules

import (
	"fmt"

	"github.com/arcadehq/tictactoe-backend/internal/apperror"
	"github.com/arcadehq/tictactoe-backend/internal/entity"
)

// lines are the 8 winning triples in scan order: rows, columns, diagonals.
var lines = [8][3][2]int{
	{{0, 0}, {0, 1}, {0, 2}},
	{{1, 0}, {1, 1}, {1, 2}},
	{{2, 0}, {2, 1}, {2, 2}},
	{{0, 0}, {1, 0}, {2, 0}},
	{{0, 1}, {1, 1}, {2, 1}},
	{{0, 2}, {1, 2}, {2, 2}},
	{{0, 0}, {1, 1}, {2, 2}},
	{{0, 2}, {1, 1}, {2, 0}},
}

// ValidateAndApply places symbol at (row, col) with the given order counter
// and returns the resulting board. If the player already holds three marks,
// the mark with the smallest order is removed first. The input board is
// never mutated.
func ValidateAndApply(board entity.Board, symbol string, row, col int, order uint64) (entity.Board, error) {
	if row < 0 || row >= entity.BoardSize || col < 0 || col >= entity.BoardSize {
		return board, fmt.Errorf("%w: (%d, %d)", apperror.ErrInvalidCell, row, col)
	}

	if !board.IsEmptyAt(row, col) {
		return board, apperror.ErrCellOccupied
	}

	next := board

	if next.CountMarks(symbol) >= entity.MaxMarksPerPlayer {
		evictRow, evictCol, ok := oldestMark(&next, symbol)
		if ok {
			next[evictRow][evictCol] = entity.Cell{}
		}
	}

	next[row][col] = entity.Cell{Value: symbol, Order: order}

	return next, nil
}

// CheckWinner returns the symbol holding a completed line, or the empty
// string. At most one line can be completed by a single move under the
// eviction rule, so the scan order never changes the result.
func CheckWinner(board entity.Board) string {
	for _, line := range lines {
		a := board[line[0][0]][line[0][1]].Value
		b := board[line[1][0]][line[1][1]].Value
		c := board[line[2][0]][line[2][1]].Value

		if a != entity.EmptyCell && a == b && b == c {
			return a
		}
	}

	return entity.EmptyCell
}

// IsDraw reports a full board with no completed line.
func IsDraw(board entity.Board) bool {
	return board.IsFull() && CheckWinner(board) == entity.EmptyCell
}

// EmptyCells lists the free positions as {row, col} pairs in scan order.
func EmptyCells(board entity.Board) [][2]int {
	cells := make([][2]int, 0, entity.BoardSize*entity.BoardSize)
	for row := range board {
		for col := range board[row] {
			if board[row][col].Value == entity.EmptyCell {
				cells = append(cells, [2]int{row, col})
			}
		}
	}

	return cells
}

// oldestMark finds the symbol's mark with the smallest order counter.
func oldestMark(board *entity.Board, symbol string) (int, int, bool) {
	var (
		bestRow, bestCol int
		bestOrder        uint64
		found            bool
	)

	for row := range board {
		for col := range board[row] {
			cell := board[row][col]
			if cell.Value != symbol {
				continue
			}
			if !found || cell.Order < bestOrder {
				bestRow, bestCol, bestOrder = row, col, cell.Order
				found = true
			}
		}
	}

	return bestRow, bestCol, found
}
