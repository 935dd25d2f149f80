package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcadehq/tictactoe-backend/internal/apperror"
	"github.com/arcadehq/tictactoe-backend/internal/entity"
)

func place(t *testing.T, board entity.Board, symbol string, row, col int, order uint64) entity.Board {
	t.Helper()

	next, err := ValidateAndApply(board, symbol, row, col, order)
	require.NoError(t, err)

	return next
}

func TestValidateAndApply(t *testing.T) {
	t.Run("Places a mark on an empty cell", func(t *testing.T) {
		// Given: an empty board
		board := entity.NewBoard()

		// When: X plays (1, 1)
		next, err := ValidateAndApply(board, entity.PlayerX, 1, 1, 1)

		// Then: the cell holds X with the assigned order
		require.NoError(t, err)
		assert.Equal(t, entity.PlayerX, next[1][1].Value)
		assert.Equal(t, uint64(1), next[1][1].Order)
	})

	t.Run("Rejects an occupied cell", func(t *testing.T) {
		// Given: a board with X at (0, 0)
		board := place(t, entity.NewBoard(), entity.PlayerX, 0, 0, 1)

		// When: O plays the same cell
		_, err := ValidateAndApply(board, entity.PlayerO, 0, 0, 2)

		// Then: the move is rejected and the board unchanged
		assert.ErrorIs(t, err, apperror.ErrCellOccupied)
	})

	t.Run("Rejects out-of-range positions", func(t *testing.T) {
		board := entity.NewBoard()

		for _, pos := range [][2]int{{-1, 0}, {0, -1}, {3, 0}, {0, 3}} {
			_, err := ValidateAndApply(board, entity.PlayerX, pos[0], pos[1], 1)
			assert.ErrorIs(t, err, apperror.ErrInvalidCell)
		}
	})

	t.Run("Does not mutate the input board", func(t *testing.T) {
		// Given: an empty board
		board := entity.NewBoard()

		// When: a move is applied
		_, err := ValidateAndApply(board, entity.PlayerX, 2, 2, 1)

		// Then: the original board is still empty
		require.NoError(t, err)
		assert.Equal(t, entity.EmptyCell, board[2][2].Value)
	})

	t.Run("A fourth placement evicts the oldest mark", func(t *testing.T) {
		// Given: X holds (0,0), (1,1), (0,1) placed in that order
		board := place(t, entity.NewBoard(), entity.PlayerX, 0, 0, 1)
		board = place(t, board, entity.PlayerX, 1, 1, 2)
		board = place(t, board, entity.PlayerX, 0, 1, 3)
		require.Equal(t, 3, board.CountMarks(entity.PlayerX))

		// When: X places a fourth mark at (2, 2)
		board = place(t, board, entity.PlayerX, 2, 2, 4)

		// Then: exactly (0, 0) was evicted
		assert.Equal(t, entity.EmptyCell, board[0][0].Value)
		assert.Equal(t, entity.PlayerX, board[1][1].Value)
		assert.Equal(t, entity.PlayerX, board[0][1].Value)
		assert.Equal(t, entity.PlayerX, board[2][2].Value)
		assert.Equal(t, 3, board.CountMarks(entity.PlayerX))
	})

	t.Run("Eviction follows the order counter, not placement position", func(t *testing.T) {
		// Given: O marks placed with non-sequential counters
		board := place(t, entity.NewBoard(), entity.PlayerO, 2, 0, 5)
		board = place(t, board, entity.PlayerO, 0, 2, 9)
		board = place(t, board, entity.PlayerO, 1, 0, 7)

		// When: O places a fourth mark
		board = place(t, board, entity.PlayerO, 2, 2, 11)

		// Then: the smallest-order mark (2, 0) is gone
		assert.Equal(t, entity.EmptyCell, board[2][0].Value)
		assert.Equal(t, 3, board.CountMarks(entity.PlayerO))
	})

	t.Run("Mark count never exceeds three over a long sequence", func(t *testing.T) {
		// Given: X cycles marks around the edge cells forever
		positions := [][2]int{{0, 0}, {0, 1}, {0, 2}, {1, 2}, {2, 1}, {2, 0}, {1, 0}}

		board := entity.NewBoard()
		order := uint64(0)
		for round := 0; round < 4; round++ {
			for _, pos := range positions {
				if !board.IsEmptyAt(pos[0], pos[1]) {
					continue
				}
				order++
				board = place(t, board, entity.PlayerX, pos[0], pos[1], order)

				// Then: the invariant holds after every accepted move
				assert.LessOrEqual(t, board.CountMarks(entity.PlayerX), entity.MaxMarksPerPlayer)
			}
		}
	})
}

func TestCheckWinner(t *testing.T) {
	t.Run("Detects row, column and diagonal wins", func(t *testing.T) {
		wins := map[string][][2]int{
			"top row":       {{0, 0}, {0, 1}, {0, 2}},
			"left column":   {{0, 0}, {1, 0}, {2, 0}},
			"main diagonal": {{0, 0}, {1, 1}, {2, 2}},
			"anti diagonal": {{0, 2}, {1, 1}, {2, 0}},
		}

		for name, cells := range wins {
			board := entity.NewBoard()
			for i, pos := range cells {
				board[pos[0]][pos[1]] = entity.Cell{Value: entity.PlayerX, Order: uint64(i + 1)}
			}

			assert.Equal(t, entity.PlayerX, CheckWinner(board), name)
		}
	})

	t.Run("Returns empty when no line is complete", func(t *testing.T) {
		board := place(t, entity.NewBoard(), entity.PlayerX, 0, 0, 1)
		board = place(t, board, entity.PlayerO, 1, 1, 2)

		assert.Equal(t, entity.EmptyCell, CheckWinner(board))
	})

	t.Run("Is symmetric under rotation", func(t *testing.T) {
		// Given: a winning board for O
		board := entity.NewBoard()
		board[0][0] = entity.Cell{Value: entity.PlayerO, Order: 1}
		board[0][1] = entity.Cell{Value: entity.PlayerO, Order: 2}
		board[0][2] = entity.Cell{Value: entity.PlayerO, Order: 3}

		// When: rotating the board 90 degrees three times
		for i := 0; i < 3; i++ {
			board = rotate(board)

			// Then: the rotated board still reports the same winner
			assert.Equal(t, entity.PlayerO, CheckWinner(board))
		}
	})

	t.Run("Three marks on distinct cells of one line win even mid-game", func(t *testing.T) {
		// Given: X at (0,0) and (1,1), O elsewhere
		board := place(t, entity.NewBoard(), entity.PlayerX, 0, 0, 1)
		board = place(t, board, entity.PlayerO, 2, 0, 2)
		board = place(t, board, entity.PlayerX, 1, 1, 3)
		board = place(t, board, entity.PlayerO, 2, 1, 4)
		require.Equal(t, entity.EmptyCell, CheckWinner(board))

		// When: X completes the diagonal
		board = place(t, board, entity.PlayerX, 2, 2, 5)

		// Then: X wins
		assert.Equal(t, entity.PlayerX, CheckWinner(board))
	})
}

func TestIsDraw(t *testing.T) {
	t.Run("Full board with no line is a draw", func(t *testing.T) {
		board := boardFromValues([9]string{
			entity.PlayerX, entity.PlayerO, entity.PlayerX,
			entity.PlayerO, entity.PlayerX, entity.PlayerO,
			entity.PlayerO, entity.PlayerX, entity.PlayerO,
		})

		assert.True(t, IsDraw(board))
	})

	t.Run("Full board with a winner is not a draw", func(t *testing.T) {
		board := boardFromValues([9]string{
			entity.PlayerX, entity.PlayerX, entity.PlayerX,
			entity.PlayerO, entity.PlayerO, entity.PlayerX,
			entity.PlayerX, entity.PlayerO, entity.PlayerO,
		})

		assert.False(t, IsDraw(board))
	})

	t.Run("Partially filled board is not a draw", func(t *testing.T) {
		board := place(t, entity.NewBoard(), entity.PlayerX, 0, 0, 1)

		assert.False(t, IsDraw(board))
	})
}

func TestEmptyCells(t *testing.T) {
	t.Run("Lists all free positions", func(t *testing.T) {
		board := place(t, entity.NewBoard(), entity.PlayerX, 0, 0, 1)
		board = place(t, board, entity.PlayerO, 1, 1, 2)

		cells := EmptyCells(board)

		require.Len(t, cells, 7)
		assert.NotContains(t, cells, [2]int{0, 0})
		assert.NotContains(t, cells, [2]int{1, 1})
	})

	t.Run("Every listed cell is actually empty", func(t *testing.T) {
		board := place(t, entity.NewBoard(), entity.PlayerX, 2, 1, 1)

		for _, pos := range EmptyCells(board) {
			assert.True(t, board.IsEmptyAt(pos[0], pos[1]))
		}
	})
}

func rotate(board entity.Board) entity.Board {
	var out entity.Board
	for row := 0; row < entity.BoardSize; row++ {
		for col := 0; col < entity.BoardSize; col++ {
			out[col][entity.BoardSize-1-row] = board[row][col]
		}
	}

	return out
}

func boardFromValues(values [9]string) entity.Board {
	var board entity.Board
	for i, value := range values {
		if value == entity.EmptyCell {
			continue
		}
		board[i/3][i%3] = entity.Cell{Value: value, Order: uint64(i + 1)}
	}

	return board
}
