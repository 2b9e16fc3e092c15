package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekowkaay/tic-tac-toe-multiplayer/internal/apperror"
)

func TestBoard_ApplyMark(t *testing.T) {
	t.Run("Places a mark on an empty cell", func(t *testing.T) {
		// Given: an empty board
		var board Board

		// When: X is placed at (1,1)
		err := board.ApplyMark(1, 1, MarkX)

		// Then: the cell holds X
		require.NoError(t, err)
		assert.Equal(t, MarkX, board[1][1])
	})

	t.Run("Returns ErrCellOccupied and leaves the cell untouched", func(t *testing.T) {
		// Given: a board with X at (0,0)
		var board Board
		require.NoError(t, board.ApplyMark(0, 0, MarkX))

		// When: O targets the same cell
		err := board.ApplyMark(0, 0, MarkO)

		// Then: the move is rejected and the original mark survives
		require.ErrorIs(t, err, apperror.ErrCellOccupied)
		assert.Equal(t, MarkX, board[0][0])
	})

	t.Run("Returns ErrOutOfBounds for coordinates outside the grid", func(t *testing.T) {
		var board Board

		for _, pos := range [][2]int{{-1, 0}, {0, -1}, {3, 0}, {0, 3}, {7, 7}} {
			err := board.ApplyMark(pos[0], pos[1], MarkX)
			assert.ErrorIs(t, err, apperror.ErrOutOfBounds, "row %d col %d", pos[0], pos[1])
		}
	})
}

func TestBoard_HasWinner(t *testing.T) {
	t.Run("Detects every winning line", func(t *testing.T) {
		lines := [][3][2]int{
			{{0, 0}, {0, 1}, {0, 2}},
			{{1, 0}, {1, 1}, {1, 2}},
			{{2, 0}, {2, 1}, {2, 2}},
			{{0, 0}, {1, 0}, {2, 0}},
			{{0, 1}, {1, 1}, {2, 1}},
			{{0, 2}, {1, 2}, {2, 2}},
			{{0, 0}, {1, 1}, {2, 2}},
			{{0, 2}, {1, 1}, {2, 0}},
		}

		for _, line := range lines {
			// Given: a board with X on all three cells of one line
			var board Board
			for _, cell := range line {
				require.NoError(t, board.ApplyMark(cell[0], cell[1], MarkX))
			}

			// Then: X wins and O does not
			assert.True(t, board.HasWinner(MarkX), "line %v", line)
			assert.False(t, board.HasWinner(MarkO), "line %v", line)
		}
	})

	t.Run("Reports no winner on a mixed board", func(t *testing.T) {
		// Given: a full board with no line of three
		board := Board{
			{MarkX, MarkO, MarkX},
			{MarkO, MarkX, MarkO},
			{MarkO, MarkX, MarkO},
		}

		assert.False(t, board.HasWinner(MarkX))
		assert.False(t, board.HasWinner(MarkO))
	})
}

func TestBoard_IsFull(t *testing.T) {
	t.Run("Empty and partial boards are not full", func(t *testing.T) {
		var board Board
		assert.False(t, board.IsFull())

		require.NoError(t, board.ApplyMark(0, 0, MarkX))
		assert.False(t, board.IsFull())
	})

	t.Run("A board with all nine cells set is full", func(t *testing.T) {
		board := Board{
			{MarkX, MarkO, MarkX},
			{MarkO, MarkX, MarkO},
			{MarkO, MarkX, MarkO},
		}

		assert.True(t, board.IsFull())
	})
}

func TestToggleMark(t *testing.T) {
	assert.Equal(t, MarkO, ToggleMark(MarkX))
	assert.Equal(t, MarkX, ToggleMark(MarkO))
}
