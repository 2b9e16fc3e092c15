package entity

import (
	"fmt"

	"github.com/ekowkaay/tic-tac-toe-multiplayer/internal/apperror"
)

const (
	MarkX = "X"
	MarkO = "O"

	EmptyCell = ""

	BoardSize = 3
)

// Board is a 3x3 grid addressed by row and column. The zero value is an
// empty board.
type Board [BoardSize][BoardSize]string

// ApplyMark - places a mark on the board. A cell, once set, is never
// overwritten.
func (that *Board) ApplyMark(row, col int, mark string) error {
	if row < 0 || row >= BoardSize || col < 0 || col >= BoardSize {
		return fmt.Errorf("%w: row %d, col %d", apperror.ErrOutOfBounds, row, col)
	}

	if that[row][col] != EmptyCell {
		return fmt.Errorf("%w: row %d, col %d", apperror.ErrCellOccupied, row, col)
	}

	that[row][col] = mark

	return nil
}

// HasWinner - reports whether any row, column or diagonal is fully occupied
// by the given mark.
func (that Board) HasWinner(mark string) bool {
	for i := 0; i < BoardSize; i++ {
		if that[i][0] == mark && that[i][1] == mark && that[i][2] == mark {
			return true
		}
		if that[0][i] == mark && that[1][i] == mark && that[2][i] == mark {
			return true
		}
	}

	if that[0][0] == mark && that[1][1] == mark && that[2][2] == mark {
		return true
	}

	return that[0][2] == mark && that[1][1] == mark && that[2][0] == mark
}

// IsFull - reports whether no empty cells remain.
func (that Board) IsFull() bool {
	for _, row := range that {
		for _, cell := range row {
			if cell == EmptyCell {
				return false
			}
		}
	}

	return true
}

// ToggleMark - returns the opposing mark.
func ToggleMark(mark string) string {
	if mark == MarkX {
		return MarkO
	}

	return MarkX
}
