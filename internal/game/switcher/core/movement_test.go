package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestValidMovesSymmetric 每个合法交换的反向交换也合法
func TestValidMovesSymmetric(t *testing.T) {
	for _, mt := range AllMovementTypes() {
		t.Run(mt.String(), func(t *testing.T) {
			swaps := ValidMoves(mt)
			require.NotEmpty(t, swaps)
			for _, s := range swaps {
				assert.True(t, s.From.InBounds(), "from %v out of bounds", s.From)
				assert.True(t, s.To.InBounds(), "to %v out of bounds", s.To)
				assert.True(t, IsValidMove(mt, s.To, s.From), "reverse of %v missing", s)
			}
		})
	}
}

// TestValidMovesSize 各类型合法交换数量
func TestValidMovesSize(t *testing.T) {
	tests := []struct {
		mt   MovementType
		want int
	}{
		{Mov01, 64},
		{Mov02, 96},
		{Mov03, 120},
		{Mov04, 100},
		{Mov05, 80},
		{Mov06, 80},
		{Mov07, 48},
	}

	for _, tt := range tests {
		t.Run(tt.mt.String(), func(t *testing.T) {
			assert.Len(t, ValidMoves(tt.mt), tt.want)
		})
	}
}

func TestValidateMove(t *testing.T) {
	tests := []struct {
		name    string
		mt      MovementType
		a, b    Coordinate
		wantErr bool
	}{
		{"mov03 adjacent", Mov03, Coord(0, 0), Coord(0, 1), false},
		{"mov03 distance two", Mov03, Coord(0, 0), Coord(0, 2), true},
		{"mov03 diagonal", Mov03, Coord(0, 0), Coord(1, 1), true},
		{"mov01 diagonal two", Mov01, Coord(2, 0), Coord(0, 2), false},
		{"mov01 reverse", Mov01, Coord(0, 2), Coord(2, 0), false},
		{"mov01 anti diagonal", Mov01, Coord(3, 3), Coord(1, 1), false},
		{"mov02 vertical", Mov02, Coord(1, 4), Coord(3, 4), false},
		{"mov02 adjacent", Mov02, Coord(1, 4), Coord(2, 4), true},
		{"mov04 down right", Mov04, Coord(2, 2), Coord(3, 3), false},
		{"mov04 down left", Mov04, Coord(2, 2), Coord(3, 1), false},
		{"mov04 up right", Mov04, Coord(2, 2), Coord(1, 3), false},
		{"mov05 offset", Mov05, Coord(3, 3), Coord(1, 4), false},
		{"mov05 other offset", Mov05, Coord(3, 3), Coord(2, 1), false},
		{"mov05 mirrored offset", Mov05, Coord(3, 3), Coord(1, 2), true},
		{"mov06 offset", Mov06, Coord(3, 3), Coord(1, 2), false},
		{"mov06 other offset", Mov06, Coord(3, 3), Coord(2, 5), false},
		{"mov07 row", Mov07, Coord(0, 0), Coord(0, 4), false},
		{"mov07 column", Mov07, Coord(5, 1), Coord(1, 1), false},
		{"mov07 distance three", Mov07, Coord(0, 0), Coord(0, 3), true},
		{"same tile", Mov03, Coord(2, 2), Coord(2, 2), true},
		{"out of range", Mov03, Coord(5, 5), Coord(5, 6), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMove(tt.mt, tt.a, tt.b)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMovement)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateMoveUnknownType(t *testing.T) {
	err := ValidateMove(MovementType(42), Coord(0, 0), Coord(0, 1))
	assert.ErrorIs(t, err, ErrUnknownMovementType)
}

func TestParseMovementType(t *testing.T) {
	for _, mt := range AllMovementTypes() {
		parsed, err := ParseMovementType(mt.String())
		require.NoError(t, err)
		assert.Equal(t, mt, parsed)
	}

	_, err := ParseMovementType("mov08")
	assert.ErrorIs(t, err, ErrUnknownMovementType)
}
