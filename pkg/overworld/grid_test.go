package overworld

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in      string
		want    Direction
		wantErr bool
	}{
		{"up", Up, false},
		{"DOWN", Down, false},
		{" left ", Left, false},
		{"d", Right, false},
		{"k", Up, false},
		{"j", Down, false},
		{"diagonal", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDirection(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGrid_Move(t *testing.T) {
	g := Grid{Cols: 3, Rows: 3}
	center := g.Start()
	assert.Equal(t, Position{X: 1, Y: 1}, center)

	to, moved := g.Move(center, Up)
	assert.True(t, moved)
	assert.Equal(t, Position{X: 1, Y: 0}, to)

	// Top edge blocks further upward movement.
	blocked, moved := g.Move(to, Up)
	assert.False(t, moved)
	assert.Equal(t, to, blocked)

	corner := Position{X: 2, Y: 2}
	_, moved = g.Move(corner, Right)
	assert.False(t, moved)
	_, moved = g.Move(corner, Down)
	assert.False(t, moved)

	_, moved = g.Move(center, Direction("sideways"))
	assert.False(t, moved)
}

func TestDefaultGrid_StartInside(t *testing.T) {
	g := DefaultGrid()
	assert.True(t, g.Contains(g.Start()))
	assert.False(t, g.Contains(Position{X: -1, Y: 0}))
	assert.False(t, g.Contains(Position{X: 0, Y: g.Rows}))
}
