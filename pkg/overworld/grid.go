// Package overworld models the walkable map as a bounded grid of cells.
package overworld

import (
	"fmt"
	"strings"
)

const (
	DefaultCols = 17
	DefaultRows = 25
)

type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// ParseDirection accepts direction names and the usual keyboard aliases
// (wasd, hjkl), case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "w", "k":
		return Up, nil
	case "down", "s", "j":
		return Down, nil
	case "left", "a", "h":
		return Left, nil
	case "right", "d", "l":
		return Right, nil
	default:
		return "", fmt.Errorf("unknown direction %q", s)
	}
}

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Grid is a Cols x Rows map; (0,0) is the top-left cell.
type Grid struct {
	Cols int
	Rows int
}

func DefaultGrid() Grid {
	return Grid{Cols: DefaultCols, Rows: DefaultRows}
}

// Start is the centre cell, where the tiger enters the map.
func (g Grid) Start() Position {
	return Position{X: g.Cols / 2, Y: g.Rows / 2}
}

func (g Grid) Contains(p Position) bool {
	return p.X >= 0 && p.X < g.Cols && p.Y >= 0 && p.Y < g.Rows
}

// Move returns the neighbouring cell in dir. Moves that would leave the grid
// return the original position and false.
func (g Grid) Move(from Position, dir Direction) (Position, bool) {
	to := from
	switch dir {
	case Up:
		to.Y--
	case Down:
		to.Y++
	case Left:
		to.X--
	case Right:
		to.X++
	default:
		return from, false
	}
	if !g.Contains(to) {
		return from, false
	}
	return to, true
}
