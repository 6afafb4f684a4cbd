package snake

import (
	"github.com/hoshinonyaruko/snake-in-iframe/structs"
	"golang.org/x/exp/slices"
)

// Source is the random source food placement draws from.
type Source interface {
	Intn(n int) int
}

// PlaceFood draws uniformly random cells until it finds one not in occupied.
//
// Termination is only probabilistic: as the snake fills the board the number
// of draws grows without bound, and a completely full board never returns.
// The game is not winnable at that size, so this is left as is.
func PlaceFood(g Grid, occupied []structs.Position, rng Source) structs.Position {
	for {
		p := g.Cell(rng.Intn(g.Size), rng.Intn(g.Size))
		if !slices.Contains(occupied, p) {
			return p
		}
	}
}
