package snake

import (
	"github.com/hoshinonyaruko/snake-in-iframe/structs"
	"golang.org/x/exp/slices"
)

// Collides reports whether the head has left the board or bitten the body.
func Collides(body []structs.Position, g Grid) bool {
	if len(body) == 0 {
		return false
	}
	head := body[0]
	if !g.Contains(head) {
		return true
	}
	return slices.Contains(body[1:], head)
}
