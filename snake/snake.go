// 贪食蛇的移动与成长
package snake

import (
	"github.com/hoshinonyaruko/snake-in-iframe/structs"
)

// FoodReward 每吃一个食物增加的分数
const FoodReward = 10

// Advance moves the snake one cell.
//
// The next queued heading is adopted unless it reverses the current
// direction; this guard repeats the one in OnInput because the current
// direction may have changed since the entry was queued. The new head is
// prepended and, unless it landed on the food, the tail is dropped. When food
// is eaten the score is incremented; placing new food and adjusting the speed
// is left to the caller.
func Advance(st *structs.GameState, g Grid) (head structs.Position, ate bool) {
	if len(st.MoveQueue) > 0 {
		next := st.MoveQueue[0]
		st.MoveQueue = st.MoveQueue[1:]
		if next != st.Direction.Opposite() {
			st.Direction = next
		}
	}

	head = g.Step(st.Snake[0], st.Direction)

	newSnake := make([]structs.Position, 0, len(st.Snake)+1)
	newSnake = append(newSnake, head)
	newSnake = append(newSnake, st.Snake...)
	st.Snake = newSnake

	if head == st.Food {
		st.Score += FoodReward
		return head, true
	}
	st.Snake = st.Snake[:len(st.Snake)-1]
	return head, false
}
