package snake

import (
	"github.com/hoshinonyaruko/snake-in-iframe/structs"
)

// 键盘按键和屏幕按钮名称到方向的映射
var keyDirections = map[string]structs.Direction{
	"ArrowUp":    structs.Up,
	"ArrowDown":  structs.Down,
	"ArrowLeft":  structs.Left,
	"ArrowRight": structs.Right,
	"up":         structs.Up,
	"down":       structs.Down,
	"left":       structs.Left,
	"right":      structs.Right,
}

// ParseKey maps a raw key or button name to a direction.
func ParseKey(key string) (structs.Direction, bool) {
	d, ok := keyDirections[key]
	return d, ok
}

// OnInput handles one raw directional input event.
//
// The turn is applied to the current direction immediately unless it is the
// exact reverse of it. Either way the resulting current direction is appended
// to the move queue, so the queue holds one entry per event and fast multi-key
// input is drained one entry per tick afterwards.
func OnInput(st *structs.GameState, key string) {
	if d, ok := ParseKey(key); ok && d != st.Direction.Opposite() {
		st.Direction = d
	}
	st.MoveQueue = append(st.MoveQueue, st.Direction)
}

// 掉头模式：当前方向 -> 可以组合成掉头的两个按键
var uTurnPatterns = map[structs.Direction][][2]structs.Direction{
	structs.Right: {{structs.Up, structs.Left}, {structs.Down, structs.Left}},
	structs.Left:  {{structs.Up, structs.Right}, {structs.Down, structs.Right}},
	structs.Up:    {{structs.Left, structs.Down}, {structs.Right, structs.Down}},
	structs.Down:  {{structs.Left, structs.Up}, {structs.Right, structs.Up}},
}

// IsUTurnPattern reports whether the two pressed keys form a U-turn relative
// to current. Key order does not matter.
func IsUTurnPattern(keys []string, current structs.Direction) bool {
	_, ok := UTurnSequence(keys, current)
	return ok
}

// UTurnSequence returns the two headings that execute the U-turn described by
// keys without passing through the reverse of current.
func UTurnSequence(keys []string, current structs.Direction) ([2]structs.Direction, bool) {
	if len(keys) != 2 {
		return [2]structs.Direction{}, false
	}
	pressed := make(map[structs.Direction]bool, 2)
	for _, k := range keys {
		if d, ok := ParseKey(k); ok {
			pressed[d] = true
		}
	}
	for _, pattern := range uTurnPatterns[current] {
		if pressed[pattern[0]] && pressed[pattern[1]] {
			return pattern, true
		}
	}
	return [2]structs.Direction{}, false
}
