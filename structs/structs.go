package structs

import "time"

// Position 描述画布上的一个格子，单位为像素，总是 BOX_SIZE 的整数倍。
type Position struct {
	X int `json:"x"` // X坐标
	Y int `json:"y"` // Y坐标
}

// Direction 移动方向
type Direction string

const (
	Up    Direction = "UP"
	Down  Direction = "DOWN"
	Left  Direction = "LEFT"
	Right Direction = "RIGHT"
)

// Opposite returns the direction that would reverse the snake into its own neck.
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	case Right:
		return Left
	}
	return ""
}

// Phase 游戏生命周期阶段
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseRunning  Phase = "running"
	PhaseGameOver Phase = "game_over"
)

// GameState 描述一局游戏的全部模拟状态，只由游戏循环持有。
type GameState struct {
	Snake     []Position  `json:"snake"`      // 蛇身，下标0为蛇头
	Direction Direction   `json:"direction"`  // 当前方向
	MoveQueue []Direction `json:"move_queue"` // 待消费的方向队列
	Food      Position    `json:"food"`       // 食物位置
	Score     int         `json:"score"`      // 分数
	Speed     int         `json:"speed"`      // 刷新间隔，单位毫秒
	Phase     Phase       `json:"phase"`      // 生命周期阶段
	RoundID   string      `json:"round_id,omitempty"`
	Ticks     int         `json:"ticks"` // 本局已执行的刷新次数
}

// Clone returns a deep copy safe to hand to another goroutine.
func (s GameState) Clone() GameState {
	c := s
	c.Snake = append([]Position(nil), s.Snake...)
	c.MoveQueue = append([]Direction(nil), s.MoveQueue...)
	return c
}

// Message 发送给宿主页面的通知。GameMessage 始终为 true，用于和其他跨窗口消息区分。
type Message struct {
	GameMessage bool `json:"gameMessage"`
	GameReady   bool `json:"gameReady,omitempty"`
	GameStart   bool `json:"gameStart,omitempty"`
	Score       *int `json:"score,omitempty"`
}

func ReadyMessage() Message { return Message{GameMessage: true, GameReady: true} }

func StartMessage() Message { return Message{GameMessage: true, GameStart: true} }

func ScoreMessage(score int) Message {
	return Message{GameMessage: true, Score: &score}
}

// Kind names the notification, used as the SSE event name.
func (m Message) Kind() string {
	switch {
	case m.GameReady:
		return "ready"
	case m.GameStart:
		return "start"
	case m.Score != nil:
		return "score"
	}
	return "message"
}

// Round 一局结束后的记录
type Round struct {
	RoundID string    `json:"round_id"`
	Score   int       `json:"score"`
	Length  int       `json:"length"` // 结束时蛇的长度
	Ticks   int       `json:"ticks"`
	EndedAt time.Time `json:"ended_at"`
}
