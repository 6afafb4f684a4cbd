// Package game drives the simulation: one tick at a time, plus the
// start, restart and game-over transitions and the notifications they emit.
package game

import (
	"errors"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/hoshinonyaruko/snake-in-iframe/snake"
	"github.com/hoshinonyaruko/snake-in-iframe/structs"
	"golang.org/x/exp/rand"
)

// ErrUTurnDisabled is returned by Chord when U-turn sequencing is switched off.
var ErrUTurnDisabled = errors.New("u-turn sequencing is disabled")

// Renderer is the drawable surface the engine paints each tick.
type Renderer interface {
	Clear()
	DrawFood(p structs.Position)
	DrawSnake(body []structs.Position)
	SetScore(score int)
	ShowStart(visible bool)
	ShowGameOver(visible bool)
	// Present publishes everything drawn since the last Clear.
	Present()
}

// Notifier receives messages for the host page.
type Notifier interface {
	Notify(msg structs.Message)
}

// Journal records finished rounds.
type Journal interface {
	RecordRound(r structs.Round) error
}

// Settings 游戏参数
type Settings struct {
	Grid  snake.Grid
	Speed snake.SpeedCurve

	// StartCol and StartRow locate the single initial segment.
	StartCol int
	StartRow int
	UTurn    bool
}

// DefaultSettings matches a 30x30 board of 20px cells.
func DefaultSettings() Settings {
	return Settings{
		Grid:     snake.Grid{Size: 30, Box: 20},
		Speed:    snake.DefaultSpeedCurve,
		StartCol: 5,
		StartRow: 5,
	}
}

// Options wires an Engine to its collaborators. Nil Renderer, Notifier and
// Journal are replaced by no-ops; a nil Clock by NewClock().
type Options struct {
	Settings Settings
	Clock    Clock
	Renderer Renderer
	Notifier Notifier
	Journal  Journal
	Seed     uint64
}

// Engine holds one game's state. It is not safe for concurrent use; Loop
// serialises access to it.
type Engine struct {
	settings Settings
	pending  *Settings
	state    structs.GameState
	rng      *rand.Rand
	clock    Clock
	canvas   Renderer
	out      Notifier
	journal  Journal
}

func NewEngine(opts Options) *Engine {
	e := &Engine{
		settings: opts.Settings,
		clock:    opts.Clock,
		canvas:   opts.Renderer,
		out:      opts.Notifier,
		journal:  opts.Journal,
	}
	if e.settings.Grid.Size == 0 {
		e.settings = DefaultSettings()
	}
	if e.clock == nil {
		e.clock = NewClock()
	}
	if e.canvas == nil {
		e.canvas = nopRenderer{}
	}
	if e.out == nil {
		e.out = nopNotifier{}
	}
	if e.journal == nil {
		e.journal = nopJournal{}
	}
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	e.rng = rand.New(rand.NewSource(seed))

	e.reset()
	e.state.Phase = structs.PhaseIdle
	e.canvas.ShowStart(true)
	e.canvas.Present()
	return e
}

// Clock exposes the tick schedule to the loop.
func (e *Engine) Clock() Clock { return e.clock }

// State returns a copy of the current simulation state.
func (e *Engine) State() structs.GameState { return e.state.Clone() }

// Settings returns the settings in effect for the current round.
func (e *Engine) Settings() Settings { return e.settings }

// reset 恢复到初始状态：单节蛇、向右、0分、最慢速度、空队列、新食物
func (e *Engine) reset() {
	g := e.settings.Grid
	e.state.Snake = []structs.Position{g.Cell(e.settings.StartCol, e.settings.StartRow)}
	e.state.Direction = structs.Right
	e.state.Score = 0
	e.state.Speed = e.settings.Speed.Max
	e.state.MoveQueue = nil
	e.state.Ticks = 0
	e.state.Food = snake.PlaceFood(g, e.state.Snake, e.rng)
}

// Ready announces that the game surface is loaded.
func (e *Engine) Ready() {
	e.out.Notify(structs.ReadyMessage())
}

// Start begins ticking from the idle state. It does nothing in any other phase.
func (e *Engine) Start() {
	if e.state.Phase != structs.PhaseIdle {
		glog.V(1).Infof("start ignored in phase %s", e.state.Phase)
		return
	}
	e.state.Score = 0
	e.state.RoundID = uuid.NewString()
	e.state.Phase = structs.PhaseRunning
	e.canvas.ShowStart(false)
	e.canvas.Present()
	e.clock.Start(e.interval())
	glog.Infof("round %s started at %dms", e.state.RoundID, e.state.Speed)
	e.out.Notify(structs.StartMessage())
}

// Restart cancels any running schedule and begins a fresh round.
func (e *Engine) Restart() {
	e.clock.Stop()
	if e.pending != nil {
		e.settings = *e.pending
		e.pending = nil
	}
	e.reset()
	e.state.RoundID = uuid.NewString()
	e.state.Phase = structs.PhaseRunning
	e.canvas.SetScore(0)
	e.canvas.ShowStart(false)
	e.canvas.ShowGameOver(false)
	e.canvas.Present()
	e.clock.Start(e.interval())
	glog.Infof("round %s restarted", e.state.RoundID)
	e.out.Notify(structs.StartMessage())
}

// Configure stages a new speed curve and U-turn switch. They take effect on
// the next Restart; the board geometry cannot change while running.
func (e *Engine) Configure(speed snake.SpeedCurve, uturn bool) {
	next := e.settings
	next.Speed = speed
	next.UTurn = uturn
	e.pending = &next
}

// Input feeds one raw key or button name into the input buffer.
func (e *Engine) Input(key string) {
	snake.OnInput(&e.state, key)
}

// Chord handles two keys pressed together. When they form a U-turn relative
// to the current direction both legs are queued; otherwise each key goes
// through Input on its own. The current direction is left untouched: the
// second leg reverses it, so adopting that leg early would make entries
// already queued look like reversals and turn the head into the neck.
func (e *Engine) Chord(keys []string) error {
	if !e.settings.UTurn {
		return ErrUTurnDisabled
	}
	seq, ok := snake.UTurnSequence(keys, e.state.Direction)
	if !ok {
		for _, k := range keys {
			e.Input(k)
		}
		return nil
	}
	e.state.MoveQueue = append(e.state.MoveQueue, seq[0], seq[1])
	return nil
}

// Tick runs one simulation step. It is a no-op unless the game is running.
func (e *Engine) Tick() {
	if e.state.Phase != structs.PhaseRunning {
		return
	}
	e.state.Ticks++
	e.canvas.Clear()
	e.canvas.DrawFood(e.state.Food)

	head, ate := snake.Advance(&e.state, e.settings.Grid)
	glog.V(2).Infof("tick %d: head=%+v dir=%s queue=%d", e.state.Ticks, head, e.state.Direction, len(e.state.MoveQueue))
	if ate {
		e.canvas.SetScore(e.state.Score)
		e.state.Food = snake.PlaceFood(e.settings.Grid, e.state.Snake, e.rng)
		e.state.Speed = snake.NextInterval(e.state.Score, e.state.Speed, e.settings.Speed)
		e.clock.Reschedule(e.interval())
		glog.V(1).Infof("food eaten: score=%d speed=%dms food=%+v", e.state.Score, e.state.Speed, e.state.Food)
	}

	e.canvas.DrawSnake(e.state.Snake)
	if snake.Collides(e.state.Snake, e.settings.Grid) {
		e.gameOver()
	}
	e.canvas.Present()
}

func (e *Engine) gameOver() {
	e.clock.Stop()
	e.state.Phase = structs.PhaseGameOver
	e.canvas.ShowGameOver(true)
	glog.Infof("round %s over: score=%d length=%d ticks=%d", e.state.RoundID, e.state.Score, len(e.state.Snake), e.state.Ticks)
	e.out.Notify(structs.ScoreMessage(e.state.Score))

	round := structs.Round{
		RoundID: e.state.RoundID,
		Score:   e.state.Score,
		Length:  len(e.state.Snake),
		Ticks:   e.state.Ticks,
		EndedAt: time.Now(),
	}
	if err := e.journal.RecordRound(round); err != nil {
		glog.Warningf("record round %s: %v", round.RoundID, err)
	}
}

func (e *Engine) interval() time.Duration {
	return time.Duration(e.state.Speed) * time.Millisecond
}

type nopRenderer struct{}

func (nopRenderer) Clear()                       {}
func (nopRenderer) DrawFood(structs.Position)    {}
func (nopRenderer) DrawSnake([]structs.Position) {}
func (nopRenderer) SetScore(int)                 {}
func (nopRenderer) ShowStart(bool)               {}
func (nopRenderer) ShowGameOver(bool)            {}
func (nopRenderer) Present()                     {}

type nopNotifier struct{}

func (nopNotifier) Notify(structs.Message) {}

type nopJournal struct{}

func (nopJournal) RecordRound(structs.Round) error { return nil }
