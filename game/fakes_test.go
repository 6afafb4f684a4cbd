package game

import (
	"sync"
	"time"

	"github.com/hoshinonyaruko/snake-in-iframe/structs"
)

// fakeClock records schedule changes and lets tests fire ticks by hand.
type fakeClock struct {
	ch       chan time.Time
	live     bool
	interval time.Duration
	starts   int
	stops    int
}

func newFakeClock() *fakeClock {
	return &fakeClock{ch: make(chan time.Time)}
}

func (c *fakeClock) Start(d time.Duration) {
	c.Stop()
	c.live = true
	c.interval = d
	c.starts++
}

func (c *fakeClock) Stop() {
	if c.live {
		c.stops++
	}
	c.live = false
}

func (c *fakeClock) Reschedule(d time.Duration) { c.Start(d) }

func (c *fakeClock) C() <-chan time.Time {
	if !c.live {
		return nil
	}
	return c.ch
}

type recordingRenderer struct {
	clears   int
	score    int
	start    bool
	gameOver bool
	body     []structs.Position
	food     structs.Position
	presents int
}

func (r *recordingRenderer) Clear()                      { r.clears++ }
func (r *recordingRenderer) DrawFood(p structs.Position) { r.food = p }
func (r *recordingRenderer) DrawSnake(body []structs.Position) {
	r.body = append([]structs.Position(nil), body...)
}
func (r *recordingRenderer) SetScore(score int)  { r.score = score }
func (r *recordingRenderer) ShowStart(v bool)    { r.start = v }
func (r *recordingRenderer) ShowGameOver(v bool) { r.gameOver = v }
func (r *recordingRenderer) Present()            { r.presents++ }

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []structs.Message
}

func (n *recordingNotifier) Notify(m structs.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, m)
}

func (n *recordingNotifier) messages() []structs.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]structs.Message(nil), n.msgs...)
}

func (n *recordingNotifier) count(kind string) int {
	c := 0
	for _, m := range n.messages() {
		if m.Kind() == kind {
			c++
		}
	}
	return c
}

type memJournal struct {
	rounds []structs.Round
}

func (j *memJournal) RecordRound(r structs.Round) error {
	j.rounds = append(j.rounds, r)
	return nil
}
