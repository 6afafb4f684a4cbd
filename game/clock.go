package game

import "time"

// Clock owns the single repeating tick schedule. Start, Stop and Reschedule
// all cancel whatever schedule is live before doing anything else, so at most
// one schedule exists at a time.
type Clock interface {
	Start(interval time.Duration)
	Stop()
	Reschedule(interval time.Duration)
	// C delivers ticks; nil while stopped.
	C() <-chan time.Time
}

type tickerClock struct {
	ticker *time.Ticker
}

// NewClock returns a Clock backed by time.Ticker.
func NewClock() Clock {
	return &tickerClock{}
}

func (c *tickerClock) Start(interval time.Duration) {
	c.Stop()
	c.ticker = time.NewTicker(interval)
}

func (c *tickerClock) Stop() {
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
}

func (c *tickerClock) Reschedule(interval time.Duration) {
	c.Start(interval)
}

func (c *tickerClock) C() <-chan time.Time {
	if c.ticker == nil {
		return nil
	}
	return c.ticker.C
}
