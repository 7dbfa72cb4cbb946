package game

import (
	"context"
	"sort"
	"time"
)

// Countdown fires onExpire after total, and onTick(n) n units before expiry
// for n = ticks..1. Every pending callback hangs off one context, so Stop
// cancels all of them at once.
type Countdown struct {
	cancel context.CancelFunc
	done   chan struct{}
}

type countdownEvent struct {
	at   time.Duration
	fire func()
}

func StartCountdown(parent context.Context, total, unit time.Duration, ticks int, onTick func(n int), onExpire func()) *Countdown {
	ctx, cancel := context.WithCancel(parent)
	c := &Countdown{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	events := make([]countdownEvent, 0, ticks+1)
	for n := ticks; n > 0; n-- {
		n := n
		at :=total - time.Duration(n)*unit
		if at < 0 {
			continue
		}
		events = append(events, countdownEvent{at: at, fire: func() { onTick(n) }})
	}
	events = append(events, countdownEvent{at: total, fire: onExpire})
	sort.SliceStable(events, func(i, j int) bool { return events[i].at < events[j].at })

	go c.run(ctx, events)
	return c
}

func (c *Countdown) run(ctx context.Context, events []countdownEvent) {
	defer close(c.done)

	start := time.Now()
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for _, ev := range events {
		timer.Reset(time.Until(start.Add(ev.at)))
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		if ctx.Err() != nil {
			return
		}
		ev.fire()
	}
}

// Stop cancels whatever has not fired yet. Safe to call more than once and
// after expiry.
func (c *Countdown) Stop() {
	if c == nil {
		return
	}
	c.cancel()
}

// Done is closed once the countdown has expired or been stopped.
func (c *Countdown) Done() <-chan struct{} {
	return c.done
}
