package scheduler

import (
	"context"
	"errors"
	"log"
	"time"
)

type Task func(ctx context.Context) error

// ErrSkip marks a tick that deliberately did nothing (e.g. a run was already
// in progress). It is logged at a lower key than real failures.
var ErrSkip = errors.New("tick skipped")

// Every runs task each interval until ctx is done. With immediate set the
// first run starts right away instead of after one interval.
func Every(ctx context.Context, interval time.Duration, name string, immediate bool, task Task) {
	t := time.NewTicker(interval)
	defer t.Stop()

	run := func() {
		switch err := task(ctx); {
		case err == nil:
		case errors.Is(err, ErrSkip):
			log.Printf("[%s] skipped: %v", name, err)
		default:
			log.Printf("[%s] error: %v", name, err)
		}
	}

	if immediate {
		go run()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run()
		}
	}
}
