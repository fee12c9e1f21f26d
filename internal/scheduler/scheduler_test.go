package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEveryRunsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var n atomic.Int32

	done := make(chan struct{})
	go func() {
		Every(ctx, 10*time.Millisecond, "test", false, func(context.Context) error {
			if n.Add(1) == 2 {
				return fmt.Errorf("busy: %w", ErrSkip)
			}
			return errors.New("boom")
		})
		close(done)
	}()

	assert.Eventually(t, func() bool { return n.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Every did not return after cancel")
	}
}

func TestEveryImmediate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ran := make(chan struct{}, 1)
	go Every(ctx, time.Hour, "test", true, func(context.Context) error {
		ran <- struct{}{}
		return nil
	})

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("immediate run did not happen")
	}
}
