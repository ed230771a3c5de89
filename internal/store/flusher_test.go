package store

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingFlushable struct {
	calls atomic.Int32
	err   error
}

func (c *countingFlushable) Flush(context.Context) error {
	c.calls.Add(1)
	return c.err
}

func TestFlusher_FlushesUntilCancelled(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"clean flushes", nil},
		{"failing flushes keep ticking", errors.New("disk full")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := &countingFlushable{err: tt.err}
			f := NewFlusher(target, 5*time.Millisecond, discardLogger())

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				f.Start(ctx)
				close(done)
			}()

			assert.Eventually(t, func() bool { return target.calls.Load() >= 3 }, time.Second, time.Millisecond)
			cancel()

			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("flusher did not stop after cancellation")
			}
		})
	}
}
