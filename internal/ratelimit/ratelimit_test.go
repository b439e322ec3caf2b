package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestLimiter(t *testing.T) {
	t.Run("AllowsRequestsWithinLimit", func(t *testing.T) {
		l := New(5, time.Second)

		start := time.Now()
		for i := 0; i < 5; i++ {
			if err := l.Wait(context.Background()); err != nil {
				t.Errorf("Wait() request %d error = %v, want nil", i+1, err)
			}
		}
		if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
			t.Errorf("5 requests under limit took %v, expected < 100ms", elapsed)
		}
	})

	t.Run("BlocksExcessRequests", func(t *testing.T) {
		l := New(2, 300*time.Millisecond)

		start := time.Now()
		for i := 0; i < 3; i++ {
			if err := l.Wait(context.Background()); err != nil {
				t.Errorf("Wait() request %d error = %v, want nil", i+1, err)
			}
		}
		if elapsed := time.Since(start); elapsed < 300*time.Millisecond {
			t.Errorf("3rd request took %v, expected at least 300ms delay", elapsed)
		}
	})

	t.Run("HonorsCancellation", func(t *testing.T) {
		l := New(1, time.Hour)
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("first Wait() error = %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if err := l.Wait(ctx); err == nil {
			t.Error("Wait() past the limit with a short deadline returned nil, want context error")
		}
	})

	t.Run("DisabledWhenNonPositive", func(t *testing.T) {
		l := New(0, time.Hour)
		for i := 0; i < 10; i++ {
			if err := l.Wait(context.Background()); err != nil {
				t.Fatalf("Wait() error = %v", err)
			}
		}
	})

	t.Run("ConcurrentRequests", func(t *testing.T) {
		l := New(10, time.Second)

		var wg sync.WaitGroup
		errs := make(chan error, 10)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- l.Wait(context.Background())
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			if err != nil {
				t.Errorf("concurrent Wait() error = %v", err)
			}
		}
	})
}
