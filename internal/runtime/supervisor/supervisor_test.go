package supervisor

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestGoCancelOnError(t *testing.T) {
	s := New(context.Background(), WithCancelOnError(true))
	boom := errors.New("boom")
	s.Go("fails", func(ctx context.Context) error { return boom })
	s.Go0("waits", func(ctx context.Context) { <-ctx.Done() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := s.Wait(ctx)
	if !errors.Is(err, boom) {
		t.Fatalf("Wait error = %v, want %v", err, boom)
	}
	if !strings.HasPrefix(err.Error(), "fails: ") {
		t.Fatalf("error not prefixed with goroutine name: %v", err)
	}
	if s.Active() != 0 {
		t.Fatalf("Active = %d after Wait", s.Active())
	}
}

func TestGoRecoversPanic(t *testing.T) {
	s := New(context.Background(), WithCancelOnError(true))
	s.Go0("panics", func(ctx context.Context) { panic("bad") })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := s.Wait(ctx)
	if err == nil || !strings.Contains(err.Error(), "panic in panics") {
		t.Fatalf("Wait error = %v", err)
	}
	if s.Context().Err() == nil {
		t.Fatal("context not canceled after panic")
	}
}

func TestCanceledIsNotAnError(t *testing.T) {
	s := New(context.Background(), WithCancelOnError(true))
	s.Go("clean", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop error = %v", err)
	}
}

func TestFailWithoutCancel(t *testing.T) {
	s := New(context.Background())
	defer s.Cancel()
	s.Fail(errors.New("first"))
	s.Fail(errors.New("second"))
	if s.Err() == nil || s.Err().Error() != "first" {
		t.Fatalf("Err = %v, want first", s.Err())
	}
	if s.Context().Err() != nil {
		t.Fatal("context canceled without WithCancelOnError")
	}
}

func TestGoRestartRestartsUntilClean(t *testing.T) {
	s := New(context.Background())
	var runs int32
	done := make(chan struct{})
	s.GoRestart("flaky", func(ctx context.Context) error {
		if atomic.AddInt32(&runs, 1) < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}, WithRestartBackoff(time.Millisecond, 5*time.Millisecond))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("restart loop did not reach a clean run")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop error = %v", err)
	}
	if got := atomic.LoadInt32(&runs); got != 3 {
		t.Fatalf("runs = %d, want 3", got)
	}
}
