package resource

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewResourceIsIdle(t *testing.T) {
	r := New(func(context.Context) (string, error) {
		return "data", nil
	})

	if r == nil {
		t.Fatal("New returned nil")
	}
	if got := r.State().Status; got != Idle {
		t.Errorf("State = %v, want idle", got)
	}
}

func TestResourceSuccess(t *testing.T) {
	r := New(func(context.Context) (string, error) {
		return "success", nil
	})

	s := r.Load(context.Background())

	if s.Status != Ready {
		t.Fatalf("Status = %v, want ready", s.Status)
	}
	if s.Value != "success" {
		t.Errorf("Expected 'success', got '%s'", s.Value)
	}
	if s.Message != "" {
		t.Errorf("Expected no message, got %q", s.Message)
	}
}

func TestResourceError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"message kept", errors.New("Failed to fetch user profile"), "Failed to fetch user profile"},
		{"empty message", errors.New(""), "Unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(func(context.Context) (string, error) {
				return "ignored", tt.err
			})

			s := r.Load(context.Background())

			if s.Status != Error {
				t.Fatalf("Status = %v, want error", s.Status)
			}
			if s.Message != tt.want {
				t.Errorf("Message = %q, want %q", s.Message, tt.want)
			}
			if v, ok := s.Get(); ok || v != "" {
				t.Errorf("Get() = %q, %v, want zero value on error", v, ok)
			}
		})
	}
}

func TestStartAppliesLoadingImmediately(t *testing.T) {
	release := make(chan struct{})
	r := New(func(context.Context) (int, error) {
		<-release
		return 7, nil
	})

	done := r.Start(context.Background())
	if r.State().Status != Loading {
		t.Fatalf("State = %v, want loading right after Start", r.State().Status)
	}

	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for Start to settle")
	}
	if v := r.State().Value; v != 7 {
		t.Errorf("Value = %d, want 7", v)
	}
}

func TestLoadClearsPreviousValue(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	r := New(func(context.Context) (string, error) {
		if calls.Add(1) == 2 {
			<-release
		}
		return "v", nil
	})

	r.Load(context.Background())
	done := r.Start(context.Background())

	s := r.State()
	if s.Status != Loading || s.Value != "" {
		t.Errorf("State during reload = %+v, want Loading with zero value", s)
	}
	close(release)
	<-done
}

func TestStaleResponseIsDropped(t *testing.T) {
	first := make(chan struct{})
	var calls atomic.Int32
	r := New(func(context.Context) (string, error) {
		if calls.Add(1) == 1 {
			<-first
			return "stale", nil
		}
		return "fresh", nil
	})

	staleDone := r.Start(context.Background())
	// Wait until the first fetch is in flight.
	for calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	if s := r.Load(context.Background()); s.Value != "fresh" {
		t.Fatalf("second load = %+v, want fresh", s)
	}

	close(first)
	<-staleDone

	if got := r.State().Value; got != "fresh" {
		t.Errorf("Value = %q, stale response overwrote fresh state", got)
	}
}

func TestLoadIsIdempotent(t *testing.T) {
	r := New(func(context.Context) ([]int, error) {
		return []int{1, 2, 3}, nil
	})

	a := r.Load(context.Background())
	b := r.Load(context.Background())

	if a.Status != Ready || b.Status != Ready {
		t.Fatalf("statuses = %v, %v", a.Status, b.Status)
	}
	if len(a.Value) != len(b.Value) {
		t.Fatalf("values differ: %v vs %v", a.Value, b.Value)
	}
	for i := range a.Value {
		if a.Value[i] != b.Value[i] {
			t.Errorf("values differ at %d: %v vs %v", i, a.Value, b.Value)
		}
	}
}

func TestOnSuccessSkipsErrorsAndStaleResponses(t *testing.T) {
	first := make(chan struct{})
	var calls atomic.Int32
	var got []string
	r := New(func(context.Context) (string, error) {
		switch calls.Add(1) {
		case 1:
			<-first
			return "stale", nil
		case 2:
			return "", errors.New("down")
		default:
			return "fresh", nil
		}
	}).OnSuccess(func(v string) { got = append(got, v) })

	staleDone := r.Start(context.Background())
	for calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	r.Load(context.Background())
	r.Load(context.Background())
	close(first)
	<-staleDone

	if len(got) != 1 || got[0] != "fresh" {
		t.Errorf("OnSuccess values = %v, want [fresh]", got)
	}
}

func TestRetryOnError(t *testing.T) {
	var calls atomic.Int32
	r := New(func(context.Context) (string, error) {
		if calls.Add(1) < 3 {
			return "", errors.New("flaky")
		}
		return "ok", nil
	}).RetryOnError(2, time.Millisecond)

	s := r.Load(context.Background())
	if s.Status != Ready || s.Value != "ok" {
		t.Errorf("State = %+v, want Ready(ok)", s)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestNoRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	r := New(func(context.Context) (string, error) {
		calls.Add(1)
		return "", errors.New("down")
	})

	r.Load(context.Background())
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestCancelledRetrySettlesToError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := New(func(context.Context) (string, error) {
		cancel()
		return "", errors.New("down")
	}).RetryOnError(5, time.Hour)

	s := r.Load(ctx)
	if s.Status != Error {
		t.Fatalf("Status = %v, want error", s.Status)
	}
	if s.Message != context.Canceled.Error() {
		t.Errorf("Message = %q, want %q", s.Message, context.Canceled.Error())
	}
}

func TestMutate(t *testing.T) {
	r := New(func(context.Context) (int, error) {
		return 1, nil
	})

	if r.Mutate(func(v int) int { return v + 1 }) {
		t.Error("Mutate should be a no-op while idle")
	}

	r.Load(context.Background())
	if !r.Mutate(func(v int) int { return v + 1 }) {
		t.Fatal("Mutate should apply while ready")
	}
	s := r.State()
	if s.Value != 2 {
		t.Errorf("Value = %d, want 2", s.Value)
	}
	if s.Status != Ready {
		t.Error("Mutate must keep the Ready tag")
	}
}

func TestSubscribeSeesTransitionsInOrder(t *testing.T) {
	r := New(func(context.Context) (string, error) {
		return "x", nil
	})

	var (
		mu   sync.Mutex
		seen []Status
	)
	cancel := r.Subscribe(func(s State[string]) {
		mu.Lock()
		seen = append(seen, s.Status)
		mu.Unlock()
	})

	r.Load(context.Background())
	r.Mutate(func(s string) string { return s + "y" })
	cancel()
	r.Load(context.Background())

	mu.Lock()
	defer mu.Unlock()
	want := []Status{Loading, Ready, Ready}
	if len(seen) != len(want) {
		t.Fatalf("seen = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("seen[%d] = %v, want %v", i, seen[i], want[i])
		}
	}
}

func TestStatusString(t *testing.T) {
	tests := map[Status]string{
		Idle:       "idle",
		Loading:    "loading",
		Ready:      "ready",
		Error:      "error",
		Status(42): "unknown",
	}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", int(s), s.String(), want)
		}
	}
}

func TestLoadWithOverridesFetcher(t *testing.T) {
	r := New[int](nil)

	if s := r.Load(context.Background()); s.Status != Error || s.Message != "resource: no fetcher" {
		t.Errorf("Load without fetcher = %+v", s)
	}

	s := r.LoadWith(context.Background(), func(context.Context) (int, error) { return 9, nil })
	if s.Status != Ready || s.Value != 9 {
		t.Errorf("LoadWith = %+v, want Ready(9)", s)
	}

	done := r.StartWith(context.Background(), func(context.Context) (int, error) { return 10, nil })
	<-done
	if v := r.State().Value; v != 10 {
		t.Errorf("Value after StartWith = %d, want 10", v)
	}
}
