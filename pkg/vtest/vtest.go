package vtest

import (
	"strings"
	"testing"
	"time"
)

// DefaultTimeout bounds WaitDone.
const DefaultTimeout = 2 * time.Second

// WaitDone fails the test if ch is not closed within DefaultTimeout.
func WaitDone(t testing.TB, ch <-chan struct{}) {
	t.Helper()
	if ch == nil {
		t.Fatal("WaitDone: nil channel")
	}
	select {
	case <-ch:
	case <-time.After(DefaultTimeout):
		t.Fatal("WaitDone: timed out")
	}
}

// Eventually polls cond until it holds or DefaultTimeout passes.
func Eventually(t testing.TB, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(DefaultTimeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("Eventually: %s", msg)
}

// ExpectContains asserts that body contains substr.
func ExpectContains(t testing.TB, body, substr string) {
	t.Helper()
	if !strings.Contains(body, substr) {
		t.Errorf("expected output to contain %q, got:\n%s", substr, body)
	}
}

// ExpectNotContains asserts that body does not contain substr.
func ExpectNotContains(t testing.TB, body, substr string) {
	t.Helper()
	if strings.Contains(body, substr) {
		t.Errorf("expected output NOT to contain %q, got:\n%s", substr, body)
	}
}
