package vtest

import (
	"context"
	"errors"
	"testing"

	"github.com/vango-dev/userpages/pkg/model"
)

func TestProfileServiceScript(t *testing.T) {
	svc := NewProfileService(model.UserProfile{Name: "A", Email: "a@x"})
	svc.FailNextFetch(errors.New("down"))

	if _, err := svc.FetchUserProfile(context.Background()); err == nil {
		t.Fatal("first fetch should fail")
	}
	p, err := svc.FetchUserProfile(context.Background())
	if err != nil || p.Name != "A" {
		t.Fatalf("second fetch = %+v, %v", p, err)
	}
	if svc.FetchCalls() != 2 {
		t.Errorf("FetchCalls() = %d, want 2", svc.FetchCalls())
	}
}

func TestProfileServiceHold(t *testing.T) {
	svc := NewProfileService(model.UserProfile{})
	gate := svc.HoldFetches()

	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.FetchUserProfile(context.Background())
	}()

	select {
	case <-done:
		t.Fatal("fetch should be held")
	default:
	}
	close(gate)
	WaitDone(t, done)
}

func TestUserDirectorySlices(t *testing.T) {
	users := []model.User{{ID: 1}, {ID: 2}, {ID: 3}}
	d := NewUserDirectory(users)

	page, err := d.FetchUsers(context.Background(), 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != 3 || page.TotalCount != 3 {
		t.Errorf("page = %+v", page)
	}
	if calls := d.Calls(); len(calls) != 1 || calls[0] != [2]int{2, 2} {
		t.Errorf("Calls() = %v", calls)
	}
}

func TestExpectContains(t *testing.T) {
	ExpectContains(t, "hello world", "world")
	ExpectNotContains(t, "hello world", "bye")
}
