package main

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/userpages/internal/config"
	apperrors "github.com/vango-dev/userpages/internal/errors"
	"github.com/vango-dev/userpages/pkg/model"
	"github.com/vango-dev/userpages/pkg/profile"
	"github.com/vango-dev/userpages/pkg/userlist"
	"github.com/vango-dev/userpages/pkg/vtest"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionShort(t *testing.T) {
	out, err := execute(t, "version", "--short")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != version {
		t.Errorf("output = %q, want %q", out, version)
	}
}

func TestConfigPrintsEffectiveConfig(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, config.ConfigFileName), []byte(`{"users": {"perPage": 20}}`), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "config", "--dir", dir, "--log-level", "debug")
	if err != nil {
		t.Fatalf("config error = %v", err)
	}
	var cfg config.Config
	if err := json.Unmarshal([]byte(out), &cfg); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if cfg.Users.PerPage != 20 {
		t.Errorf("Users.PerPage = %d, want 20", cfg.Users.PerPage)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
}

func TestConfigWrite(t *testing.T) {
	dir := t.TempDir()
	if _, err := execute(t, "config", "--dir", dir, "--write", "--format", "yaml"); err != nil {
		t.Fatalf("config --write error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, config.YAMLConfigFileName)); err != nil {
		t.Fatalf("yaml file not written: %v", err)
	}
	if _, err := execute(t, "config", "--dir", dir, "--write"); err == nil {
		t.Error("second write without --force should fail")
	}
}

func TestConfigRejectsInvalidLevel(t *testing.T) {
	_, err := execute(t, "config", "--dir", t.TempDir(), "--log-level", "loud")
	var e *apperrors.Error
	if !asAppError(err, &e) || e.Code != apperrors.CodeConfigInvalid {
		t.Errorf("error = %v, want %s", err, apperrors.CodeConfigInvalid)
	}
}

func TestParseSets(t *testing.T) {
	edits, err := parseSets([]string{"name=Ada Lovelace", " EMAIL =ada@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	want := []fieldEdit{{"name", "Ada Lovelace"}, {"email", "ada@example.com"}}
	if len(edits) != 2 || edits[0] != want[0] || edits[1] != want[1] {
		t.Errorf("edits = %v, want %v", edits, want)
	}

	if _, err := parseSets([]string{"name"}); err == nil {
		t.Error("missing '=' should fail")
	}
	if _, err := parseSets([]string{"age=3"}); err == nil {
		t.Error("unknown field should fail")
	}
}

func TestRunProfileRetriesThenSaves(t *testing.T) {
	svc := vtest.NewProfileService(model.UserProfile{Name: "Juan Carlos", Email: "juan@example.com"})
	svc.FailNextFetch(apperrors.New(apperrors.CodeFetchProfile))
	ctrl := profile.New(context.Background(), svc)

	var out bytes.Buffer
	err := runProfile(context.Background(), &out, ctrl, 1, []fieldEdit{{"name", "Ada"}})
	if err != nil {
		t.Fatalf("runProfile() error = %v\n%s", err, out.String())
	}

	vtest.ExpectContains(t, out.String(), "Error loading profile: Failed to fetch user profile (retry 1/1)")
	vtest.ExpectContains(t, out.String(), "Name:  Juan Carlos")
	vtest.ExpectContains(t, out.String(), "Profile updated successfully!")
	vtest.ExpectContains(t, out.String(), "Name:  Ada")
	if n := svc.FetchCalls(); n != 2 {
		t.Errorf("FetchCalls() = %d, want 2", n)
	}
}

func TestRunProfileGivesUp(t *testing.T) {
	svc := vtest.NewProfileService(model.UserProfile{})
	svc.FailNextFetch(apperrors.New(apperrors.CodeFetchProfile))
	ctrl := profile.New(context.Background(), svc)

	var out bytes.Buffer
	if err := runProfile(context.Background(), &out, ctrl, 0, nil); err == nil {
		t.Fatal("runProfile() should fail")
	}
	vtest.ExpectContains(t, out.String(), "Error loading profile")
}

func TestRunProfileSaveFailure(t *testing.T) {
	svc := vtest.NewProfileService(model.UserProfile{Name: "Juan"})
	svc.FailNextUpdate(apperrors.New(apperrors.CodeUpdateProfile))
	ctrl := profile.New(context.Background(), svc)

	var out bytes.Buffer
	err := runProfile(context.Background(), &out, ctrl, 0, []fieldEdit{{"email", "x@example.com"}})
	if err == nil {
		t.Fatal("runProfile() should fail")
	}
	vtest.ExpectContains(t, out.String(), "Failed to update profile")
}

func TestRunUsers(t *testing.T) {
	users := make([]model.User, 25)
	for i := range users {
		users[i] = model.User{ID: i + 1, Name: "User", Email: "user@example.com"}
	}
	dir := vtest.NewUserDirectory(users)
	ctrl := userlist.New(context.Background(), dir, userlist.WithPerPage(10))

	var out bytes.Buffer
	if err := runUsers(context.Background(), &out, ctrl, 9, 0); err != nil {
		t.Fatalf("runUsers() error = %v", err)
	}
	vtest.ExpectContains(t, out.String(), "Page 3 of 3")
	vtest.ExpectContains(t, out.String(), "25")

	calls := dir.Calls()
	if len(calls) != 2 || calls[1] != [2]int{3, 10} {
		t.Errorf("calls = %v", calls)
	}
}

func TestRunUsersFirstPageSingleFetch(t *testing.T) {
	dir := vtest.NewUserDirectory([]model.User{{ID: 1, Name: "A", Email: "a@example.com"}})
	ctrl := userlist.New(context.Background(), dir)

	var out bytes.Buffer
	if err := runUsers(context.Background(), &out, ctrl, 1, 0); err != nil {
		t.Fatal(err)
	}
	if n := len(dir.Calls()); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
	vtest.ExpectContains(t, out.String(), "Page 1 of 1")
}

func asAppError(err error, target **apperrors.Error) bool {
	return stderrors.As(err, target)
}

func TestRunUsersClampsAfterFailedFirstLoad(t *testing.T) {
	users := make([]model.User, 100)
	for i := range users {
		users[i] = model.User{ID: i + 1, Name: "User", Email: "user@example.com"}
	}

	t.Run("no retries", func(t *testing.T) {
		dir := vtest.NewUserDirectory(users)
		dir.FailNext(apperrors.New(apperrors.CodeFetchUsers))
		ctrl := userlist.New(context.Background(), dir, userlist.WithPerPage(10))

		var out bytes.Buffer
		if err := runUsers(context.Background(), &out, ctrl, 50, 0); err == nil {
			t.Fatal("runUsers() should fail")
		}
		if p := ctrl.Page(); p < 1 || p > ctrl.TotalPages() {
			t.Errorf("Page() = %d outside [1, %d]", p, ctrl.TotalPages())
		}
		if calls := dir.Calls(); len(calls) != 1 {
			t.Errorf("calls = %v, want only the first page", calls)
		}
		vtest.ExpectContains(t, out.String(), "Error: Failed to fetch users")
	})

	t.Run("retry then clamp", func(t *testing.T) {
		dir := vtest.NewUserDirectory(users)
		dir.FailNext(apperrors.New(apperrors.CodeFetchUsers))
		ctrl := userlist.New(context.Background(), dir, userlist.WithPerPage(10))

		var out bytes.Buffer
		if err := runUsers(context.Background(), &out, ctrl, 50, 1); err != nil {
			t.Fatalf("runUsers() error = %v\n%s", err, out.String())
		}
		vtest.ExpectContains(t, out.String(), "Page 10 of 10")
		want := [][2]int{{1, 10}, {1, 10}, {10, 10}}
		calls := dir.Calls()
		if len(calls) != len(want) {
			t.Fatalf("calls = %v, want %v", calls, want)
		}
		for i := range want {
			if calls[i] != want[i] {
				t.Errorf("calls[%d] = %v, want %v", i, calls[i], want[i])
			}
		}
	})
}

func TestNoColorFlag(t *testing.T) {
	t.Cleanup(apperrors.EnableColors)

	var buf bytes.Buffer
	success(&buf, "ok")
	vtest.ExpectContains(t, buf.String(), "\033[32m")

	out, err := execute(t, "config", "--dir", t.TempDir(), "--write", "--no-color")
	if err != nil {
		t.Fatal(err)
	}
	vtest.ExpectContains(t, out, "✓ Wrote ")
	vtest.ExpectNotContains(t, out, "\033[")

	buf.Reset()
	warn(&buf, "careful")
	errorMsg(&buf, "broken")
	printError(&buf, stderrors.New("plain"))
	printError(&buf, apperrors.New(apperrors.CodeCLI))
	vtest.ExpectNotContains(t, buf.String(), "\033[")
	vtest.ExpectContains(t, buf.String(), "Error: plain")
}
