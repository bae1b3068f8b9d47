package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/userpages/internal/app"
	"github.com/vango-dev/userpages/internal/errors"
	"github.com/vango-dev/userpages/pkg/action"
	"github.com/vango-dev/userpages/pkg/model"
	"github.com/vango-dev/userpages/pkg/profile"
	"github.com/vango-dev/userpages/pkg/resource"
)

func profileCmd(flags *globalFlags) *cobra.Command {
	var (
		retries int
		sets    []string
	)

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Load the profile and optionally save edits",
		Long: `Load the mock user profile and print it.

With --set, the given fields are edited and saved once the profile
is loaded. A failed load is retried up to --retry times.

Examples:
  userpages profile
  userpages profile --retry 3
  userpages profile --set name="Ada Lovelace" --set email=ada@example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			edits, err := parseSets(sets)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			logger := newLogger(cfg, cmd.ErrOrStderr(), flags)
			backends := app.NewBackends(cfg)

			ctrl := profile.New(cmd.Context(), backends.Profiles,
				profile.WithLogger(logger),
				profile.WithRetry(cfg.Profile.AutoRetries, cfg.Profile.RetryDelay.Std()),
			)
			return runProfile(cmd.Context(), cmd.OutOrStdout(), ctrl, retries, edits)
		},
	}

	cmd.Flags().IntVarP(&retries, "retry", "r", 0, "Retry a failed load up to N times")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Edit a field before saving (name=value or email=value)")

	return cmd
}

type fieldEdit struct {
	field, value string
}

func parseSets(sets []string) ([]fieldEdit, error) {
	edits := make([]fieldEdit, 0, len(sets))
	for _, s := range sets {
		field, value, ok := strings.Cut(s, "=")
		if !ok {
			return nil, errors.New(errors.CodeCLI).
				WithDetail(fmt.Sprintf("--set %q is not field=value", s))
		}
		field = strings.ToLower(strings.TrimSpace(field))
		if field != model.FieldName && field != model.FieldEmail {
			return nil, errors.New(errors.CodeUnknownField).
				WithDetail(fmt.Sprintf("field %q", field)).
				WithSuggestion("Use name or email")
		}
		edits = append(edits, fieldEdit{field: field, value: value})
	}
	return edits, nil
}

func runProfile(ctx context.Context, w io.Writer, ctrl *profile.Controller, retries int, edits []fieldEdit) error {
	<-ctrl.Settled()
	state := ctrl.Snapshot().Load
	for attempt := 0; state.Status == resource.Error && attempt < retries; attempt++ {
		warn(w, "Error loading profile: %s (retry %d/%d)", state.Message, attempt+1, retries)
		state = ctrl.LoadProfile(ctx)
	}

	p, ok := state.Get()
	if !ok {
		errorMsg(w, "Error loading profile: %s", state.Message)
		return errors.New(errors.CodeFetchProfile).WithDetail(state.Message)
	}
	printProfile(w, p)

	if len(edits) == 0 {
		return nil
	}
	for _, e := range edits {
		if _, err := ctrl.EditField(e.field, e.value); err != nil {
			return err
		}
	}
	save, err := ctrl.Submit(ctx)
	if err != nil {
		return err
	}
	if save.Status == action.Failed {
		errorMsg(w, "%s", save.Message)
		return errors.New(errors.CodeUpdateProfile).WithDetail(save.Message)
	}
	success(w, "%s", save.Message)
	if p, ok := ctrl.Snapshot().Load.Get(); ok {
		printProfile(w, p)
	}
	return nil
}

func printProfile(w io.Writer, p model.UserProfile) {
	info(w, "Name:  %s", p.Name)
	info(w, "Email: %s", p.Email)
}
