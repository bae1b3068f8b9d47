package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/userpages/internal/app"
	"github.com/vango-dev/userpages/internal/errors"
	"github.com/vango-dev/userpages/pkg/model"
	"github.com/vango-dev/userpages/pkg/resource"
	"github.com/vango-dev/userpages/pkg/userlist"
)

func usersCmd(flags *globalFlags) *cobra.Command {
	var (
		page    int
		perPage int
		retries int
	)

	cmd := &cobra.Command{
		Use:   "users",
		Short: "Print one page of the user list",
		Long: `Load one page of the generated users and print it as a table.

Examples:
  userpages users
  userpages users --page 3
  userpages users --page 2 --per-page 25`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if page < 1 {
				return errors.New(errors.CodeInvalidPage).
					WithDetail(fmt.Sprintf("--page %d", page)).
					WithSuggestion("Pages start at 1")
			}
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if perPage > 0 {
				cfg.Users.PerPage = perPage
			}
			logger := newLogger(cfg, cmd.ErrOrStderr(), flags)
			backends := app.NewBackends(cfg)

			ctrl := userlist.New(cmd.Context(), backends.Users,
				userlist.WithPerPage(cfg.Users.PerPage),
				userlist.WithLogger(logger),
				userlist.WithRetry(cfg.Users.AutoRetries, cfg.Users.RetryDelay.Std()),
			)
			return runUsers(cmd.Context(), cmd.OutOrStdout(), ctrl, page, retries)
		},
	}

	cmd.Flags().IntVarP(&page, "page", "n", 1, "Page to load")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "Users per page (default from config)")
	cmd.Flags().IntVarP(&retries, "retry", "r", 0, "Retry a failed load up to N times")

	return cmd
}

// runUsers waits for the first page, then loads the requested page clamped
// to the known page range. Failed loads share one retry budget.
func runUsers(ctx context.Context, w io.Writer, ctrl *userlist.Controller, page, retries int) error {
	<-ctrl.Settled()
	state := ctrl.Snapshot().Load
	attempt := 0
	retry := func() {
		for ; state.Status == resource.Error && attempt < retries; attempt++ {
			warn(w, "Error: %s (retry %d/%d)", state.Message, attempt+1, retries)
			state = ctrl.Retry(ctx)
		}
	}

	retry()
	if state.Status == resource.Ready {
		if target := min(page, ctrl.TotalPages()); target != ctrl.Page() {
			state = ctrl.LoadPage(ctx, target)
			retry()
		}
	}

	result, ok := state.Get()
	if !ok {
		errorMsg(w, "Error: %s", state.Message)
		return errors.New(errors.CodeFetchUsers).WithDetail(state.Message)
	}
	printUsers(w, result.Items)
	info(w, "Page %d of %d", ctrl.Page(), ctrl.TotalPages())
	return nil
}

func printUsers(w io.Writer, users []model.User) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  ID\tNAME\tEMAIL")
	for _, u := range users {
		fmt.Fprintf(tw, "  %d\t%s\t%s\n", u.ID, u.Name, u.Email)
	}
	tw.Flush()
}
