package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/userpages/internal/app"
	"github.com/vango-dev/userpages/internal/telemetry"
	"github.com/vango-dev/userpages/pkg/middleware"
	"github.com/vango-dev/userpages/pkg/profile"
	"github.com/vango-dev/userpages/pkg/server"
	"github.com/vango-dev/userpages/pkg/userlist"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server with the profile and user list pages.

Pages:
  /profile   edit the mock user's profile
  /users     browse the generated users

Examples:
  userpages serve
  userpages serve --port=9090
  USERPAGES_PROFILE_FAILURE_RATE=0 userpages serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, flags, host, port)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from config)")

	return cmd
}

func runServe(cmd *cobra.Command, flags *globalFlags, host string, port int) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Server.Port = port
	}
	if host != "" {
		cfg.Server.Host = host
	}

	out := cmd.OutOrStdout()
	logger := newLogger(cfg, cmd.ErrOrStderr(), flags)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("telemetry setup: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	metrics := middleware.NewMetrics()
	inst := middleware.NewInstrumenter(metrics, cfg.Telemetry.ServiceName)
	backends := app.NewBackends(cfg)

	srvCfg := server.DefaultConfig()
	srvCfg.Address = cfg.Address()
	srvCfg.SessionTTL = cfg.Server.SessionTTL.Std()

	srv := server.New(srvCfg,
		inst.ProfileService(backends.Profiles),
		inst.UserDirectory(backends.Users),
		cfg.Users.PerPage,
		server.WithLogger(logger),
		server.WithMetrics(metrics),
		server.WithProfileOptions(profile.WithRetry(cfg.Profile.AutoRetries, cfg.Profile.RetryDelay.Std())),
		server.WithUserListOptions(userlist.WithRetry(cfg.Users.AutoRetries, cfg.Users.RetryDelay.Std())),
		server.WithTracing(
			middleware.WithTracerName(cfg.Telemetry.ServiceName),
			middleware.WithSessionAttribute(server.SessionCookieName),
		),
	)

	printBanner(out)
	fmt.Fprintln(out, "  serve")
	fmt.Fprintln(out)
	success(out, "Listening on %s", cfg.URL())
	info(out, "Profile latency %s, failure rate %.0f%%", cfg.Profile.Latency, cfg.ProfileFailureRate()*100)
	info(out, "Users latency %s, failure rate %.0f%%, %d users", cfg.Users.Latency, cfg.UsersFailureRate()*100, cfg.Users.Count)
	if cfg.Telemetry.OTLPEndpoint != "" {
		info(out, "Exporting traces to %s", cfg.Telemetry.OTLPEndpoint)
	}
	fmt.Fprintln(out)

	if err := srv.Run(ctx); err != nil {
		errorMsg(cmd.ErrOrStderr(), "server stopped: %v", err)
		return err
	}
	fmt.Fprintln(out, "\n  Shut down.")
	return nil
}
