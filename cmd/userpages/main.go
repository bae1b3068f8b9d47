package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/userpages/internal/app"
	"github.com/vango-dev/userpages/internal/config"
	"github.com/vango-dev/userpages/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╦ ╦┌─┐┌─┐┬─┐┌─┐┌─┐┌─┐┌─┐┌─┐
  ║ ║└─┐├┤ ├┬┘├─┘├─┤│ ┬├┤ └─┐
  ╚═╝└─┘└─┘┴└─┴  ┴ ┴└─┘└─┘└─┘
`

// globalFlags are shared by every command.
type globalFlags struct {
	dir       string
	logLevel  string
	logFormat string
	seed      uint64
	noColor   bool
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "userpages",
		Short: "Profile and user list pages over an unreliable backend",
		Long: `userpages serves a profile editor and a paginated user list backed
by mock services with configurable latency and failure rates.

Every load is tracked as Idle, Loading, Ready or Error, and stale
responses from superseded requests are dropped.

  • Server-rendered pages with live WebSocket updates
  • JSON snapshots of every controller
  • Prometheus metrics and OpenTelemetry traces`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flags.noColor {
				errors.DisableColors()
			}
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.dir, "dir", "C", ".", "Directory holding userpages.json and .env")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&flags.logFormat, "log-format", "", "Log format: text or json")
	pf.Uint64Var(&flags.seed, "seed", 0, "Seed for failure injection (0 = random)")
	pf.BoolVar(&flags.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		serveCmd(flags),
		profileCmd(flags),
		usersCmd(flags),
		configCmd(flags),
		versionCmd(),
	)
	return rootCmd
}

// loadConfig resolves the configuration and applies global flag overrides.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	cfg, err := config.Resolve(flags.dir)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Log.Format = flags.logFormat
	}
	if flags.seed != 0 {
		cfg.Seed = flags.seed
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the logger for cfg and installs it as the default.
func newLogger(cfg *config.Config, w io.Writer, flags *globalFlags) *slog.Logger {
	logger := app.NewLogger(cfg.Log, w, !flags.noColor)
	slog.SetDefault(logger)
	return logger
}

// printError prints err, using the coded format when available.
func printError(w io.Writer, err error) {
	var e *errors.Error
	if stderrors.As(err, &e) {
		fmt.Fprintln(w, e.Format())
		return
	}
	fmt.Fprintf(w, "%s %s\n", paint(ansiRed, "Error:"), err)
}

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
)

// paint wraps text in an ANSI color unless --no-color is set.
func paint(code, text string) string {
	if !errors.ColorsEnabled() {
		return text
	}
	return code + text + ansiReset
}

// printBanner prints the ASCII art banner.
func printBanner(w io.Writer) {
	fmt.Fprint(w, banner)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", paint(ansiGreen, "✓"), fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", paint(ansiYellow, "⚠"), fmt.Sprintf(format, args...))
}

// errorMsg prints an error message.
func errorMsg(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", paint(ansiRed, "✗"), fmt.Sprintf(format, args...))
}
