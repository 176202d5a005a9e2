// Package cli implements the taskboard terminal client. Every mutation goes
// through the same reconciler the web server uses.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yukikurage/taskboard-web/internal/config"
	"github.com/yukikurage/taskboard-web/internal/gateway"
	"github.com/yukikurage/taskboard-web/internal/logger"
)

const tokenEnv = "TASKBOARD_TOKEN"

type globalOptions struct {
	apiURL  string
	token   string
	timeout time.Duration
	verbose bool
}

func (o *globalOptions) client() *gateway.Client {
	return gateway.New(gateway.Config{BaseURL: o.apiURL, Timeout: o.timeout}).WithToken(o.token)
}

func (o *globalOptions) logger() *zap.Logger {
	if !o.verbose {
		return zap.NewNop()
	}
	return logger.New(logger.Config{Level: "debug", Encoding: "console"})
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	cfg := config.Load()
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "taskboard",
		Short: "Kanban board client",
		Long: `taskboard reads and edits the kanban board of a task API from the terminal.

Sign in with 'taskboard login' and export the printed token as ` + tokenEnv + `.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.apiURL, "api", cfg.APIBaseURL, "base URL of the task API")
	flags.StringVar(&opts.token, "token", os.Getenv(tokenEnv), "bearer token (defaults to $"+tokenEnv+")")
	flags.DurationVar(&opts.timeout, "timeout", cfg.APITimeout, "per-request timeout")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log requests and rollbacks")

	rootCmd.AddCommand(newLoginCmd(opts))
	rootCmd.AddCommand(newBoardCmd(opts))
	rootCmd.AddCommand(newAddCmd(opts))
	rootCmd.AddCommand(newEditCmd(opts))
	rootCmd.AddCommand(newMoveCmd(opts))
	rootCmd.AddCommand(newRmCmd(opts))
	return rootCmd
}

// Execute runs the root command
func Execute(version string) error {
	rootCmd := NewRootCmd()
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
