package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/RestinGreen/fee-forwarder/pkg/general"
	"github.com/RestinGreen/fee-forwarder/pkg/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type cli struct {
	out       io.Writer
	envFile   string
	logLevel  string
	logFormat string
	logger    *zap.Logger
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out, logger: zap.NewNop()}

	root := &cobra.Command{
		Use:           "forwarder",
		Short:         "Convert protocol fees into the underlying asset and forward them",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.NewLogger(c.logLevel, c.logFormat)
			if err != nil {
				return err
			}
			c.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			c.logger.Sync()
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&c.envFile, "env", ".env", "dotenv file with the deployment settings")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", envOr("LOG_LEVEL", "info"), "debug, info, warn or error")
	root.PersistentFlags().StringVar(&c.logFormat, "log-format", envOr("LOG_FORMAT", "json"), "json or console")

	root.AddCommand(
		c.simulateCmd(),
		c.routesCmd(),
		c.quoteCmd(),
		c.balanceCmd(),
	)
	return root
}

// config reads the deployment settings; only commands touching a real
// deployment need them.
func (c *cli) config() (*general.General, error) {
	return general.NewGeneral(c.envFile)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(os.Stdout).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
