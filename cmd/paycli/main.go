package main

import (
	"fmt"
	"os"
	"time"

	"paysync/internal/client"
	"paysync/internal/config"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cli carries settings shared by every subcommand
type cli struct {
	cfg     config.ClientCfg
	verbose bool
	timeout time.Duration
}

func (c *cli) client() *client.Client {
	return client.New(c.cfg.BaseURL, c.timeout)
}

func rootCmd() *cobra.Command {
	c := &cli{cfg: config.LoadClient()}

	cmd := &cobra.Command{
		Use:           "paycli",
		Short:         "paycli - create payments and follow their outcome",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := "warn"
			if c.verbose {
				level = "debug"
			}
			config.SetupLogging(config.AppCfg{Env: "development", LogLevel: level})
		},
	}

	cmd.PersistentFlags().StringVar(&c.cfg.BaseURL, "url", c.cfg.BaseURL, "paysync API base URL (PAYSYNC_URL)")
	cmd.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Debug logging")
	cmd.PersistentFlags().DurationVar(&c.timeout, "http-timeout", 30*time.Second, "Per-request HTTP timeout")

	cmd.AddCommand(payCmd(c))
	cmd.AddCommand(statusCmd(c))
	cmd.AddCommand(notifyCmd(c))
	return cmd
}
