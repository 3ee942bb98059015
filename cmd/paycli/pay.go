package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"paysync/internal/client"
	"paysync/internal/domain/payment"
	"paysync/internal/poller"

	"github.com/spf13/cobra"
)

func payCmd(c *cli) *cobra.Command {
	var (
		req    client.CreatePaymentReq
		noWait bool
	)
	cmd := &cobra.Command{
		Use:   "pay",
		Short: "Create a payment and wait for its outcome",
		Long: `Create a payment attempt, print the client secret used to confirm it,
then poll the status endpoint until the processor reports an outcome.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			api := c.client()
			out, err := api.CreatePayment(ctx, req)
			if err != nil {
				return fmt.Errorf("create payment: %w", err)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Attempt:       %s\n", out.AttemptID)
			fmt.Fprintf(w, "Client secret: %s\n", out.ClientSecret)
			if noWait {
				return nil
			}

			fmt.Fprintln(w, "Waiting for confirmation...")
			return waitFor(ctx, w, api, c, out.AttemptID)
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "Payer name")
	cmd.Flags().StringVar(&req.Email, "email", "", "Payer email")
	cmd.Flags().StringVar(&req.Amount, "amount", "", "Amount in major units, e.g. 12.34")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Return after creating the attempt")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

// waitFor polls until the attempt resolves and reports the outcome
func waitFor(ctx context.Context, w io.Writer, source poller.StatusSource, c *cli, attemptID string) error {
	p := poller.New(source, poller.Options{
		Interval:    c.cfg.Poll.Interval,
		Timeout:     c.cfg.Poll.Timeout,
		MaxAttempts: c.cfg.Poll.MaxAttempts,
		OnStatus: func(n int, s payment.Status) {
			if c.verbose {
				fmt.Fprintf(w, "  [%d] %s\n", n, s)
			}
		},
	})
	task, err := p.Start(ctx, attemptID)
	if err != nil {
		return err
	}

	res := task.Wait()
	switch res.Outcome {
	case poller.OutcomeSucceeded:
		fmt.Fprintln(w, "Payment succeeded.")
		return nil
	case poller.OutcomeFailed:
		return fmt.Errorf("payment failed: %s", res.Status)
	case poller.OutcomeCancelled:
		return fmt.Errorf("stopped waiting for %s", attemptID)
	default:
		return fmt.Errorf("no outcome yet: %w", res.Err)
	}
}
