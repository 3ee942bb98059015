package main

import (
	"fmt"
	"time"

	"paysync/internal/provider/stripe"

	"github.com/spf13/cobra"
)

var outcomeEvents = map[string]string{
	"succeeded": stripe.EventPaymentIntentSucceeded,
	"failed":    stripe.EventPaymentIntentPaymentFailed,
	"canceled":  stripe.EventPaymentIntentCanceled,
}

func notifyCmd(c *cli) *cobra.Command {
	var (
		outcome string
		secret  string
	)
	cmd := &cobra.Command{
		Use:   "notify [attempt-id]",
		Short: "Send a signed test notification to a local server",
		Long: `Build a payment_intent event for the attempt, sign it with the webhook
secret and post it to the webhook endpoint, as the processor would.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eventType, ok := outcomeEvents[outcome]
			if !ok {
				eventType = outcome
			}
			if secret == "" {
				return fmt.Errorf("webhook secret is required (--secret or STRIPE_WEBHOOK_SECRET)")
			}

			now := time.Now()
			body, err := stripe.NotificationBody(fmt.Sprintf("evt_local_%d", now.UnixNano()), eventType, args[0], now)
			if err != nil {
				return err
			}
			if err := c.client().Notify(cmd.Context(), body, stripe.SignPayload(body, secret, now)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Delivered %s for %s\n", eventType, args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&outcome, "outcome", "o", "succeeded", "succeeded, failed, canceled or a raw event type")
	cmd.Flags().StringVar(&secret, "secret", c.cfg.WebhookSecret, "Webhook signing secret")
	return cmd
}
