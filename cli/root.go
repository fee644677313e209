package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	envFile string
	rootCmd *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "payment-pipeline-api",
		Short: "Payment pipeline: validate, charge, notify, log",
		Long: `payment-pipeline-api validates customer and payment data, charges the card
through Stripe, notifies the customer by email or SMS and appends a line to the
transaction log.

Run "serve" for the HTTP API or "charge" to process a single transaction.
"notifications" lists and requeues confirmation jobs that ran out of retries.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "load environment from this file before reading config")
}

// Execute runs the root command
func Execute(version string) error {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chargeCmd)
	rootCmd.AddCommand(notificationsCmd)

	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
