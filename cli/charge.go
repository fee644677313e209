package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"payment-pipeline-api/models"
	"payment-pipeline-api/utils"
)

var (
	chargeName   string
	chargeEmail  string
	chargePhone  string
	chargeAmount int64
	chargeSource string
	chargeLog    string
)

var chargeCmd = &cobra.Command{
	Use:   "charge",
	Short: "Process a single transaction and print the resulting charge",
	Example: `  payment-pipeline-api charge --name "Platzi Python" --phone 1234567890 --amount 130 --source tok_mastercard
  payment-pipeline-api charge --name Andres --email andres@example.com --amount 123 --source tok_visa --log /tmp/tx.log`,
	RunE: runCharge,
}

func init() {
	chargeCmd.Flags().StringVar(&chargeName, "name", "", "customer name (required)")
	chargeCmd.Flags().StringVar(&chargeEmail, "email", "", "customer email for the confirmation")
	chargeCmd.Flags().StringVar(&chargePhone, "phone", "", "customer phone for the confirmation")
	chargeCmd.Flags().Int64Var(&chargeAmount, "amount", 0, "amount in cents (required)")
	chargeCmd.Flags().StringVar(&chargeSource, "source", "", "tokenized payment source (required)")
	chargeCmd.Flags().StringVar(&chargeLog, "log", "", "transaction log file (defaults to TRANSACTION_LOG)")
}

func runCharge(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	// one-off runs notify inline and skip Redis
	cfg.NotifyAsync = false
	a, err := newApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	customer := models.CustomerData{
		Name:        chargeName,
		ContactInfo: &models.ContactInfo{Email: chargeEmail, Phone: chargePhone},
	}
	pay := models.PaymentData{Amount: chargeAmount, Source: chargeSource}

	charge, err := a.service.ProcessTransaction(ctx, customer, pay, chargeLog)
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	out := models.TransactionResponse{
		ChargeID:      charge.ID,
		Status:        charge.Status.String(),
		Description:   charge.Description,
		Amount:        charge.Amount,
		DisplayAmount: utils.FormatAmount(charge.Amount, charge.Currency),
		Currency:      charge.Currency,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
