package main

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	notificationapp "github.com/ledgerly/backend/internal/application/notification"
	"github.com/spf13/cobra"
)

var dueCheckCmd = &cobra.Command{
	Use:   "due-check",
	Short: "Create due and overdue reminders now",
	Long: `due-check runs the daily reminder job. Each tenant is checked at most
once per business day unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tenantID, err := tenantFlag(cmd)
		if err != nil {
			return err
		}
		force, _ := cmd.Flags().GetBool("force")

		a, err := openApp(cmd.Context(), openOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.Reminders.RunDueCheck(cmd.Context(), notificationapp.DueCheckOptions{
			TenantID: tenantID,
			Force:    force,
		})
		if err != nil {
			return err
		}
		return printJSON(cmd, result)
	},
}

var weeklySummaryCmd = &cobra.Command{
	Use:   "weekly-summary",
	Short: "Send the weekly outstanding summary now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tenantID, err := tenantFlag(cmd)
		if err != nil {
			return err
		}

		a, err := openApp(cmd.Context(), openOptions{})
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.Reminders.SendWeeklySummaries(cmd.Context(), tenantID)
		if err != nil {
			return err
		}
		return printJSON(cmd, result)
	},
}

func init() {
	rootCmd.AddCommand(dueCheckCmd, weeklySummaryCmd)

	dueCheckCmd.Flags().String("tenant", "", "only check this tenant (default: every tenant with open invoices)")
	dueCheckCmd.Flags().Bool("force", false, "run even if the tenant was already checked today")
	weeklySummaryCmd.Flags().String("tenant", "", "only summarize this tenant")
}

// tenantFlag returns the optional --tenant flag
func tenantFlag(cmd *cobra.Command) (*uuid.UUID, error) {
	raw, _ := cmd.Flags().GetString("tenant")
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid --tenant: %w", err)
	}
	return &id, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
