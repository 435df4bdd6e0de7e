package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/infrastructure/auth"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an API bearer token for a tenant",
	Example: `  ledgerctl token --tenant 0b6c5a0e-3d7f-4c47-9a43-7f0a1d7e9b21
  ledgerctl token --tenant $TENANT --user $USER --username alice --ttl 2h`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().String("tenant", "", "tenant ID (required)")
	tokenCmd.Flags().String("user", "", "user ID (default: a new random ID)")
	tokenCmd.Flags().String("username", "ledgerctl", "username claim")
	tokenCmd.Flags().Duration("ttl", 0, "token lifetime (default: jwt.token_expiration)")
	_ = tokenCmd.MarkFlagRequired("tenant")
}

func runToken(cmd *cobra.Command, args []string) error {
	tenantRaw, _ := cmd.Flags().GetString("tenant")
	userRaw, _ := cmd.Flags().GetString("user")
	username, _ := cmd.Flags().GetString("username")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	tenantID, err := uuid.Parse(tenantRaw)
	if err != nil {
		return fmt.Errorf("invalid --tenant: %w", err)
	}
	userID := uuid.New()
	if userRaw != "" {
		if userID, err = uuid.Parse(userRaw); err != nil {
			return fmt.Errorf("invalid --user: %w", err)
		}
	}

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	token, expiresAt, err := auth.NewJWTService(cfg.JWT).Mint(auth.TokenInput{
		TenantID: tenantID,
		UserID:   userID,
		Username: username,
		TTL:      ttl,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expiresAt.Format(time.RFC3339))
	return nil
}
