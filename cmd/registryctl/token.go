package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	jwttoken "docregistry/internal/jwt_token"
	id "docregistry/pkg/domain"
)

type tokenOutput struct {
	Token     string            `json:"token"`
	Type      string            `json:"type"`
	ExpiresIn string            `json:"expires_in"`
	Claims    map[string]string `json:"claims"`
	Usage     map[string]string `json:"usage"`
}

// newTokenCmd signs a bearer token for local testing. The account does not have to exist.
func newTokenCmd() *cobra.Command {
	var (
		signingKey string
		accountID  string
		role       string
		name       string
		ttl        time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for local testing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if signingKey == "" {
				return fmt.Errorf("--signing-key or JWT_SIGNING_KEY is required")
			}

			principal := id.Principal{Role: id.Role(role), Name: name}
			if accountID == "" {
				principal.AccountID = id.NewAccountID()
			} else {
				parsed, err := id.ParseAccountID(accountID)
				if err != nil {
					return err
				}
				principal.AccountID = parsed
			}

			svc := jwttoken.NewJWTService(signingKey, ttl)
			token, err := svc.IssueToken(context.Background(), principal)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(tokenOutput{
				Token:     token,
				Type:      "Bearer",
				ExpiresIn: svc.TTL().String(),
				Claims: map[string]string{
					"account_id": principal.AccountID.String(),
					"role":       principal.Role.String(),
					"name":       principal.Name,
				},
				Usage: map[string]string{
					"curl": fmt.Sprintf("curl -H 'Authorization: Bearer %s' http://localhost:8080/api/documents", token),
				},
			})
		},
	}

	cmd.Flags().StringVar(&signingKey, "signing-key", os.Getenv("JWT_SIGNING_KEY"), "HMAC signing key (defaults to $JWT_SIGNING_KEY)")
	cmd.Flags().StringVar(&accountID, "account-id", "", "account id (uuid); generated if empty")
	cmd.Flags().StringVar(&role, "role", string(id.RoleCitizen), "citizen or institution")
	cmd.Flags().StringVar(&name, "name", "Dev User", "display name carried in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", jwttoken.DefaultTokenTTL, "token lifetime")
	return cmd
}
