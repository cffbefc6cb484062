package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"chunkslate/internal/pkg/jwt"
)

var tokenOpts struct {
	subject string
	expiry  time.Duration
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an access token for the API",
	Long:  `Sign a bearer token with auth.jwt_secret. The API only checks tokens when the secret is set.`,
	RunE:  runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	flags := tokenCmd.Flags()
	flags.StringVar(&tokenOpts.subject, "subject", "cli", "token subject")
	flags.DurationVar(&tokenOpts.expiry, "expiry", 0, "token lifetime (default: auth.access_token_expiry)")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is not configured")
	}

	expiry := tokenOpts.expiry
	if expiry <= 0 {
		expiry = cfg.Auth.AccessTokenExpiry
	}

	token, err := jwt.NewJWT(cfg.Auth.JWTSecret, expiry).GenerateToken(tokenOpts.subject)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	fmt.Println(token)
	return nil
}
