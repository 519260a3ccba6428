package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/piwi3910/CargoLoad/internal/config"
	"github.com/piwi3910/CargoLoad/internal/handler"
)

func newTokenCmd(c *cli) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:     "token",
		Short:   "Issue an API bearer token",
		Long:    `Sign a bearer token for the API with CARGOLOAD_AUTH_SECRET.`,
		Example: `  CARGOLOAD_AUTH_SECRET=s3cret cargoload token --subject ci --ttl 720h`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if cfg.Auth.Secret == "" {
				return errors.New("CARGOLOAD_AUTH_SECRET is not set")
			}
			token, err := handler.NewToken(cfg.Auth.Secret, subject, ttl)
			if err != nil {
				return err
			}
			c.logger.Debug("token issued", "subject", subject, "ttl", ttl)
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "cargoload", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
