package cli

import (
	"fmt"

	"github.com/hydromet/meteosat/internal/logger"
	"github.com/hydromet/meteosat/pkg/imerg"
	"github.com/hydromet/meteosat/pkg/orchestrator"
	"github.com/spf13/cobra"
)

// NewLoginCmd creates the login command.
func NewLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Check the configured Earthdata credentials",
		Long: `Check the NASA Earthdata Login credentials used for IMERG downloads.
Credentials come from the earthdata section of the config file or from
METEOSAT_EARTHDATA_USERNAME, METEOSAT_EARTHDATA_PASSWORD and
METEOSAT_EARTHDATA_TOKEN.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			opts := []orchestrator.Option{orchestrator.WithDownloadOptions(cfg.DownloadOptions())}
			if a := cfg.Earthdata.Authenticator(); a != nil {
				opts = append(opts, orchestrator.WithAuthenticator(a))
			}
			client, err := imerg.New(cfg.Earthdata.Username, cfg.Earthdata.Password, opts...)
			if err != nil {
				return err
			}
			if err := client.Login(cmd.Context()); err != nil {
				return fmt.Errorf("earthdata login failed: %w", err)
			}
			logger.Success("Earthdata credentials accepted")
			return nil
		},
	}
}
