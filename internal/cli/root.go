package cli

import (
	"errors"
	"fmt"
	"net/http"

	"fec_disbursements/internal/app"
	"fec_disbursements/internal/infra/config"
	"fec_disbursements/internal/infra/export"
	"fec_disbursements/internal/infra/fec"
	"fec_disbursements/internal/infra/logger"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitConfigError = 2
)

// NewRootCmd creates the fecexport command. Configuration is loaded inside RunE so a
// missing API key fails before any directory is created or request is sent.
func NewRootCmd() *cobra.Command {
	var (
		envFile   string
		outputDir string
		logLevel  string
	)

	cmd := &cobra.Command{
		Use:   "fecexport",
		Short: "Export AIPAC PAC disbursements from the FEC API to CSV",
		Long: "fecexport pages through FEC Schedule B disbursements for the AIPAC PAC " +
			"in one two-year election cycle and saves them as a timestamped CSV file.",
		Example: `  # Export using FEC_API_KEY from the environment
  FEC_API_KEY=... fecexport

  # Write to a different directory with debug logging
  fecexport --output-dir exports --log-level debug`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var envFiles []string
			if envFile != "" {
				envFiles = append(envFiles, envFile)
			}
			cfg, err := config.Load(envFiles...)
			if err != nil {
				return err
			}
			if outputDir != "" {
				cfg.OutputDir = outputDir
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}

			logger.InitWithOutput(cfg, cmd.ErrOrStderr())
			logger.Log.WithFields(logrus.Fields{
				"cycle":      cfg.Cycle,
				"output_dir": cfg.OutputDir,
				"env":        cfg.Environment,
			}).Info("Configuration loaded")

			client := fec.NewClient(cfg.APIKey,
				fec.WithBaseURL(cfg.APIURL),
				fec.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
				fec.WithLogger(logger.Component("fec_client")),
			)
			exporter := export.NewCSVExporter(
				export.WithBOM(cfg.UTF8BOM),
				export.WithLogger(logger.Component("csv_exporter")),
			)
			svc := app.NewExportService(client, exporter, cfg.OutputDir, logger.Component("export_service"))

			res, err := svc.Run(cmd.Context(), cfg.Cycle)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Saved data to %s\n", res.Path)
			return nil
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "load variables from this file instead of ./.env")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "directory for the CSV export (overrides OUTPUT_DIR)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides LOG_LEVEL)")

	return cmd
}

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var cfgErr *config.Error
	if errors.As(err, &cfgErr) {
		return ExitConfigError
	}
	return ExitFailure
}
