package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/org-map-service/internal/config"
	"github.com/couchcryptid/org-map-service/internal/domain"
	"github.com/couchcryptid/org-map-service/internal/observability"
	"github.com/couchcryptid/org-map-service/internal/resolver"
)

var resolveOptions struct {
	town   string
	apiKey string
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Build the map of one town and print it as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if resolveOptions.apiKey != "" {
			cfg.PedasiAPIKey = resolveOptions.apiKey
		}

		logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
		metrics := observability.NewMetrics()

		var bar *progressbar.ProgressBar
		if isatty.IsTerminal(os.Stderr.Fd()) {
			bar = progressbar.NewOptions(-1,
				progressbar.OptionSetDescription("Geocoding "+resolveOptions.town),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}
		onSettle := func(domain.LookupOutcome) {
			if bar != nil {
				_ = bar.Add(1)
			}
		}

		svc := newService(cfg, nil, logger, metrics, resolver.WithSettleHook(onSettle))
		view, err := svc.BuildView(cmd.Context(), resolveOptions.town, domain.Credentials{Token: cfg.PedasiAPIKey})
		if bar != nil {
			_ = bar.Finish()
		}
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(view); err != nil {
			return fmt.Errorf("write view: %w", err)
		}
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveOptions.town, "town", "", "town whose organisations are mapped")
	resolveCmd.Flags().StringVar(&resolveOptions.apiKey, "api-key", "", "portal API key (overrides PEDASI_API_KEY)")
	_ = resolveCmd.MarkFlagRequired("town")
}
