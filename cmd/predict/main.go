package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Alias1177/ChurnPredictor/internal/api/scoring"
	"github.com/Alias1177/ChurnPredictor/internal/config"
	"github.com/Alias1177/ChurnPredictor/internal/controller"
	"github.com/Alias1177/ChurnPredictor/internal/model"
	"github.com/Alias1177/ChurnPredictor/internal/render"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type flags struct {
	recency   string
	frequency string
	monetary  string
	baseURL   string
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:           "predict",
		Short:         "Score one customer against the churn prediction service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			lvl, err := zerolog.ParseLevel(cfg.LogLevel)
			if err != nil {
				lvl = zerolog.InfoLevel
			}
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)

			if f.baseURL != "" {
				cfg.ScoringBaseURL = f.baseURL
			}
			scorer := scoring.NewClient(scoring.ClientOptions{
				BaseURL:        cfg.ScoringBaseURL,
				RequestTimeout: cfg.Timeout(),
				RequestsPerSec: cfg.RequestsPerSec,
			})
			opts := render.Options{
				HighRiskProbability: cfg.HighRiskProbability,
				VIPMonetary:         cfg.VIPMonetary,
			}
			return run(cmd.Context(), scorer, f, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&f.recency, "recency", "10", "days since the customer's last purchase")
	cmd.Flags().StringVar(&f.frequency, "frequency", "5", "total number of purchases")
	cmd.Flags().StringVar(&f.monetary, "monetary", "500", "total spend")
	cmd.Flags().StringVar(&f.baseURL, "base-url", "", "scoring service address (overrides SCORING_BASE_URL)")
	return cmd
}

func run(ctx context.Context, scorer scoring.Scorer, f flags, opts render.Options, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}

	ctrl := controller.New(scorer, controller.AlertFunc(func(message string) {
		fmt.Fprintln(cmd.ErrOrStderr(), message)
	}))
	defer ctrl.Close()

	for field, raw := range map[model.Field]string{
		model.FieldRecency:   f.recency,
		model.FieldFrequency: f.frequency,
		model.FieldMonetary:  f.monetary,
	} {
		if err := ctrl.SetValue(field, raw); err != nil {
			return err
		}
	}

	outcome, _ := ctrl.Submit(ctx)
	if outcome.Kind != model.OutcomeSuccess {
		return errors.New(outcome.Reason)
	}

	view := render.Render(ctrl.State(), opts)
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", view.Result.Headline(), view.Result.Summary())
	if view.Result.HighRiskVIP {
		fmt.Fprintln(cmd.OutOrStdout(), "High-risk VIP customer.")
	}
	return nil
}
