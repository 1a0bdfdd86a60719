package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	appanalysis "github.com/bryanwahyu/repo-audit/internal/application/analysis"
	"github.com/bryanwahyu/repo-audit/internal/bootstrap"
	"github.com/bryanwahyu/repo-audit/internal/config"
	domain "github.com/bryanwahyu/repo-audit/internal/domain/analysis"
	"github.com/bryanwahyu/repo-audit/internal/middleware"
)

// analyzeFunc runs one analysis with the config at configPath.
type analyzeFunc func(ctx context.Context, configPath, url string) (appanalysis.AnalyzeResult, error)

func newAnalyzeCommand(analyze analyzeFunc) *cobra.Command {
	var (
		configPath  string
		reportOnly  bool
		failOnClone bool
	)
	cmd := &cobra.Command{
		Use:   "analyze <repository-url>",
		Short: "Clone a repository, run the analyzers and summarize the findings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := middleware.SanitizeString(args[0])
			if err := middleware.ValidateRepoURL(url); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			res, err := analyze(ctx, configPath, url)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			var out any = res
			if reportOnly {
				out = res.Report
			}
			if err := enc.Encode(out); err != nil {
				return err
			}
			if failOnClone && res.Status == domain.RunCloneFailed {
				return fmt.Errorf("clone failed for %s", url)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", envOr("CONFIG_PATH", "config.yaml"), "path to config.yaml")
	cmd.Flags().BoolVar(&reportOnly, "report-only", false, "print only the slot -> text report")
	cmd.Flags().BoolVar(&failOnClone, "fail-on-clone-error", true, "exit non-zero when the clone fails")
	return cmd
}

func serviceAnalyzer(ctx context.Context, configPath, url string) (appanalysis.AnalyzeResult, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return appanalysis.AnalyzeResult{}, err
	}
	app, err := bootstrap.Build(ctx, cfg, false)
	if err != nil {
		return appanalysis.AnalyzeResult{}, err
	}
	defer app.Close()
	return app.Service.Analyze(ctx, appanalysis.AnalyzeCommand{RepositoryURL: url}), nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
