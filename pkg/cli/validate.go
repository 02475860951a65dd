package cli

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/materiality/pkg/cli/config"
	"github.com/secmon-lab/materiality/pkg/usecase"
	"github.com/secmon-lab/materiality/pkg/utils/logging"
	"github.com/secmon-lab/materiality/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdValidate() *cli.Command {
	var catalogCfg config.Catalog
	var fsCfg config.Firestore

	fsCfg.WithUsage("Firestore Project ID. If set, saved assessments are checked against the catalog")
	flags := append(catalogCfg.Flags(), fsCfg.Flags()...)

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate catalog and threshold files and optionally check saved assessments",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			// Step 1: Load and validate configuration files
			catalog, err := catalogCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "catalog validation failed")
			}
			logger.Info("Catalog validation passed",
				"path", catalogCfg.CatalogPath(),
				"industries", len(catalog.Industries()),
				"topics", len(catalog.Topics()),
			)

			thresholds, err := catalogCfg.Thresholds()
			if err != nil {
				return goerr.Wrap(err, "threshold validation failed")
			}
			if thresholds != nil {
				logger.Info("Threshold validation passed",
					"path", catalogCfg.ThresholdsPath(),
					"labels", thresholds.Labels(),
				)
			}

			// Step 2: If Firestore project ID is specified, run DB consistency check
			if !fsCfg.Enabled() {
				logger.Info("No Firestore project ID specified, skipping DB consistency check")
				return nil
			}

			repo, err := fsCfg.Open(ctx)
			if err != nil {
				return err
			}
			defer safe.Close(ctx, repo, "repository")
			logger.LogAttrs(ctx, slog.LevelInfo, "Checking saved assessments", fsCfg.LogAttrs()...)

			uc := usecase.New(repo, usecase.WithCatalog(catalog))
			issues, err := uc.Registry.CheckConsistency(ctx)
			if err != nil {
				return goerr.Wrap(err, "DB consistency check failed")
			}

			if len(issues) > 0 {
				for _, issue := range issues {
					logger.Warn("DB consistency issue found",
						"assessment_id", issue.AssessmentID,
						"message", issue.Message,
						"value", issue.Value,
					)
				}

				return goerr.New("DB consistency check found issues", goerr.V("count", len(issues)))
			}

			logger.Info("DB consistency check passed")
			return nil
		},
	}
}
