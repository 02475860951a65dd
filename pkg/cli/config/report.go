package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/materiality/pkg/domain/model"
	"github.com/secmon-lab/materiality/pkg/service/report"
	"github.com/urfave/cli/v3"
)

// Report holds CLI flags for report storage
type Report struct {
	bucket string
	prefix string
}

// Flags returns CLI flags for report configuration
func (r *Report) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "report-bucket",
			Usage:       "Cloud Storage bucket to upload rendered reports to. Upload is disabled if omitted",
			Category:    "Report",
			Sources:     cli.EnvVars("MATERIALITY_REPORT_BUCKET"),
			Destination: &r.bucket,
		},
		&cli.StringFlag{
			Name:        "report-prefix",
			Usage:       "Object name prefix of uploaded reports",
			Value:       "reports",
			Category:    "Report",
			Sources:     cli.EnvVars("MATERIALITY_REPORT_PREFIX"),
			Destination: &r.prefix,
		},
	}
}

// LogAttrs returns log attributes for the report configuration
func (r *Report) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("bucket", r.bucket),
		slog.String("prefix", r.prefix),
	}
}

// Configure builds the report service. The returned function releases the
// storage client and is never nil.
func (r *Report) Configure(ctx context.Context, catalog *model.Catalog) (*report.Service, func(), error) {
	if r.bucket == "" {
		return report.New(catalog), func() {}, nil
	}

	uploader, err := report.NewGCSUploader(ctx, r.bucket, r.prefix)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to create report uploader", goerr.V("bucket", r.bucket))
	}

	closer := func() { _ = uploader.Close() }
	return report.New(catalog, report.WithUploader(uploader)), closer, nil
}
