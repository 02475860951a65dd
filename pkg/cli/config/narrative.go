package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/secmon-lab/materiality/pkg/domain/interfaces"
	"github.com/secmon-lab/materiality/pkg/service/narrative"
	"github.com/secmon-lab/materiality/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Narrative configures the Gemini backed risk narrative suggestions
type Narrative struct {
	projectID string
	location  string
	timeout   time.Duration
}

func (n *Narrative) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini API. Suggestions return a fixed message if empty",
			Sources:     cli.EnvVars("MATERIALITY_GEMINI_PROJECT"),
			Destination: &n.projectID,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini API",
			Value:       "us-central1",
			Sources:     cli.EnvVars("MATERIALITY_GEMINI_LOCATION"),
			Destination: &n.location,
		},
		&cli.DurationFlag{
			Name:        "narrative-timeout",
			Usage:       "Maximum wait for a narrative suggestion before the fallback text is returned",
			Value:       usecase.DefaultNarrativeTimeout,
			Sources:     cli.EnvVars("MATERIALITY_NARRATIVE_TIMEOUT"),
			Destination: &n.timeout,
		},
	}
}

func (n *Narrative) Enabled() bool {
	return n.projectID != ""
}

func (n *Narrative) Timeout() time.Duration {
	return n.timeout
}

func (n *Narrative) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("project_id", n.projectID),
		slog.String("location", n.location),
		slog.Duration("timeout", n.timeout),
	}
}

// Configure returns the narrative service, or nil when no Gemini project is set
func (n *Narrative) Configure(ctx context.Context) (interfaces.NarrativeService, error) {
	if !n.Enabled() {
		return nil, nil
	}
	if n.timeout < 0 {
		return nil, goerr.Wrap(ErrInvalidConfig, "narrative timeout must not be negative", goerr.V("timeout", n.timeout))
	}

	client, err := gemini.New(ctx, n.projectID, n.location)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Gemini client",
			goerr.V("project_id", n.projectID), goerr.V("location", n.location))
	}

	svc, err := narrative.New(client)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create narrative service")
	}
	return svc, nil
}
