package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/materiality/pkg/domain/interfaces"
	"github.com/secmon-lab/materiality/pkg/repository/memory"
	"github.com/secmon-lab/materiality/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Backend names a storage of saved assessments
type Backend string

const (
	BackendFirestore Backend = "firestore"
	BackendMemory    Backend = "memory"
)

// Repository selects where saved assessments are stored
type Repository struct {
	backend   string
	firestore Firestore
}

func (r *Repository) Flags() []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "repository-backend",
			Usage:       "Storage of saved assessments (firestore or memory). Memory loses everything on restart",
			Value:       string(BackendFirestore),
			Sources:     cli.EnvVars("MATERIALITY_REPOSITORY_BACKEND"),
			Destination: &r.backend,
		},
	}
	r.firestore.WithUsage("Firestore Project ID (required for the firestore backend)")
	return append(flags, r.firestore.Flags()...)
}

func (r *Repository) Backend() Backend {
	return Backend(r.backend)
}

// Configure opens the selected backend. The caller closes the returned repository.
func (r *Repository) Configure(ctx context.Context) (interfaces.Repository, error) {
	switch r.Backend() {
	case BackendFirestore:
		repo, err := r.firestore.Open(ctx)
		if err != nil {
			return nil, err
		}
		logging.Default().LogAttrs(ctx, slog.LevelInfo, "Using Firestore repository", r.firestore.LogAttrs()...)
		return repo, nil

	case BackendMemory:
		logging.Default().Warn("Using in-memory repository, saved assessments are lost on restart")
		return memory.New(), nil

	default:
		return nil, goerr.Wrap(ErrInvalidConfig, "unknown repository backend", goerr.V("backend", r.backend))
	}
}
