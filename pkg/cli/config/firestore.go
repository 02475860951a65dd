package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/materiality/pkg/repository/firestore"
	"github.com/urfave/cli/v3"
)

// Firestore locates the database holding saved assessments. It is shared by
// serve, validate and migrate so all three address the same collections.
type Firestore struct {
	projectID        string
	databaseID       string
	collectionPrefix string
	usage            string
}

// Flags returns the Firestore flags. usage describes the project flag for the command at hand.
func (f *Firestore) Flags() []cli.Flag {
	usage := f.usage
	if usage == "" {
		usage = "Firestore Project ID"
	}
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       usage,
			Sources:     cli.EnvVars("MATERIALITY_FIRESTORE_PROJECT_ID"),
			Destination: &f.projectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore Database ID. The default database is used if empty",
			Sources:     cli.EnvVars("MATERIALITY_FIRESTORE_DATABASE_ID"),
			Destination: &f.databaseID,
		},
		&cli.StringFlag{
			Name:        "firestore-collection-prefix",
			Usage:       "Prefix of Firestore collection names, for sharing a database between environments",
			Sources:     cli.EnvVars("MATERIALITY_FIRESTORE_COLLECTION_PREFIX"),
			Destination: &f.collectionPrefix,
		},
	}
}

// WithUsage sets the description of the project flag
func (f *Firestore) WithUsage(usage string) *Firestore {
	f.usage = usage
	return f
}

func (f *Firestore) Enabled() bool {
	return f.projectID != ""
}

func (f *Firestore) ProjectID() string {
	return f.projectID
}

func (f *Firestore) DatabaseID() string {
	return f.databaseID
}

func (f *Firestore) CollectionPrefix() string {
	return f.collectionPrefix
}

func (f *Firestore) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("project_id", f.projectID),
		slog.String("database_id", f.databaseID),
		slog.String("collection_prefix", f.collectionPrefix),
	}
}

// Open connects to Firestore. The caller closes the returned repository.
func (f *Firestore) Open(ctx context.Context) (*firestore.Firestore, error) {
	if !f.Enabled() {
		return nil, goerr.Wrap(ErrInvalidConfig, "firestore-project-id is required")
	}

	repo, err := firestore.New(ctx, f.projectID, f.databaseID, firestore.WithCollectionPrefix(f.collectionPrefix))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize firestore repository",
			goerr.V("project_id", f.projectID), goerr.V("database_id", f.databaseID))
	}
	return repo, nil
}
