package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/materiality/pkg/cli/config"
	"github.com/secmon-lab/materiality/pkg/repository/firestore"
	"github.com/secmon-lab/materiality/pkg/utils/logging"
	"github.com/secmon-lab/materiality/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

// defaultDatabaseID is the name Firestore gives the default database
const defaultDatabaseID = "(default)"

func cmdMigrate() *cli.Command {
	var fsCfg config.Firestore
	var dryRun bool

	fsCfg.WithUsage("Firestore Project ID (required)")
	flags := append(fsCfg.Flags(), &cli.BoolFlag{
		Name:        "dry-run",
		Usage:       "Print the index changes without applying them",
		Destination: &dryRun,
	})

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Create the Firestore indexes required to list assessments by status",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if !fsCfg.Enabled() {
				return goerr.Wrap(config.ErrInvalidConfig, "firestore-project-id is required")
			}

			databaseID := fsCfg.DatabaseID()
			if databaseID == "" {
				databaseID = defaultDatabaseID
			}
			collection := firestore.AssessmentsCollection(fsCfg.CollectionPrefix())
			desired := firestore.IndexConfig(fsCfg.CollectionPrefix())

			client, err := fireconf.New(ctx, fsCfg.ProjectID(), databaseID, desired,
				fireconf.WithLogger(logging.Default()))
			if err != nil {
				return goerr.Wrap(err, "failed to create fireconf client",
					goerr.V("project_id", fsCfg.ProjectID()), goerr.V("database_id", databaseID))
			}
			defer safe.Close(ctx, client, "fireconf client")

			if !dryRun {
				if err := client.Migrate(ctx); err != nil {
					return goerr.Wrap(err, "failed to apply index migration", goerr.V("collection", collection))
				}
				logging.Default().Info("Index migration applied", "collection", collection)
				return nil
			}

			current, err := client.Import(ctx, collection)
			if err != nil {
				return goerr.Wrap(err, "failed to read current indexes", goerr.V("collection", collection))
			}
			diff, err := client.DiffConfigs(current)
			if err != nil {
				return goerr.Wrap(err, "failed to compare indexes", goerr.V("collection", collection))
			}

			printIndexDiff(os.Stdout, diff)
			return nil
		},
	}
}

// printIndexDiff writes one line per index to add (+) or delete (-)
func printIndexDiff(w io.Writer, diff *fireconf.DiffResult) {
	changes := 0
	for _, col := range diff.Collections {
		for _, idx := range col.IndexesToAdd {
			fmt.Fprintf(w, "%s %s %s\n", color.GreenString("+"), color.CyanString("%s", col.Name), indexFields(idx))
			changes++
		}
		for _, idx := range col.IndexesToDelete {
			fmt.Fprintf(w, "%s %s %s\n", color.RedString("-"), color.CyanString("%s", col.Name), indexFields(idx))
			changes++
		}
	}
	if changes == 0 {
		fmt.Fprintln(w, "Indexes are up to date")
	}
}

func indexFields(idx fireconf.Index) string {
	out := ""
	for i, f := range idx.Fields {
		if i > 0 {
			out += ", "
		}
		out += f.Path + " " + string(f.Order)
	}
	return "(" + out + ")"
}
