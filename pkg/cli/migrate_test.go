package cli_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/materiality/pkg/cli"
	"github.com/secmon-lab/materiality/pkg/repository/firestore"
)

func TestPrintIndexDiff(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	t.Run("missing index is listed", func(t *testing.T) {
		desired := firestore.IndexConfig("")
		diff := &fireconf.DiffResult{
			Collections: []fireconf.CollectionDiff{
				{
					Name:         "assessments",
					Action:       fireconf.ActionAdd,
					IndexesToAdd: desired.Collections[0].Indexes,
				},
			},
		}

		var buf bytes.Buffer
		cli.PrintIndexDiff(&buf, diff)
		gt.S(t, buf.String()).Equal("+ assessments (status ASCENDING, last_modified DESCENDING)\n")
	})

	t.Run("stale index is listed for deletion", func(t *testing.T) {
		diff := &fireconf.DiffResult{
			Collections: []fireconf.CollectionDiff{
				{
					Name:   "assessments",
					Action: fireconf.ActionModify,
					IndexesToDelete: []fireconf.Index{
						{Fields: []fireconf.IndexField{{Path: "name", Order: fireconf.OrderAscending}}},
					},
				},
			},
		}

		var buf bytes.Buffer
		cli.PrintIndexDiff(&buf, diff)
		gt.B(t, strings.HasPrefix(buf.String(), "- assessments (name ASCENDING)")).True()
	})

	t.Run("no changes", func(t *testing.T) {
		var buf bytes.Buffer
		cli.PrintIndexDiff(&buf, &fireconf.DiffResult{})
		gt.S(t, buf.String()).Equal("Indexes are up to date\n")
	})
}
