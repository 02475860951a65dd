package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/materiality/pkg/cli/config"
	"github.com/secmon-lab/materiality/pkg/domain/model"
	"github.com/secmon-lab/materiality/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

func cmdCatalog() *cli.Command {
	var catalogCfg config.Catalog
	var industries []string
	var noColor bool

	flags := []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "industry",
			Aliases:     []string{"i"},
			Usage:       "Only show topics in scope of the given industry codes",
			Destination: &industries,
		},
		&cli.BoolFlag{
			Name:        "no-color",
			Usage:       "Disable colored output",
			Sources:     cli.EnvVars("NO_COLOR"),
			Destination: &noColor,
		},
	}
	flags = append(flags, catalogCfg.Flags()...)

	return &cli.Command{
		Name:    "catalog",
		Aliases: []string{"c"},
		Usage:   "Show industries and disclosure topics available for assessment",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			catalog, err := catalogCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load catalog")
			}

			codes := make([]types.IndustryCode, 0, len(industries))
			for _, code := range industries {
				code := types.IndustryCode(strings.ToUpper(strings.TrimSpace(code)))
				if _, ok := catalog.Industry(code); !ok {
					return goerr.New("unknown industry", goerr.V("code", code))
				}
				codes = append(codes, code)
			}

			if noColor {
				color.NoColor = true
			}
			printCatalog(c.Root().Writer, catalog, codes)
			return nil
		},
	}
}

// printCatalog writes the industries (all, or only codes) with their topics and metrics
func printCatalog(w io.Writer, catalog *model.Catalog, codes []types.IndustryCode) {
	if w == nil {
		w = os.Stdout
	}

	header := color.New(color.FgCyan, color.Bold)
	sector := color.New(color.FgHiBlack)
	topicID := color.New(color.FgYellow)
	empty := color.New(color.FgHiBlack, color.Italic)

	selected := make(map[types.IndustryCode]bool, len(codes))
	for _, code := range codes {
		selected[code] = true
	}

	for _, ind := range catalog.Industries() {
		if len(codes) > 0 && !selected[ind.Code] {
			continue
		}

		_, _ = header.Fprintf(w, "%s  %s", ind.Code, ind.Name)
		if ind.Sector != "" {
			_, _ = sector.Fprintf(w, "  (%s)", ind.Sector)
		}
		_, _ = fmt.Fprintln(w)

		topics := catalog.Scope(ind.Code)
		if len(topics) == 0 {
			_, _ = empty.Fprintln(w, "  no disclosure topics")
		}
		for _, t := range topics {
			_, _ = topicID.Fprintf(w, "  %s", t.ID)
			_, _ = fmt.Fprintf(w, "  %s\n", t.Name)
			for _, m := range t.AssociatedMetrics {
				_, _ = fmt.Fprintf(w, "      - %s\n", m)
			}
		}
		_, _ = fmt.Fprintln(w)
	}
}
