package cli_test

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/materiality/pkg/cli"
	"github.com/secmon-lab/materiality/pkg/domain/model"
	"github.com/secmon-lab/materiality/pkg/domain/types"
)

func TestPrintCatalog(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	t.Run("all industries", func(t *testing.T) {
		var buf bytes.Buffer
		cli.PrintCatalog(&buf, model.DefaultCatalog(), nil)

		out := buf.String()
		gt.S(t, out).Contains("TC-SI  Software & IT Services")
		gt.S(t, out).Contains("  TC-SI-001  ")
		gt.S(t, out).Contains("FN-CB")
		gt.S(t, out).Contains("no disclosure topics")
	})

	t.Run("selected industries only", func(t *testing.T) {
		var buf bytes.Buffer
		cli.PrintCatalog(&buf, model.DefaultCatalog(), []types.IndustryCode{"CG-AA"})

		out := buf.String()
		gt.S(t, out).Contains("CG-AA-001")
		gt.B(t, bytes.Contains(buf.Bytes(), []byte("TC-SI"))).False()
	})
}
