package report

import (
	"bytes"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

const (
	pdfFont     = "Arial"
	pdfFontSize = 9.0
	pdfLineH    = 5.0
	pdfWidth    = 190.0
)

// core fonts are cp1252; map symbols outside it before translation
var pdfSymbols = strings.NewReplacer("≥", ">=", "≤", "<=")

func renderPDF(title, markdown string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetCreator("materiality", true)
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()
	pdf.SetFont(pdfFont, "", pdfFontSize)

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	source := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(source))

	r := &pdfRenderer{
		pdf:    pdf,
		source: source,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
	}
	if err := ast.Walk(doc, r.walk); err != nil {
		return nil, goerr.Wrap(err, "failed to render PDF")
	}
	if err := pdf.Error(); err != nil {
		return nil, goerr.Wrap(err, "failed to build PDF")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, goerr.Wrap(err, "failed to output PDF")
	}
	return buf.Bytes(), nil
}

type pdfRenderer struct {
	pdf    *fpdf.Fpdf
	source []byte
	tr     func(string) string
	bold   bool
	italic bool
	quote  bool
}

func (r *pdfRenderer) text(s string) string {
	return r.tr(pdfSymbols.Replace(s))
}

func (r *pdfRenderer) updateFont() {
	style := ""
	if r.bold {
		style += "B"
	}
	if r.italic || r.quote {
		style += "I"
	}
	r.pdf.SetFont(pdfFont, style, pdfFontSize)
}

func (r *pdfRenderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch n.Kind() {
	case ast.KindHeading:
		return r.heading(n.(*ast.Heading), entering)
	case ast.KindParagraph, ast.KindTextBlock:
		if !entering {
			r.pdf.Ln(pdfLineH + 1)
		}
	case ast.KindText:
		if entering {
			t := n.(*ast.Text)
			r.pdf.Write(pdfLineH, r.text(string(t.Segment.Value(r.source))))
			if t.SoftLineBreak() {
				r.pdf.Write(pdfLineH, " ")
			}
		}
	case ast.KindEmphasis:
		if n.(*ast.Emphasis).Level == 2 {
			r.bold = entering
		} else {
			r.italic = entering
		}
		r.updateFont()
	case ast.KindBlockquote:
		r.quote = entering
		r.updateFont()
	case ast.KindListItem:
		if entering {
			r.pdf.SetX(r.pdf.GetX() + 4)
			r.pdf.Write(pdfLineH, r.text("- "))
		}
	case ast.KindList:
		if !entering {
			r.pdf.Ln(2)
		}
	case extast.KindTable:
		if entering {
			r.table(n.(*extast.Table))
			return ast.WalkSkipChildren, nil
		}
	}
	return ast.WalkContinue, nil
}

func (r *pdfRenderer) heading(n *ast.Heading, entering bool) (ast.WalkStatus, error) {
	if !entering {
		r.pdf.Ln(pdfLineH + 2)
		r.updateFont()
		return ast.WalkContinue, nil
	}

	size := 10.0
	switch n.Level {
	case 1:
		size = 16
	case 2:
		size = 13
	case 3:
		size = 11
	}
	r.pdf.Ln(3)
	r.pdf.SetFont(pdfFont, "B", size)
	return ast.WalkContinue, nil
}

// table draws a GFM table with equal column widths
func (r *pdfRenderer) table(t *extast.Table) {
	var rows [][]string
	for row := t.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, r.text(plainText(cell, r.source)))
		}
		rows = append(rows, cells)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}

	colW := pdfWidth / float64(len(rows[0]))
	r.pdf.Ln(1)
	for i, cells := range rows {
		header := i == 0
		if header {
			r.pdf.SetFont(pdfFont, "B", pdfFontSize)
			r.pdf.SetFillColor(235, 238, 242)
		}

		height := pdfLineH
		for _, c := range cells {
			lines := r.pdf.SplitText(c, colW-2)
			if h := float64(len(lines)) * pdfLineH; h > height {
				height = h
			}
		}
		_, pageH := r.pdf.GetPageSize()
		_, _, _, bottom := r.pdf.GetMargins()
		if r.pdf.GetY()+height > pageH-bottom {
			r.pdf.AddPage()
		}

		x, y := r.pdf.GetXY()
		for j, c := range cells {
			r.pdf.Rect(x+float64(j)*colW, y, colW, height, boolStyle(header))
			r.pdf.SetXY(x+float64(j)*colW+1, y)
			r.pdf.MultiCell(colW-2, pdfLineH, c, "", "L", false)
		}
		r.pdf.SetXY(x, y+height)

		if header {
			r.pdf.SetFillColor(255, 255, 255)
			r.updateFont()
		}
	}
	r.pdf.Ln(3)
}

func boolStyle(fill bool) string {
	if fill {
		return "FD"
	}
	return "D"
}

func plainText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := c.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(source))
		case *ast.String:
			sb.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}
