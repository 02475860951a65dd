package report

import (
	"bytes"
	"html"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

const htmlHead = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%TITLE%</title>
<style>
body { font-family: sans-serif; max-width: 960px; margin: 2em auto; color: #1f2933; }
table { border-collapse: collapse; margin: 1em 0; }
th, td { border: 1px solid #cbd2d9; padding: 4px 8px; text-align: left; }
blockquote { border-left: 4px solid #f0b429; margin: 1em 0; padding-left: 1em; }
</style>
</head>
<body>
`

func renderHTML(title, markdown string) ([]byte, error) {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			gmhtml.WithXHTML(),
		),
	)

	var body bytes.Buffer
	if err := md.Convert([]byte(markdown), &body); err != nil {
		return nil, goerr.Wrap(err, "failed to convert markdown to HTML")
	}

	var buf bytes.Buffer
	buf.WriteString(strings.Replace(htmlHead, "%TITLE%", html.EscapeString(title), 1))
	buf.Write(body.Bytes())
	buf.WriteString("</body>\n</html>\n")
	return buf.Bytes(), nil
}
