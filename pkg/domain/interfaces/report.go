package interfaces

import (
	"context"
	"io"
)

// ReportUploader stores a rendered report and returns its location
type ReportUploader interface {
	Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error)
}
