package safe

import (
	"context"
	"io"

	"github.com/secmon-lab/materiality/pkg/utils/logging"
)

// Close closes c on a path where the close error cannot be returned, such as
// cleanup after an earlier failure. A failure is logged with what was closed.
func Close(ctx context.Context, c io.Closer, what string) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		logging.From(ctx).Warn("failed to close", "target", what, "error", err)
	}
}

// Write writes a response body after the status line has been sent, when the
// client is the only party left to notice a failure. Short writes are logged.
func Write(ctx context.Context, w io.Writer, data []byte) {
	if w == nil {
		return
	}
	n, err := w.Write(data)
	if err != nil {
		logging.From(ctx).Warn("failed to write response body",
			"error", err,
			"written", n,
			"size", len(data),
		)
	}
}
