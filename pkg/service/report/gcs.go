package report

import (
	"context"
	"io"
	"path"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/materiality/pkg/domain/interfaces"
	"github.com/secmon-lab/materiality/pkg/utils/safe"
)

// GCSUploader stores reports in a Cloud Storage bucket
type GCSUploader struct {
	client *storage.Client
	bucket string
	prefix string
}

var _ interfaces.ReportUploader = &GCSUploader{}

// NewGCSUploader creates an uploader writing to gs://bucket/prefix/
func NewGCSUploader(ctx context.Context, bucket, prefix string) (*GCSUploader, error) {
	if bucket == "" {
		return nil, goerr.New("bucket is required")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client", goerr.V("bucket", bucket))
	}

	return &GCSUploader{client: client, bucket: bucket, prefix: prefix}, nil
}

func (u *GCSUploader) objectName(name string) string {
	if u.prefix == "" {
		return name
	}
	return path.Join(u.prefix, name)
}

// Upload writes body to the bucket and returns its gs:// URL
func (u *GCSUploader) Upload(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	obj := u.objectName(name)
	w := u.client.Bucket(u.bucket).Object(obj).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, body); err != nil {
		safe.Close(ctx, w, "report object writer")
		return "", goerr.Wrap(err, "failed to write report object", goerr.V("bucket", u.bucket), goerr.V("object", obj))
	}
	if err := w.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to finalize report object", goerr.V("bucket", u.bucket), goerr.V("object", obj))
	}

	return "gs://" + u.bucket + "/" + obj, nil
}

// Close releases the storage client
func (u *GCSUploader) Close() error {
	return u.client.Close()
}
