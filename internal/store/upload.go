package store

import (
	"context"
	"os"
	"path/filepath"

	"github.com/dmorgan81/webuibot/internal/log"
)

type UploadParams struct {
	Name        string
	Data        []byte
	ContentType string
	Metadata    map[string]string
}

type Uploader interface {
	Upload(context.Context, UploadParams) error
}

// FileUploader writes uploads into Dir, for running without a bucket.
type FileUploader struct {
	Dir string
}

func (u *FileUploader) Upload(ctx context.Context, params UploadParams) error {
	name := filepath.Join(u.Dir, filepath.Base(params.Name))
	log := log.FromContextOrDiscard(ctx).WithGroup("file")
	log.Info("writing", "file", name, "content-type", params.ContentType)

	if u.Dir != "" {
		if err := os.MkdirAll(u.Dir, 0750); err != nil {
			return err
		}
	}
	return os.WriteFile(name, params.Data, 0600)
}
