// Package storage keeps uploaded images and PDFs either on the local disk
// under the uploads tree or in an S3-compatible bucket.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sanjuan-tahitic/api-go/config"
)

const (
	FolderPlaceImages      = "images/lugares"
	FolderExperienceImages = "images/experiencias"
	FolderPDFs             = "pdfs"
)

// Object is a stored file. Path is the storage key that Delete accepts.
type Object struct {
	Path string
	URL  string
	Size int64
}

type Storage interface {
	Save(ctx context.Context, folder, ext, contentType string, data []byte) (Object, error)
	Delete(ctx context.Context, path string) error
	URL(path string) string
}

// New picks the backend named by STORAGE_DRIVER.
func New(cfg *config.Config) (Storage, error) {
	switch cfg.StorageDriver {
	case "local":
		return NewLocalStorage(cfg.UploadDir, cfg.PublicUploadPrefix)
	case "r2":
		return NewR2Storage(cfg.R2), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// generateKey builds "<folder>/<unix>_<uuid><ext>".
func generateKey(folder, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return fmt.Sprintf("%s/%d_%s%s", strings.Trim(folder, "/"), time.Now().Unix(), uuid.New().String(), strings.ToLower(ext))
}
