package utils

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"
)

var (
	ErrFileTooLarge    = errors.New("file exceeds size limit")
	ErrInvalidFileType = errors.New("invalid file type")
	ErrEmptyFile       = errors.New("empty file")
	ErrUnreadableImage = errors.New("image could not be decoded")
)

var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// FileInfo describes an upload after its content has been sniffed.
type FileInfo struct {
	MimeType  string
	Extension string
	Size      int64
	Width     int
	Height    int
}

// InspectImage checks size and real content type of an image upload and
// reads its pixel dimensions. The declared Content-Type is ignored.
func InspectImage(data []byte, maxBytes int64) (FileInfo, error) {
	if len(data) == 0 {
		return FileInfo{}, ErrEmptyFile
	}
	if int64(len(data)) > maxBytes {
		return FileInfo{}, ErrFileTooLarge
	}

	mt := mimetype.Detect(data)
	ext, ok := imageTypes[mt.String()]
	if !ok {
		return FileInfo{}, fmt.Errorf("%w: %s", ErrInvalidFileType, mt.String())
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return FileInfo{}, ErrUnreadableImage
	}

	return FileInfo{
		MimeType:  mt.String(),
		Extension: ext,
		Size:      int64(len(data)),
		Width:     cfg.Width,
		Height:    cfg.Height,
	}, nil
}

// InspectPDF checks size and that the content really is a PDF.
func InspectPDF(data []byte, maxBytes int64) (FileInfo, error) {
	if len(data) == 0 {
		return FileInfo{}, ErrEmptyFile
	}
	if int64(len(data)) > maxBytes {
		return FileInfo{}, ErrFileTooLarge
	}
	mt := mimetype.Detect(data)
	if !mt.Is("application/pdf") {
		return FileInfo{}, fmt.Errorf("%w: %s", ErrInvalidFileType, mt.String())
	}
	return FileInfo{MimeType: "application/pdf", Extension: ".pdf", Size: int64(len(data))}, nil
}
