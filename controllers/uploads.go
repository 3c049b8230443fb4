package controllers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sanjuan-tahitic/api-go/services"
	"github.com/sanjuan-tahitic/api-go/utils"
)

// readLimited reads at most limit+1 bytes so oversized files are detected
// without buffering them whole.
func readLimited(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	if fh.Size > limit {
		return nil, utils.ErrFileTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return data, nil
}

func readImage(fh *multipart.FileHeader, limit int64, descripcion string) (services.ImageUpload, error) {
	data, err := readLimited(fh, limit)
	if err != nil {
		return services.ImageUpload{}, err
	}
	info, err := utils.InspectImage(data, limit)
	if err != nil {
		return services.ImageUpload{}, err
	}
	return services.ImageUpload{Data: data, Info: info, Descripcion: descripcion}, nil
}

func readPDF(fh *multipart.FileHeader, limit int64) (services.PDFUpload, error) {
	data, err := readLimited(fh, limit)
	if err != nil {
		return services.PDFUpload{}, err
	}
	info, err := utils.InspectPDF(data, limit)
	if err != nil {
		return services.PDFUpload{}, err
	}
	return services.PDFUpload{Data: data, Info: info}, nil
}

// optionalFile returns nil without error when the field was not sent.
func optionalFile(c *gin.Context, field string) (*multipart.FileHeader, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	return fh, err
}
