package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"tailor-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// Multipart field names used by the dashboard forms.
const (
	fieldMeasurementImages = "measurement_image_url"
	fieldSuitImages        = "images"
	fieldDeleteImages      = "delete_images"
)

// uploadsFrom collects the files sent under field. Non-multipart requests carry none.
func uploadsFrom(c *gin.Context, field string) ([]service.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}

	headers := form.File[field]
	uploads := make([]service.Upload, 0, len(headers))
	for _, fh := range headers {
		uploads = append(uploads, service.Upload{
			Filename: fh.Filename,
			Size:     fh.Size,
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
	}
	return uploads, nil
}

// deleteImageIDs accepts repeated delete_images fields as well as one comma-separated value.
func deleteImageIDs(c *gin.Context) ([]uint, error) {
	values := append(c.PostFormArray(fieldDeleteImages), c.PostFormArray(fieldDeleteImages+"[]")...)

	var ids []uint
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseUint(part, 10, 64)
			if err != nil {
				return nil, errors.New("delete_images must contain image ids")
			}
			ids = append(ids, uint(id))
		}
	}
	return ids, nil
}
