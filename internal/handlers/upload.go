package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/church-platform/internal/httperr"
	"github.com/BruksfildServices01/church-platform/internal/infra/storage"
)

// readUpload loads the multipart file in field, capped at maxBytes.
func readUpload(c *gin.Context, field string, maxBytes int64) (io.Reader, bool) {
	fh, err := c.FormFile(field)
	if err != nil {
		httperr.BadRequest(c, "no_file_uploaded", fmt.Sprintf("Multipart field %q is required", field))
		return nil, false
	}
	if fh.Size > maxBytes {
		httperr.BadRequest(c, "file_too_large", fmt.Sprintf("File exceeds %d bytes", maxBytes))
		return nil, false
	}

	f, err := fh.Open()
	if err != nil {
		httperr.BadRequest(c, "invalid_upload", "Could not read upload")
		return nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil || int64(len(data)) > maxBytes {
		httperr.BadRequest(c, "invalid_upload", "Could not read upload")
		return nil, false
	}
	return bytes.NewReader(data), true
}

func uploadFailed(c *gin.Context, err error) {
	if errors.Is(err, storage.ErrUnsupportedImage) {
		httperr.BadRequest(c, "unsupported_image", "Only JPEG, PNG, GIF and WebP images are accepted")
		return
	}
	httperr.Internal(c, "upload_failed", "Could not store upload")
}
