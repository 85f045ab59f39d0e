package rest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/filex"
	"github.com/dmitrijs2005/vidtube/internal/logging"
	"github.com/dmitrijs2005/vidtube/internal/server/services"
)

// multipart parts above this size spill to disk while parsing.
const maxMemory = 8 << 20

var allowedTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/gif":       true,
	"application/pdf": true,
	"video/mp4":       true,
	"video/x-msvideo": true,
	"video/avi":       true,
	"video/mpeg":      true,
	"video/quicktime": true,
}

// uploads holds the files saved for one request. cleanup removes whatever
// the services did not consume.
type uploads struct {
	files map[string]*services.UploadedFile
	log   logging.Logger
}

func (u *uploads) get(field string) *services.UploadedFile {
	if u == nil {
		return nil
	}
	return u.files[field]
}

func (u *uploads) cleanup(ctx context.Context) {
	if u == nil {
		return
	}
	for field, f := range u.files {
		if err := filex.RemoveQuietly(f.Path); err != nil {
			u.log.Warn(ctx, "temp file cleanup failed", "field", field, "path", f.Path, "error", err)
		}
	}
}

// parseUploads reads a multipart body and saves the first file of each
// named field into the upload directory. Missing fields are not an error;
// the services decide which files are required.
func (h *Handler) parseUploads(w http.ResponseWriter, r *http.Request, fields ...string) (*uploads, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.UploadLimit)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return nil, common.Errorf(common.ErrValidation, "File exceeds the %d byte limit", h.cfg.UploadLimit)
		case errors.Is(err, http.ErrNotMultipart):
			return nil, common.NewError(common.ErrValidation, "Expected a multipart/form-data body")
		default:
			return nil, common.NewError(common.ErrValidation, "Malformed multipart body")
		}
	}

	u := &uploads{files: make(map[string]*services.UploadedFile), log: h.log}
	for _, field := range fields {
		headers := r.MultipartForm.File[field]
		if len(headers) == 0 {
			continue
		}
		f, err := h.saveUpload(headers[0])
		if err != nil {
			u.cleanup(r.Context())
			return nil, err
		}
		u.files[field] = f
	}
	return u, nil
}

func (h *Handler) saveUpload(fh *multipart.FileHeader) (*services.UploadedFile, error) {
	contentType := fh.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mt
	}
	if !allowedTypes[contentType] {
		return nil, common.Errorf(common.ErrValidation, "Unsupported file type %q", contentType)
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	path := filepath.Join(h.uploadDir, filex.TempName(fh.Filename))
	dst, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o660)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = filex.RemoveQuietly(path)
		return nil, fmt.Errorf("write temp file: %w", err)
	}

	return &services.UploadedFile{
		Path:         path,
		OriginalName: fh.Filename,
		ContentType:  contentType,
		Size:         n,
	}, nil
}
