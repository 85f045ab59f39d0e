// Package netx builds outgoing HTTP requests for the CLI client.
package netx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FilePart is a file attached to a multipart form under Field. The part's
// Content-Type is guessed from the file extension.
type FilePart struct {
	Field string
	Path  string
}

// NewMultipartRequest encodes fields and files as multipart/form-data.
// Fields are written in key order so the body is deterministic.
func NewMultipartRequest(ctx context.Context, method, url string, fields map[string]string, files []FilePart) (*http.Request, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := w.WriteField(k, fields[k]); err != nil {
			return nil, fmt.Errorf("write field %s: %w", k, err)
		}
	}

	for _, f := range files {
		if err := attach(w, f); err != nil {
			return nil, err
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req, nil
}

func attach(w *multipart.Writer, f FilePart) error {
	src, err := os.Open(f.Path)
	if err != nil {
		return fmt.Errorf("open %s: %w", f.Path, err)
	}
	defer src.Close()

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(f.Path)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, filepath.Base(f.Path)))
	hdr.Set("Content-Type", contentType)

	dst, err := w.CreatePart(hdr)
	if err != nil {
		return fmt.Errorf("create part %s: %w", f.Field, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("copy %s: %w", f.Path, err)
	}
	return nil
}

// NewJSONRequest encodes payload as the JSON body of a request. A nil
// payload produces a request without a body.
func NewJSONRequest(ctx context.Context, method, url string, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}
