package rest

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/dmitrijs2005/vidtube/internal/common"
)

// maxJSONBody caps non-upload request bodies.
const maxJSONBody = 1 << 20

// fields holds the scalar request fields regardless of how they were
// encoded.
type fields map[string]string

// readFields accepts JSON objects, url-encoded forms and multipart forms.
// Non-string JSON values are ignored. An empty body yields no fields.
func readFields(w http.ResponseWriter, r *http.Request) (fields, error) {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt != "application/json" {
		return formFields(w, r)
	}

	var raw map[string]any
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, common.NewError(common.ErrValidation, "Malformed JSON body")
	}
	out := make(fields, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out, nil
}

func formFields(w http.ResponseWriter, r *http.Request) (fields, error) {
	if r.MultipartForm == nil && r.Form == nil {
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
		if err := r.ParseForm(); err != nil {
			return nil, common.NewError(common.ErrValidation, "Malformed form body")
		}
	}
	out := make(fields)
	if r.MultipartForm != nil {
		for k, v := range r.MultipartForm.Value {
			if len(v) > 0 {
				out[k] = v[0]
			}
		}
	}
	for k, v := range r.PostForm {
		if _, ok := out[k]; !ok && len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out, nil
}
