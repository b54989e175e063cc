package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"burnrate/internal/core"
)

// decodeJSON reads a single JSON object into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}

// readStatement returns the uploaded CSV: the "file" part of a multipart
// form, or the raw request body otherwise.
func readStatement(w http.ResponseWriter, r *http.Request, limit int64) (name string, data []byte, err error) {
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		data, err = io.ReadAll(r.Body)
		return "body", data, err
	}

	if err := r.ParseMultipartForm(limit); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return "", nil, tooBig
		}
		return "", nil, fmt.Errorf("%w: invalid multipart form: %v", errBadRequest, err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, fmt.Errorf("%w: missing form field \"file\"", errBadRequest)
	}
	defer file.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		return "", nil, err
	}
	return header.Filename, buf.Bytes(), nil
}

// directionParam parses the optional ?direction= filter.
func directionParam(r *http.Request) (core.Direction, bool, error) {
	v := strings.TrimSpace(r.URL.Query().Get("direction"))
	if v == "" {
		return "", false, nil
	}
	d, err := core.ParseDirection(v)
	if err != nil {
		return "", false, err
	}
	return d, true, nil
}

func rowParam(r *http.Request) (int, error) {
	row, err := strconv.Atoi(r.PathValue("row"))
	if err != nil {
		return 0, fmt.Errorf("%w: row must be an integer", errBadRequest)
	}
	return row, nil
}
