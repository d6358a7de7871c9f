// Package netx assembles request bodies for the REST client.
package netx

import (
	"bytes"
	"fmt"
	"io"
	"maps"
	"mime/multipart"
	"net/textproto"
	"slices"
	"strings"
)

// Part is one file sent in a multipart body.
type Part struct {
	Field       string
	FileName    string
	ContentType string
	Body        io.Reader
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// Multipart encodes fields and files as multipart/form-data and returns the
// body with its Content-Type header value. Fields are written in key order.
func Multipart(fields map[string]string, files []Part) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	for _, k := range slices.Sorted(maps.Keys(fields)) {
		if err := w.WriteField(k, fields[k]); err != nil {
			return nil, "", fmt.Errorf("field %s: %w", k, err)
		}
	}

	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(f.Field), quoteEscaper.Replace(f.FileName)))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)

		pw, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("file %s: %w", f.Field, err)
		}
		if _, err := io.Copy(pw, f.Body); err != nil {
			return nil, "", fmt.Errorf("file %s: %w", f.Field, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return body, w.FormDataContentType(), nil
}
