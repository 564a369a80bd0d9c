// Package netx contains transport helpers for the storage gateway: a
// byte-counting reader for upload progress and a multipart body builder.
package netx

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
)

// ProgressFunc receives the number of bytes sent so far and the total size.
// total is 0 when the size is unknown.
type ProgressFunc func(sent, total int64)

// ProgressReader wraps r and reports cumulative bytes read to fn.
type ProgressReader struct {
	r     io.Reader
	total int64
	sent  int64
	fn    ProgressFunc
}

func NewProgressReader(r io.Reader, total int64, fn ProgressFunc) *ProgressReader {
	return &ProgressReader{r: r, total: total, fn: fn}
}

func (p *ProgressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		if p.fn != nil {
			p.fn(p.sent, p.total)
		}
	}
	return n, err
}

// MultipartFile builds a multipart/form-data body holding a single file
// part. The body is buffered so its length is known up front, which the
// progress reporting relies on.
func MultipartFile(field, fileName string, content io.Reader) (body *bytes.Buffer, contentType string, err error) {
	body = &bytes.Buffer{}
	w := multipart.NewWriter(body)

	part, err := w.CreateFormFile(field, fileName)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, "", fmt.Errorf("copy file content: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return body, w.FormDataContentType(), nil
}
