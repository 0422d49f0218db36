/*
 * // Copyright 2020 Insolar Network Ltd.
 * // All rights reserved.
 * // This material is licensed under the Insolar License version 1.0,
 * // available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.
 */

package uploadbot

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// ImageFormat value of the "format" form field
type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpeg"
	FormatJPG  ImageFormat = "jpg"
	FormatPNG  ImageFormat = "png"
	FormatWEBP ImageFormat = "webp"
)

// ContentType mime type of an image format, empty for unknown formats
func (f ImageFormat) ContentType() string {
	switch ImageFormat(strings.ToLower(string(f))) {
	case FormatJPEG, FormatJPG:
		return "image/jpeg"
	case FormatPNG:
		return "image/png"
	case FormatWEBP:
		return "image/webp"
	}
	return ""
}

// UploadPayload image file and form fields sent with every POST
type UploadPayload struct {
	// FilePath must exist when the request is made, it is read again for every attempt
	FilePath string `yaml:"file"`
	// ContentType of a file part, derived from Format if empty
	ContentType string `yaml:"content_type"`
	// FieldName of a file part, image|file
	FieldName string      `yaml:"field_name"`
	Width     int         `yaml:"width"`
	Height    int         `yaml:"height"`
	Format    ImageFormat `yaml:"format"`
}

func (p UploadPayload) Validate() (list []string) {
	if p.FilePath == "" {
		list = append(list, "please set upload file path")
	}
	if p.Width <= 0 || p.Height <= 0 {
		list = append(list, "please set width > 0 and height > 0")
	}
	if p.Format.ContentType() == "" {
		list = append(list, fmt.Sprintf("unknown image format %q, use jpeg|png|webp", p.Format))
	}
	switch p.FieldName {
	case "", "image", "file":
	default:
		list = append(list, fmt.Sprintf("unknown file field name %q, use image|file", p.FieldName))
	}
	return
}

func (p *UploadPayload) defaults() {
	if p.FieldName == "" {
		p.FieldName = DefaultFieldName
	}
	if p.ContentType == "" {
		p.ContentType = p.Format.ContentType()
	}
}

// Fields form fields in the order they are written
func (p UploadPayload) Fields() [][2]string {
	return [][2]string{
		{"width", strconv.Itoa(p.Width)},
		{"height", strconv.Itoa(p.Height)},
		{"format", string(p.Format)},
	}
}

// Encode opens the file and builds a multipart body, returns body content type and bytes.
// Any failure to read the file is reported as ErrFileMissing.
func (p UploadPayload) Encode() (string, []byte, error) {
	f, err := os.Open(p.FilePath)
	if err != nil {
		return "", nil, &FileMissingError{Path: p.FilePath, Err: err}
	}
	defer f.Close()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, kv := range p.Fields() {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return "", nil, err
		}
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, p.FieldName, filepath.Base(p.FilePath)))
	h.Set("Content-Type", p.ContentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return "", nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", nil, &FileMissingError{Path: p.FilePath, Err: err}
	}
	if err := w.Close(); err != nil {
		return "", nil, err
	}
	return w.FormDataContentType(), body.Bytes(), nil
}

// PayloadRing hands out payloads round-robin to all workers
type PayloadRing struct {
	*sync.Mutex
	Index int
	Data  []UploadPayload
}

func NewPayloadRing(data []UploadPayload) *PayloadRing {
	return &PayloadRing{
		Mutex: &sync.Mutex{},
		Index: 0,
		Data:  data,
	}
}

func (m *PayloadRing) Next() UploadPayload {
	m.Lock()
	defer m.Unlock()
	if m.Index > len(m.Data)-1 {
		m.Index = 0
	}
	data := m.Data[m.Index]
	m.Index++
	return data
}

func (m *PayloadRing) Len() int {
	m.Lock()
	defer m.Unlock()
	return len(m.Data)
}
