// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package capture loads image attachments and captures camera frames.
package capture

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register decoders for DecodeConfig
	"image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// MaxImageBytes is the largest attachment accepted (10 MiB).
const MaxImageBytes = 10 << 20

// JPEGQuality is used for camera frames and re-encoded images.
const JPEGQuality = 95

var (
	ErrNotImage  = errors.New("file is not a supported image")
	ErrTooLarge  = fmt.Errorf("image exceeds %s", humanize.IBytes(MaxImageBytes))
	ErrEmptyData = errors.New("image data is empty")
)

// =============================================================================
// IMAGE
// =============================================================================

// Image is an attachment ready to upload.
type Image struct {
	Name     string
	MimeType string
	Data     []byte
}

// LoadImage reads a local image file.
func LoadImage(path string) (*Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read image: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > MaxImageBytes {
		return nil, ErrTooLarge
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read image: %w", err)
	}
	return NewImage(filepath.Base(path), data)
}

// NewImage validates raw bytes as an image attachment.
func NewImage(name string, data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}
	if len(data) > MaxImageBytes {
		return nil, ErrTooLarge
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return nil, fmt.Errorf("%w: %s", ErrNotImage, mime)
	}
	if name == "" {
		name = "image" + extensionFor(mime)
	}
	return &Image{Name: name, MimeType: mime, Data: data}, nil
}

// Size returns the attachment size in bytes.
func (img *Image) Size() int {
	return len(img.Data)
}

// DataURL returns the image as a data: URL for immediate preview.
func (img *Image) DataURL() string {
	return "data:" + img.MimeType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// Dimensions decodes the image header. Returns 0, 0 for formats without a
// registered decoder (e.g. webp).
func (img *Image) Dimensions() (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(img.Data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

// Describe returns a one-line preview: name, dimensions and size.
func (img *Image) Describe() string {
	w, h := img.Dimensions()
	if w == 0 || h == 0 {
		return fmt.Sprintf("%s (%s)", img.Name, humanize.IBytes(uint64(img.Size())))
	}
	return fmt.Sprintf("%s (%d×%d, %s)", img.Name, w, h, humanize.IBytes(uint64(img.Size())))
}

// ToJPEG re-encodes any decodable image as JPEG at JPEGQuality.
func ToJPEG(name string, data []byte) (*Image, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return &Image{Name: name, MimeType: "image/jpeg", Data: buf.Bytes()}, nil
}

func extensionFor(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	}
	return ""
}
