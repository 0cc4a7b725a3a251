package avatar

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// Avatars are normalized to a fixed-size PNG before storage.
const (
	Width  = 250
	Height = 250

	// MaxUploadSize is the raw upload limit in bytes, checked before any
	// decoding happens.
	MaxUploadSize = 1_000_000
)

// Upload rejection errors
var (
	ErrUnsupportedFormat = errors.New("please upload an image (jpg, jpeg or png)")
	ErrTooLarge          = errors.New("image must be smaller than 1MB")
	ErrInvalidImage      = errors.New("uploaded file is not a valid image")
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// ValidateUpload gates an upload by filename extension and size. It runs
// before the file content is read so rejected uploads cost nothing.
func ValidateUpload(filename string, size int64) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return ErrUnsupportedFormat
	}
	if size > MaxUploadSize {
		return ErrTooLarge
	}
	return nil
}

// Process decodes the uploaded bytes, resizes to Width×Height and encodes
// the result as PNG.
func Process(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrInvalidImage
	}

	resized := imaging.Resize(img, Width, Height, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.PNG); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
