package ocr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrImageTooLarge is returned when an image exceeds the read limit.
var ErrImageTooLarge = errors.New("image exceeds size limit")

// Format describes an image encoding as vendors expect it.
type Format struct {
	Name string
	MIME string
	// FileType is the upper-case extension hint some vendors accept.
	FileType string
}

// FormatPNG is assumed for bytes that cannot be identified.
var FormatPNG = Format{Name: "png", MIME: "image/png", FileType: "PNG"}

var formats = map[string]Format{
	"png":  FormatPNG,
	"jpeg": {Name: "jpeg", MIME: "image/jpeg", FileType: "JPG"},
	"gif":  {Name: "gif", MIME: "image/gif", FileType: "GIF"},
	"bmp":  {Name: "bmp", MIME: "image/bmp", FileType: "BMP"},
	"tiff": {Name: "tiff", MIME: "image/tiff", FileType: "TIF"},
	"webp": {Name: "webp", MIME: "image/webp"},
}

// DetectFormat sniffs the image encoding from its header.
// Unknown or corrupt data is reported as PNG; vendors reject it themselves.
func DetectFormat(data []byte) Format {
	_, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return FormatPNG
	}
	if f, ok := formats[name]; ok {
		return f
	}
	return FormatPNG
}

// LoadImage reads an image file from disk.
func LoadImage(path string) ([]byte, error) {
	if path == "" {
		return nil, errors.New("image path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", path, err)
	}
	return data, nil
}

// ReadImage reads at most limit bytes from r. A non-positive limit disables the check.
func ReadImage(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read image: %w", err)
		}
		return data, nil
	}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, ErrImageTooLarge
	}
	return data, nil
}
