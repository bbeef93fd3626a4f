package surface

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Load decodes the image at path into a Surface. A failed decode is
// recoverable at the call site: the affected view stays empty while other
// views are unaffected.
func Load(path string) (*Surface, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	s := FromImage(img)
	log.Debug().
		Str("path", path).
		Str("format", format).
		Int("width", s.Width()).
		Int("height", s.Height()).
		Msg("image loaded")

	return s, nil
}

// SupportedFormats returns the list of supported image file extensions.
func SupportedFormats() []string {
	return []string{".png", ".jpg", ".jpeg", ".tiff", ".tif", ".bmp", ".gif"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}

// FileFilter returns a file filter string for use in file dialogs.
func FileFilter() string {
	return "Image Files (*.png, *.jpg, *.jpeg, *.tiff, *.tif, *.bmp, *.gif)"
}
