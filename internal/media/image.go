// Package media wraps the one-shot encode/decode transforms behind the
// file tool endpoints: images, speech synthesis and audio extraction.
package media

import (
	"fmt"
	"io"
	"strings"

	"github.com/disintegration/imaging"

	// webp uploads are decode-only
	_ "golang.org/x/image/webp"
)

// compressQuality is the fixed JPEG quality for the compression tool.
const compressQuality = 30

var formats = map[string]struct {
	format imaging.Format
	ext    string
}{
	"PNG":  {imaging.PNG, "png"},
	"JPG":  {imaging.JPEG, "jpeg"},
	"JPEG": {imaging.JPEG, "jpeg"},
	"GIF":  {imaging.GIF, "gif"},
	"BMP":  {imaging.BMP, "bmp"},
	"TIF":  {imaging.TIFF, "tif"},
	"TIFF": {imaging.TIFF, "tiff"},
}

// ConvertImage re-encodes an uploaded image into the requested target
// format and returns the extension the artifact should carry. The
// format name is case-insensitive; JPG is normalized to JPEG.
func ConvertImage(w io.Writer, r io.Reader, format string) (string, error) {
	target, ok := formats[strings.ToUpper(format)]
	if !ok {
		return "", fmt.Errorf("unsupported target format %q", format)
	}

	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return "", err
	}

	if err := imaging.Encode(w, img, target.format); err != nil {
		return "", err
	}
	return target.ext, nil
}

// CompressImage re-encodes an uploaded image as a low-quality JPEG.
func CompressImage(w io.Writer, r io.Reader) error {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return err
	}
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(compressQuality))
}
