// Package transform produces fixed-dimension, padded JPEGs sized for a
// target social platform.
package transform

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"socialgen/internal/domain"
)

type box struct {
	width  int
	height int
}

// Target boxes per platform. Unknown platforms fall back to the Instagram
// square rather than failing.
var platformBoxes = map[string]box{
	"instagram": {1080, 1080},
	"facebook":  {1200, 630},
	"twitter":   {1200, 675},
	"linkedin":  {1200, 627},
}

const defaultPlatform = "instagram"

const jpegQuality = 90

// PlatformSize reports the output dimensions used for a platform identifier.
func PlatformSize(platform string) (width, height int) {
	b, ok := platformBoxes[platform]
	if !ok {
		b = platformBoxes[defaultPlatform]
	}
	return b.width, b.height
}

// ResizeForPlatform decodes src, shrinks it to fit the platform box without
// upscaling, centers it on a white canvas of exactly the box dimensions and
// re-encodes as JPEG. The conversion to RGB is lossy: alpha and other
// channels are dropped because the output is always JPEG.
func ResizeForPlatform(src []byte, platform string) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidImage, err)
	}

	width, height := PlatformSize(platform)
	fitted := imaging.Fit(img, width, height, imaging.Lanczos)
	canvas := imaging.New(width, height, color.White)
	// PasteCenter uses integer centering, so any rounding remainder lands on
	// the right/bottom edge.
	out := imaging.PasteCenter(canvas, fitted)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("%w: encode jpeg: %v", domain.ErrStorage, err)
	}
	return buf.Bytes(), nil
}

// Decodable verifies that data parses as a raster image without decoding the
// full pixel buffer. Used to reject unusable inputs before any gateway call.
func Decodable(data []byte) error {
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidImage, err)
	}
	return nil
}
