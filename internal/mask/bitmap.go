package mask

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"io"

	"golang.org/x/image/bmp"
)

// BinarizeThreshold separates foreground from background when loading
// mask artwork: values above it become 255, the rest 0.
const BinarizeThreshold = 127

// DecodeGray decodes a BMP or PNG stream into a single-channel image.
func DecodeGray(r io.Reader) (*image.Gray, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode bitmap: %w", err)
	}

	if g, ok := src.(*image.Gray); ok {
		return g, nil
	}

	bounds := src.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(src.At(x, y)))
		}
	}
	return gray, nil
}

// Binarize thresholds a grayscale image in place to {0, 255}.
func Binarize(img *image.Gray, threshold uint8) {
	for i, v := range img.Pix {
		if v > threshold {
			img.Pix[i] = 255
		} else {
			img.Pix[i] = 0
		}
	}
}

// EncodeBMP renders a grayscale image as an 8-bit BMP.
func EncodeBMP(img *image.Gray) ([]byte, error) {
	var buf bytes.Buffer
	if err := bmp.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode bmp: %w", err)
	}
	return buf.Bytes(), nil
}
