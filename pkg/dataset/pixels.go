package dataset

import (
	"bytes"
	"image"
	"image/color"

	// decoders registered with image.Decode
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	apperrors "artscrape/pkg/errors"
)

// PixelArray is an image as Height x Width x Channels bytes, row major with
// channels interleaved
type PixelArray struct {
	Height   int
	Width    int
	Channels int
	Pix      []uint8
}

// At returns channel c of the pixel at row y, column x
func (p *PixelArray) At(y, x, c int) uint8 {
	return p.Pix[(y*p.Width+x)*p.Channels+c]
}

// Shape returns the array dimensions
func (p *PixelArray) Shape() (int, int, int) {
	return p.Height, p.Width, p.Channels
}

// Decode decodes JPEG, PNG, GIF, WebP, BMP or TIFF data
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.ErrorTypeDecode, err, "failed to decode image")
	}
	return img, format, nil
}

// ToPixelArray converts img to a PixelArray. Grayscale images get one
// channel and images whose colour model carries alpha get four (RGBA).
// Everything else gets three (RGB): paletted images are expanded to their
// palette colours rather than kept as indices, and CMYK JPEGs are converted
// to RGB.
func ToPixelArray(img image.Image) *PixelArray {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	channels := channelsOf(img.ColorModel())

	p := &PixelArray{
		Height:   h,
		Width:    w,
		Channels: channels,
		Pix:      make([]uint8, w*h*channels),
	}

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := img.At(x, y)
			if channels == 1 {
				p.Pix[i] = color.GrayModel.Convert(c).(color.Gray).Y
				i++
				continue
			}

			n := color.NRGBAModel.Convert(c).(color.NRGBA)
			p.Pix[i], p.Pix[i+1], p.Pix[i+2] = n.R, n.G, n.B
			if channels == 4 {
				p.Pix[i+3] = n.A
			}
			i += channels
		}
	}

	return p
}

func channelsOf(m color.Model) int {
	switch m {
	case color.GrayModel, color.Gray16Model:
		return 1
	case color.RGBAModel, color.RGBA64Model, color.NRGBAModel, color.NRGBA64Model, color.AlphaModel, color.Alpha16Model:
		return 4
	default:
		return 3
	}
}
