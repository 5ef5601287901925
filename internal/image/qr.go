package imagepkg

import (
	"context"
	"fmt"
	"image"

	qrcode "github.com/skip2/go-qrcode"
)

// GenerateQRPNG encodes text as a size×size QR code PNG at medium error
// correction, the level the back canvas uses.
func GenerateQRPNG(text string, size int) ([]byte, error) {
	b, err := qrcode.Encode(text, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("qr for %q: %w", text, err)
	}
	return b, nil
}

// GenerateQRImage returns an image.Image for further composition.
func GenerateQRImage(text string, size int) (image.Image, error) {
	q, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		return nil, err
	}
	return q.Image(size), nil
}

// QR is a Source that encodes text as a size×size QR code.
func QR(text string, size int) Source {
	return func(ctx context.Context) (image.Image, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return GenerateQRImage(text, size)
	}
}
