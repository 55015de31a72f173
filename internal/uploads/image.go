package uploads

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"
)

var (
	ErrEmptyFile       = errors.New("no file uploaded")
	ErrTooLarge        = errors.New("file too large")
	ErrUnsupportedType = errors.New("only image files are allowed")
	ErrCorruptImage    = errors.New("image could not be decoded")
)

// imageType describes one accepted upload format.
type imageType struct {
	ext string
	// resizable formats are re-encoded when wider than the limit. GIF may be
	// animated and WebP has no pure Go encoder, so both are stored as sent.
	resizable bool
	format    imaging.Format
}

var allowedTypes = map[string]imageType{
	"image/jpeg": {ext: ".jpg", resizable: true, format: imaging.JPEG},
	"image/png":  {ext: ".png", resizable: true, format: imaging.PNG},
	"image/gif":  {ext: ".gif"},
	"image/webp": {ext: ".webp"},
}

// Prepared is an upload that passed sniffing and was possibly downscaled.
type Prepared struct {
	Data        []byte
	ContentType string
	Ext         string
	Width       int
	Height      int
	Resized     bool
}

// Processor validates and normalizes image uploads.
type Processor struct {
	MaxBytes int64
	// MaxWidth of zero disables downscaling.
	MaxWidth    int
	JPEGQuality int
}

// Prepare sniffs data, rejects anything that is not an allowed image and
// downscales JPEG and PNG wider than MaxWidth keeping the aspect ratio.
func (p Processor) Prepare(data []byte) (Prepared, error) {
	if len(data) == 0 {
		return Prepared{}, ErrEmptyFile
	}
	if p.MaxBytes > 0 && int64(len(data)) > p.MaxBytes {
		return Prepared{}, ErrTooLarge
	}

	mt := mimetype.Detect(data)
	kind, ok := allowedTypes[mt.String()]
	if !ok {
		return Prepared{}, fmt.Errorf("%w: %s", ErrUnsupportedType, mt.String())
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Prepared{}, fmt.Errorf("%w: %v", ErrCorruptImage, err)
	}

	out := Prepared{
		Data:        data,
		ContentType: mt.String(),
		Ext:         kind.ext,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}
	if !kind.resizable || p.MaxWidth <= 0 || cfg.Width <= p.MaxWidth {
		return out, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return Prepared{}, fmt.Errorf("%w: %v", ErrCorruptImage, err)
	}
	resized := imaging.Resize(img, p.MaxWidth, 0, imaging.Lanczos)

	quality := p.JPEGQuality
	if quality <= 0 {
		quality = 85
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, kind.format, imaging.JPEGQuality(quality)); err != nil {
		return Prepared{}, fmt.Errorf("encode resized image: %w", err)
	}

	b := resized.Bounds()
	out.Data = buf.Bytes()
	out.Width = b.Dx()
	out.Height = b.Dy()
	out.Resized = true
	return out, nil
}
