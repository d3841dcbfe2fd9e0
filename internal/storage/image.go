// Package storage validates recipe images and keeps their files.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"path"

	"github.com/bbrks/go-blurhash"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// RecipeImageDir is the storage prefix for recipe images.
const RecipeImageDir = "uploads/recipe"

// blurHashSize bounds the thumbnail used for BlurHash; the hash is a low-resolution placeholder.
const blurHashSize = 64

// MaxImagePixels caps the decoded canvas; the compressed size says little about it.
const MaxImagePixels = 40_000_000

// ErrNotImage is returned for payloads that do not decode as a supported raster image.
var ErrNotImage = errors.New("not a supported image")

var extensions = map[string]string{
	"jpeg": "jpg",
	"png":  "png",
	"gif":  "gif",
	"webp": "webp",
}

// Image describes a decoded upload.
type Image struct {
	Format   string
	Width    int
	Height   int
	BlurHash string
}

// Ext returns the file extension for the decoded format.
func (i *Image) Ext() string {
	return extensions[i.Format]
}

// ContentType returns the MIME type for the decoded format.
func (i *Image) ContentType() string {
	return "image/" + i.Format
}

// Inspect fully decodes data. Truncated or corrupt files fail with ErrNotImage.
func Inspect(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrNotImage)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > MaxImagePixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrNotImage, cfg.Width, cfg.Height, MaxImagePixels)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	if _, ok := extensions[format]; !ok {
		return nil, fmt.Errorf("%w: unsupported format %q", ErrNotImage, format)
	}

	bounds := img.Bounds()
	info := &Image{Format: format, Width: bounds.Dx(), Height: bounds.Dy()}

	// 4x3 components keep the hash around 20-30 chars.
	hash, err := blurhash.Encode(4, 3, thumbnail(img))
	if err == nil {
		info.BlurHash = hash
	}
	return info, nil
}

// NewImageName returns a fresh unique storage name like "uploads/recipe/<uuid>.png".
func NewImageName(ext string) string {
	return path.Join(RecipeImageDir, uuid.NewString()+"."+ext)
}

// thumbnail scales img down with nearest-neighbour sampling.
func thumbnail(img image.Image) image.Image {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW <= blurHashSize && srcH <= blurHashSize {
		return img
	}

	dstW, dstH := blurHashSize, blurHashSize
	if srcW > srcH {
		dstH = max(1, srcH*blurHashSize/srcW)
	} else {
		dstW = max(1, srcW*blurHashSize/srcH)
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	xRatio := float64(srcW) / float64(dstW)
	yRatio := float64(srcH) / float64(dstH)
	for y := 0; y < dstH; y++ {
		for x := 0; x < dstW; x++ {
			dst.Set(x, y, img.At(bounds.Min.X+int(float64(x)*xRatio), bounds.Min.Y+int(float64(y)*yRatio)))
		}
	}
	return dst
}
