package services

import (
	"bytes"
	"image"
	"image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wardrobe/internal/models"
	"github.com/disintegration/imaging"
)

// ImagePreparer shrinks oversized photos before upload.
//
// Phone cameras produce images far larger than a gallery card needs. Files that are not decodable
// images, or already fit, are sent unchanged.
type ImagePreparer struct {
	maxDim  int
	quality int
	logger  *log.Logger
}

// NewImagePreparer creates an [ImagePreparer]. maxDim <= 0 disables resizing.
func NewImagePreparer(maxDim, quality int, logger *log.Logger) *ImagePreparer {
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	return &ImagePreparer{maxDim: maxDim, quality: quality, logger: logger}
}

// Prepare returns the file to send. The second result reports whether the data was re-encoded.
func (p *ImagePreparer) Prepare(file models.UploadFile) (models.UploadFile, bool) {
	if p == nil || p.maxDim <= 0 {
		return file, false
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(file.Data))
	if err != nil {
		return file, false
	}
	if cfg.Width <= p.maxDim && cfg.Height <= p.maxDim {
		return file, false
	}

	img, err := imaging.Decode(bytes.NewReader(file.Data), imaging.AutoOrientation(true))
	if err != nil {
		p.logger.Warn("could not decode image, sending original", "file", file.Name, "error", err)
		return file, false
	}

	resized := imaging.Fit(img, p.maxDim, p.maxDim, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: p.quality}); err != nil {
		p.logger.Warn("could not encode image, sending original", "file", file.Name, "error", err)
		return file, false
	}

	b := resized.Bounds()
	p.logger.Debug("resized image", "file", file.Name, "from", [2]int{cfg.Width, cfg.Height}, "to", [2]int{b.Dx(), b.Dy()})
	imagesResizedTotal.Inc()

	return models.UploadFile{Name: jpegName(file.Name), Data: buf.Bytes()}, true
}

func jpegName(name string) string {
	ext := filepath.Ext(name)
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return name
	}
	return strings.TrimSuffix(name, ext) + ".jpg"
}
