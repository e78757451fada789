package api

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
)

// previewWidth is the width recipe previews are scaled to.
const previewWidth = 800

var (
	errInvalidImageType = errors.New("invalid image type")
	errUndecodableImage = errors.New("undecodable image")
)

var allowedExtensions = map[string]string{
	".jpeg": "jpeg",
	".jpg":  "jpeg",
	".png":  "png",
}

// readImage reads an uploaded image and returns its bytes, lowercase
// extension and format.
func readImage(file *multipart.FileHeader) ([]byte, string, string, error) {
	extension := strings.ToLower(filepath.Ext(file.Filename))
	format, ok := allowedExtensions[extension]
	if !ok {
		return nil, "", "", errInvalidImageType
	}

	src, err := file.Open()
	if err != nil {
		return nil, "", "", fmt.Errorf("open file err: %w", err)
	}
	defer src.Close()

	imageData, err := io.ReadAll(src)
	if err != nil {
		return nil, "", "", fmt.Errorf("read image err: %w", err)
	}
	return imageData, extension, format, nil
}

// saveImage scales an image to previewWidth and writes it to dir, named by
// its hash. It returns the written path.
func saveImage(dir string, imageData []byte, imageHash string, originalExtension string) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return "", fmt.Errorf("%w: %v", errUndecodableImage, err)
	}

	if img.Bounds().Dx() > previewWidth {
		img = resize.Resize(previewWidth, 0, img, resize.Lanczos3)
	}

	// Create the images directory if it doesn't exist
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create images directory: %w", err)
	}

	imagePath := filepath.Join(dir, imageHash+originalExtension)
	out, err := os.Create(imagePath)
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}
	defer out.Close()

	switch originalExtension {
	case ".jpeg", ".jpg":
		err = jpeg.Encode(out, img, nil)
	case ".png":
		err = png.Encode(out, img)
	default:
		return "", fmt.Errorf("unsupported image format: %s", originalExtension)
	}

	if err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}

	return imagePath, nil
}
