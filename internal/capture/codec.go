package capture

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// JPEGQuality is used for detector input and the MJPEG preview.
const JPEGQuality = 80

// EncodeMatJPEG compresses a BGR frame.
func EncodeMatJPEG(mat *gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, *mat, []int{gocv.IMWriteJpegQuality, JPEGQuality})
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	// The native buffer is freed on Close.
	return append([]byte(nil), buf.GetBytes()...), nil
}

// EncodeJPEG compresses a rendered image.
func EncodeJPEG(img image.Image) ([]byte, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert image: %w", err)
	}
	defer mat.Close()

	return EncodeMatJPEG(&mat)
}

// MatToImage converts a BGR frame into an image.Image for drawing.
func MatToImage(mat *gocv.Mat) (image.Image, error) {
	if mat == nil || mat.Empty() {
		return nil, ErrEmptyFrame
	}
	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	return img, nil
}
