package graphics

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/draw"
)

// FrameImage converts a frame to an opaque RGBA image.
func FrameImage(frame *Frame) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	for i, px := range frame {
		img.Pix[i*4] = uint8(px >> 16)
		img.Pix[i*4+1] = uint8(px >> 8)
		img.Pix[i*4+2] = uint8(px)
		img.Pix[i*4+3] = 0xFF
	}
	return img
}

// WritePNG encodes the frame scaled by an integer factor with
// nearest-neighbour sampling.
func WritePNG(w io.Writer, frame *Frame, scale int) error {
	if scale < 1 {
		scale = 1
	}
	var img image.Image = FrameImage(frame)
	if scale > 1 {
		dst := image.NewRGBA(image.Rect(0, 0, Width*scale, Height*scale))
		draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
		img = dst
	}
	return png.Encode(w, img)
}

// SavePNG writes a screenshot to path.
func SavePNG(path string, frame *Frame, scale int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}
	if err := WritePNG(f, frame, scale); err != nil {
		f.Close()
		return fmt.Errorf("screenshot %s: %w", path, err)
	}
	return f.Close()
}
