package scene

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
)

// Image returns the map as 16-bit grayscale scaled so the thickest pixel
// is white. Empty pixels are black.
func (m *ThicknessMap) Image() *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, m.Width, m.Height))
	if m.Max <= 0 {
		return img
	}
	scale := float64(0xffff) / m.Max
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			img.SetGray16(x, y, color.Gray16{Y: uint16(m.At(x, y)*scale + 0.5)})
		}
	}
	return img
}

// EncodePNG writes the grayscale map to w.
func (m *ThicknessMap) EncodePNG(w io.Writer) error {
	if err := png.Encode(w, m.Image()); err != nil {
		return fmt.Errorf("encoding PNG: %w", err)
	}
	return nil
}

// WritePNG saves the map to path, creating parent directories.
func (m *ThicknessMap) WritePNG(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	if err := m.EncodePNG(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
