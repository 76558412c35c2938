package preview

import (
	"bufio"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
)

var ErrUnsupportedFormat = errors.New("unsupported image format")

// FormatFromPath returns the lower-case extension of path without the dot.
func FormatFromPath(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

func IsImageFormat(format string) bool {
	switch format {
	case "png", "webp", "bmp", "tga":
		return true
	}
	return false
}

// Encode writes img as png, webp, bmp or tga.
func Encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case "png":
		return png.Encode(w, img)
	case "webp":
		return nativewebp.Encode(w, img, nil)
	case "bmp":
		return bmp.Encode(w, img)
	case "tga":
		return tga.Encode(w, img)
	}
	return errors.Wrap(ErrUnsupportedFormat, format)
}

func Save(img image.Image, path string) error {
	format := FormatFromPath(path)
	if !IsImageFormat(format) {
		return errors.Wrap(ErrUnsupportedFormat, path)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if err := Encode(w, img, format); err != nil {
		return err
	}
	return w.Flush()
}

// EncodeAnimation writes frames as an animated webp. delay is in milliseconds.
func EncodeAnimation(w io.Writer, frames []image.Image, delay uint, loop bool) error {
	if len(frames) == 0 {
		return errors.New("no frames")
	}
	ani := &nativewebp.Animation{Images: frames}
	for range frames {
		ani.Durations = append(ani.Durations, delay)
		ani.Disposals = append(ani.Disposals, 0)
	}
	if !loop {
		ani.LoopCount = 1
	}
	return nativewebp.EncodeAll(w, ani, nil)
}

func SaveAnimation(frames []image.Image, delay uint, loop bool, path string) error {
	if FormatFromPath(path) != "webp" {
		return errors.Wrap(ErrUnsupportedFormat, path)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if err := EncodeAnimation(w, frames, delay, loop); err != nil {
		return err
	}
	return w.Flush()
}
