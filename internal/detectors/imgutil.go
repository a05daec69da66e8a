package detectors

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"os"

	"github.com/jnguyen/visual-aoi/internal/roi"
)

// decodeImageFile reads and decodes a JPEG golden-sample file from disk.
func decodeImageFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	img, err := jpeg.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// crop extracts the ROI rectangle from frame into a freshly-allocated RGBA
// image, clamping to the frame bounds defensively (validation should have
// already rejected out-of-frame coords, but a detector never panics on bad
// input).
func crop(frame image.Image, c roi.Coords) *image.RGBA {
	b := frame.Bounds()
	x1, y1, x2, y2 := clampCoords(c, b.Dx(), b.Dy())
	rect := image.Rect(0, 0, x2-x1, y2-y1)
	out := image.NewRGBA(rect)
	draw.Draw(out, rect, frame, image.Pt(b.Min.X+x1, b.Min.Y+y1), draw.Src)
	return out
}

func clampCoords(c roi.Coords, w, h int) (x1, y1, x2, y2 int) {
	x1, y1, x2, y2 = c.X1, c.Y1, c.X2, c.Y2
	if x1 < 0 {
		x1 = 0
	}
	if y1 < 0 {
		y1 = 0
	}
	if x2 > w {
		x2 = w
	}
	if y2 > h {
		y2 = h
	}
	if x2 <= x1 {
		x2 = x1 + 1
	}
	if y2 <= y1 {
		y2 = y1 + 1
	}
	return
}

// denoise is a lightweight stand-in for the reference's non-local-means
// denoising: a box blur whose radius approximates the smoothing strength
// (h, hColor parameters collapse to a single radius since this is a pure-Go
// approximation, not a pixel-identical port).
func denoise(img *image.RGBA, radius int) *image.RGBA {
	if radius <= 0 {
		return img
	}
	b := img.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var rSum, gSum, bSum, count int
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					px, py := x+dx, y+dy
					if px < b.Min.X || px >= b.Max.X || py < b.Min.Y || py >= b.Max.Y {
						continue
					}
					r, g, bl, _ := img.At(px, py).RGBA()
					rSum += int(r >> 8)
					gSum += int(g >> 8)
					bSum += int(bl >> 8)
					count++
				}
			}
			out.Set(x, y, color.RGBA{
				R: uint8(rSum / count),
				G: uint8(gSum / count),
				B: uint8(bSum / count),
				A: 255,
			})
		}
	}
	return out
}

// meanRGB returns the mean R,G,B over every pixel in img.
func meanRGB(img image.Image) (r, g, b int) {
	bounds := img.Bounds()
	var rSum, gSum, bSum, n int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			pr, pg, pb, _ := img.At(x, y).RGBA()
			rSum += int(pr >> 8)
			gSum += int(pg >> 8)
			bSum += int(pb >> 8)
			n++
		}
	}
	if n == 0 {
		return 0, 0, 0
	}
	return rSum / n, gSum / n, bSum / n
}

// rotate90N rotates img by a multiple of 90 degrees clockwise, expanding
// the canvas rather than cropping — matching the OCR detector's
// rotate-before-read step.
func rotate90N(img image.Image, degrees int) image.Image {
	steps := (degrees / 90) % 4
	if steps < 0 {
		steps += 4
	}
	cur := img
	for i := 0; i < steps; i++ {
		cur = rotate90(cur)
	}
	return cur
}

func rotate90(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewRGBA(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Set(h-1-y, x, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return out
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func resizeToMatch(img image.Image, w, h int) *image.RGBA {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		out := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
		return out
	}
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		sy := b.Min.Y + y*b.Dy()/h
		for x := 0; x < w; x++ {
			sx := b.Min.X + x*b.Dx()/w
			out.Set(x, y, img.At(sx, sy))
		}
	}
	return out
}
