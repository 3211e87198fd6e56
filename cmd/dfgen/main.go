// Command dfgen generates a distance field from rendered text or a
// test shape and saves a grayscale visualization as PNG.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/distfield"
	_ "github.com/gogpu/distfield/gpu"
)

func main() {
	var (
		width   = flag.Int("width", 256, "field width")
		height  = flag.Int("height", 256, "field height")
		text    = flag.String("text", "", "render this text as input (empty: circle)")
		size    = flag.Float64("size", 160, "font size in points")
		quality = flag.Int("quality", 1, "quality level 0..2")
		device  = flag.String("device", "", "device name (empty: auto)")
		output  = flag.String("output", "field.png", "output file")
	)
	flag.Parse()

	var opts []distfield.Option
	if *device != "" {
		dev, err := distfield.NewDevice(*device)
		if err != nil {
			log.Fatalf("Failed to create device %q: %v", *device, err)
		}
		opts = append(opts, distfield.WithDevice(dev))
	}

	gen := distfield.New(opts...)
	defer gen.Destroy()

	input, err := makeInput(*width, *height, *text, *size)
	if err != nil {
		log.Fatalf("Failed to build input: %v", err)
	}

	if err := gen.Generate(input, distfield.Quality(*quality)); err != nil {
		log.Fatalf("Failed to generate: %v", err)
	}

	field, err := gen.Field()
	if err != nil {
		log.Fatalf("Failed to read field: %v", err)
	}

	if err := visualize(field).SavePNG(*output); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}

	lo, hi := field.MinMax()
	log.Printf("Field saved to %s (%dx%d, range %.2f..%.2f)\n",
		*output, *width, *height, lo, hi)
}

// makeInput renders an antialiased grayscale input image. Text is
// drawn with the Go regular font; without text a filled circle covers
// the center of the canvas.
func makeInput(width, height int, text string, size float64) (*distfield.Pixmap, error) {
	if text == "" {
		pm := distfield.NewPixmap(width, height)
		drawCircle(pm, float64(width)/2, float64(height)/2,
			math.Min(float64(width), float64(height))/3)
		return pm, nil
	}

	parsed, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create face: %w", err)
	}
	defer face.Close()

	// Black glyphs on white, the orientation Generate expects.
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: face,
	}
	bounds, _ := drawer.BoundString(text)
	textW := (bounds.Max.X - bounds.Min.X).Ceil()
	textH := (bounds.Max.Y - bounds.Min.Y).Ceil()
	drawer.Dot = fixed.Point26_6{
		X: fixed.I((width - textW) / 2),
		Y: fixed.I((height-textH)/2) - bounds.Min.Y,
	}
	drawer.DrawString(text)

	return distfield.FromImage(img), nil
}

// drawCircle fills an antialiased black circle on white using
// per-pixel edge coverage, producing the gradient boundary the seed
// pass expects.
func drawCircle(pm *distfield.Pixmap, cx, cy, r float64) {
	for y := 0; y < pm.Height(); y++ {
		for x := 0; x < pm.Width(); x++ {
			d := math.Hypot(float64(x)-cx, float64(y)-cy)
			cov := r - d + 0.5
			if cov < 0 {
				cov = 0
			}
			if cov > 1 {
				cov = 1
			}
			pm.SetPixel(x, y, distfield.Gray(1-cov))
		}
	}
}

// visualize maps the field to a grayscale pixmap: mid-gray at the
// contour, darker inside, lighter outside.
func visualize(field *distfield.Field) *distfield.Pixmap {
	lo, hi := field.MinMax()
	span := math.Max(math.Abs(lo), math.Abs(hi))
	if span == 0 {
		span = 1
	}
	pm := distfield.NewPixmap(field.Width(), field.Height())
	for y := 0; y < field.Height(); y++ {
		for x := 0; x < field.Width(); x++ {
			d := field.DistanceAt(x, y)
			g := 0.5 + d/(2*span)
			pm.SetPixel(x, y, distfield.Gray(g))
		}
	}
	return pm
}
