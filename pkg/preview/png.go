package preview

import (
	"bytes"
	"image"
	"image/draw"
	"image/png"
	"math"

	"golang.org/x/image/vector"

	"github.com/matzehuels/scribe/pkg/errors"
)

// PNG rasterises one page. Each segment is filled as a quad of the pen
// width and every joint as a square of the same width. All quads wind the
// same way so that overlaps do not cancel.
func PNG(pages []Page, f Frame, opts ...Option) ([]byte, error) {
	r := newRenderer(opts...)
	p, f, err := r.selectPage(pages, f)
	if err != nil {
		return nil, err
	}

	width := int(math.Ceil(f.Width() * r.scale))
	height := int(math.Ceil(f.Height() * r.scale))
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(r.paper), image.Point{}, draw.Src)

	raster := vector.NewRasterizer(width, height)
	device := func(pt Point) (float64, float64) {
		return (pt.X - f.MinX) * r.scale, (f.MaxY - pt.Y) * r.scale
	}
	hw := max(r.width*r.scale/2, 0.5)

	for _, s := range p {
		for i, pt := range s {
			x, y := device(pt)
			quad(raster, x-hw, y+hw, x+hw, y+hw, x+hw, y-hw, x-hw, y-hw)
			if i == 0 {
				continue
			}
			px, py := device(s[i-1])
			vx, vy := x-px, y-py
			l := math.Hypot(vx, vy)
			if l == 0 {
				continue
			}
			nx, ny := -vy/l*hw, vx/l*hw
			quad(raster, px+nx, py+ny, x+nx, y+ny, x-nx, y-ny, px-nx, py-ny)
		}
	}
	raster.Draw(img, img.Bounds(), image.NewUniform(r.ink), image.Point{})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode png")
	}
	return buf.Bytes(), nil
}

func quad(z *vector.Rasterizer, x1, y1, x2, y2, x3, y3, x4, y4 float64) {
	z.MoveTo(float32(x1), float32(y1))
	z.LineTo(float32(x2), float32(y2))
	z.LineTo(float32(x3), float32(y3))
	z.LineTo(float32(x4), float32(y4))
	z.ClosePath()
}
