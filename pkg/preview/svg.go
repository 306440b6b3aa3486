package preview

import (
	"bytes"
	"fmt"
)

// SVG renders one page as an SVG document sized in mm. A zero frame fits
// the page's strokes.
func SVG(pages []Page, f Frame, opts ...Option) ([]byte, error) {
	r := newRenderer(opts...)
	p, f, err := r.selectPage(pages, f)
	if err != nil {
		return nil, err
	}

	w, h := f.Width(), f.Height()
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.2fmm" height="%.2fmm">`+"\n",
		w, h, w, h)
	fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", hex(r.paper))
	fmt.Fprintf(&buf, `  <g fill="none" stroke="%s" stroke-width="%.2f" stroke-linecap="round" stroke-linejoin="round">`+"\n",
		hex(r.ink), r.width)
	for _, s := range p {
		buf.WriteString(`    <path d="`)
		for i, pt := range s {
			cmd := "L"
			if i == 0 {
				cmd = "M"
			} else {
				buf.WriteByte(' ')
			}
			fmt.Fprintf(&buf, "%s%.2f %.2f", cmd, pt.X-f.MinX, f.MaxY-pt.Y)
		}
		buf.WriteString(`"/>` + "\n")
	}
	buf.WriteString("  </g>\n</svg>\n")
	return buf.Bytes(), nil
}

func hex(c interface{ RGBA() (r, g, b, a uint32) }) string {
	r, g, b, _ := c.RGBA()
	return fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8)
}
