package render

import (
	"image"
	"image/color"
	stddraw "image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	white      = color.RGBA{0xff, 0xff, 0xff, 0xff}
	ink        = color.RGBA{0x1f, 0x23, 0x28, 0xff}
	stripeFill = color.RGBA{0xee, 0xf1, 0xf4, 0xff}
	headerFill = color.RGBA{0x2b, 0x4a, 0x6f, 0xff}
)

const headerHeight = 96

// Paint draws a page onto a new canvas. A nil background gets a plain
// generated header band instead of a map.
func Paint(p Page, bg image.Image) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, p.Width, p.Height))
	stddraw.Draw(canvas, canvas.Bounds(), image.NewUniform(white), image.Point{}, stddraw.Src)

	face := basicfont.Face7x13
	if bg != nil {
		xdraw.CatmullRom.Scale(canvas, canvas.Bounds(), bg, bg.Bounds(), xdraw.Over, nil)
	} else {
		band := image.Rect(0, 0, p.Width, headerHeight)
		stddraw.Draw(canvas, band, image.NewUniform(headerFill), image.Point{}, stddraw.Src)
		drawText(canvas, face, white, p.Header.X, p.Header.Y, p.Width-2*p.Header.X, p.Title)
	}

	for _, row := range p.Rows {
		if row.Stripe {
			r := image.Rect(row.Rect.X, row.Rect.Y, row.Rect.X+row.Rect.W, row.Rect.Y+row.Rect.H)
			stddraw.Draw(canvas, r, image.NewUniform(stripeFill), image.Point{}, stddraw.Over)
		}
		for _, c := range row.Cells {
			baseline := c.Rect.Y + (c.Rect.H+face.Ascent-face.Descent)/2
			drawText(canvas, face, ink, c.Rect.X+2, baseline, c.Rect.W-4, c.Text)
		}
	}
	return canvas
}

// drawText draws s with its baseline at y, truncated to fit maxW pixels.
func drawText(dst stddraw.Image, face font.Face, c color.Color, x, y, maxW int, s string) {
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(c), Face: face}
	s = fit(d, s, maxW)
	d.Dot = fixed.P(x, y)
	d.DrawString(s)
}

func fit(d *font.Drawer, s string, maxW int) string {
	if maxW <= 0 || d.MeasureString(s).Ceil() <= maxW {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && d.MeasureString(string(r)+"...").Ceil() > maxW {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
