// Package avatar renders owner initials as round PNG avatars.
package avatar

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"unicode/utf8"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/assetdesk/assetdesk/internal/palette"
)

// MaxInitials is the number of initials drawn; longer input is cut.
const MaxInitials = 3

// MinSize and MaxSize bound the rendered edge length in pixels.
const (
	MinSize     = 16
	MaxSize     = 512
	DefaultSize = 64
)

// Render draws initials centered on a colored circle and encodes it as PNG.
// The background color is picked from the palette by the initials, so an
// owner keeps the same color everywhere.
func Render(initials string, size int) ([]byte, error) {
	initials = normalize(initials)
	size = clampSize(size)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	bg := palette.Pick(initials).ToRGBA()
	draw.DrawMask(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, &circle{r: size / 2}, image.Point{}, draw.Over)

	text := renderText(initials)

	// Scale the glyphs to about half the avatar, keeping their aspect ratio.
	tb := text.Bounds()
	target := size / 2
	w := target * tb.Dx() / tb.Dy()
	if w > size*3/4 {
		w = size * 3 / 4
	}
	h := w * tb.Dy() / tb.Dx()
	if h < 1 {
		h = 1
	}
	x0 := (size - w) / 2
	y0 := (size - h) / 2
	draw.CatmullRom.Scale(dst, image.Rect(x0, y0, x0+w, y0+h), text, tb, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// renderText draws s in white with the 7x13 bitmap face on a transparent
// canvas one pixel larger than the text on each side.
func renderText(s string) *image.RGBA {
	face := basicfont.Face7x13
	width := font.MeasureString(face, s).Ceil()
	metrics := face.Metrics()
	height := (metrics.Ascent + metrics.Descent).Ceil()

	img := image.NewRGBA(image.Rect(0, 0, width+2, height+2))
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.P(1, 1+metrics.Ascent.Ceil()),
	}
	d.DrawString(s)
	return img
}

func normalize(initials string) string {
	initials = strings.ToUpper(strings.TrimSpace(initials))
	if initials == "" {
		return "?"
	}
	if utf8.RuneCountInString(initials) > MaxInitials {
		initials = string([]rune(initials)[:MaxInitials])
	}
	return initials
}

func clampSize(size int) int {
	switch {
	case size <= 0:
		return DefaultSize
	case size < MinSize:
		return MinSize
	case size > MaxSize:
		return MaxSize
	}
	return size
}

// circle is an alpha mask of a disc inscribed in a 2r square.
type circle struct {
	r int
}

func (c *circle) ColorModel() color.Model { return color.AlphaModel }

func (c *circle) Bounds() image.Rectangle { return image.Rect(0, 0, 2*c.r, 2*c.r) }

func (c *circle) At(x, y int) color.Color {
	dx := float64(x-c.r) + 0.5
	dy := float64(y-c.r) + 0.5
	if dx*dx+dy*dy <= float64(c.r*c.r) {
		return color.Alpha{A: 0xff}
	}
	return color.Alpha{}
}
