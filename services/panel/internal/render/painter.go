package render

import (
	"image/color"

	qrcode "github.com/skip2/go-qrcode"
	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freemono"
	"tinygo.org/x/tinyfont/freesans"

	"inkpanel-go/errcode"
	"inkpanel-go/types"
)

// Surface is where frames land: a displayer plus a mode-aware flush.
// epd42.Device implements it on hardware; tests use an in-memory fake.
type Surface interface {
	drivers.Displayer
	Flush(mode types.RefreshMode) error
}

var (
	black = color.RGBA{A: 255}
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Fixed layout for the 400x300 panel.
const (
	marginX     = 20
	titleBaseY  = 38
	ruleY       = 50
	bodyTopY    = 80
	bodyStepY   = 22
	footerRuleY = 257
	footerTopY  = 272
	qrTopY      = 95
	qrTextX     = 170
	gaugeTopY   = 222
	gaugeH      = 14
)

var (
	titleFont = &freesans.Bold12pt7b
	bodyFont  = &freemono.Regular9pt7b
)

// Painter draws frames onto one surface. A nil painter or surface
// reports SurfaceUnavailable so callers can skip rendering and move on.
type Painter struct {
	s Surface
}

func NewPainter(s Surface) *Painter { return &Painter{s: s} }

func (p *Painter) Render(f types.Frame, mode types.RefreshMode) error {
	if p == nil || p.s == nil {
		return errcode.SurfaceUnavailable
	}
	w, h := p.s.Size()

	fillRect(p.s, 0, 0, w, h, white)

	tinyfont.WriteLine(p.s, titleFont, marginX, titleBaseY, f.Title, black)
	fillRect(p.s, marginX, ruleY, w-2*marginX, 2, black)

	bodyX := int16(marginX)
	if f.QR != "" && p.drawQR(f.QR) {
		bodyX = qrTextX
	}

	y := int16(bodyTopY)
	for _, line := range f.Body {
		if line != "" {
			tinyfont.WriteLine(p.s, bodyFont, bodyX, y, line, black)
		}
		y += bodyStepY
	}

	if f.HasGauge {
		p.drawGauge(f.GaugePct, w)
	}

	dottedHLine(p.s, marginX, w-marginX, footerRuleY, black)
	y = footerTopY
	for _, line := range f.Footer {
		tinyfont.WriteLine(p.s, bodyFont, marginX, y, line, black)
		y += 18
	}

	return p.s.Flush(mode)
}

// drawQR paints the payload as QR modules on the left half and reports
// whether anything was drawn.
func (p *Painter) drawQR(payload string) bool {
	q, err := qrcode.New(payload, qrcode.Low)
	if err != nil {
		return false
	}
	modules := q.Bitmap()
	n := int16(len(modules))
	if n == 0 {
		return false
	}

	// Scale to whatever fits between body top and footer.
	px := (footerRuleY - 4 - qrTopY) / n
	if px > 3 {
		px = 3
	}
	if px < 1 {
		return false
	}

	for my := int16(0); my < n; my++ {
		for mx := int16(0); mx < n; mx++ {
			if !modules[my][mx] {
				continue
			}
			fillRect(p.s, marginX+mx*px, qrTopY+my*px, px, px, black)
		}
	}
	return true
}

// drawGauge paints the CO2 bar: outline plus a fill proportional to pct.
func (p *Painter) drawGauge(pct int, w int16) {
	x0 := int16(marginX)
	barW := w - 2*marginX

	fillRect(p.s, x0, gaugeTopY, barW, 1, black)
	fillRect(p.s, x0, gaugeTopY+gaugeH, barW, 1, black)
	fillRect(p.s, x0, gaugeTopY, 1, gaugeH, black)
	fillRect(p.s, x0+barW-1, gaugeTopY, 1, gaugeH, black)

	fill := int16(int(barW-4) * pct / 100)
	if fill > 0 {
		fillRect(p.s, x0+2, gaugeTopY+2, fill, gaugeH-3, black)
	}
}

func fillRect(d drivers.Displayer, x, y, w, h int16, c color.RGBA) {
	for yy := y; yy < y+h; yy++ {
		for xx := x; xx < x+w; xx++ {
			d.SetPixel(xx, yy, c)
		}
	}
}

func dottedHLine(d drivers.Displayer, x0, x1, y int16, c color.RGBA) {
	for x := x0; x < x1; x += 3 {
		d.SetPixel(x, y, c)
	}
}
