package overlay

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ayusman/abhinaya/internal/interaction"
)

var (
	hudText       = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	hudBackground = color.RGBA{A: 160}
	recColor      = color.RGBA{R: 230, G: 30, B: 30, A: 255}
	rotateColor   = color.RGBA{R: 255, G: 200, B: 0, A: 255}
)

const (
	hudMargin     = 8
	hudLineHeight = 16
	hudPanelWidth = 150
	// Height of the text panel: three lines plus padding.
	hudPanelHeight = 3*hudLineHeight + 8
	markerSize     = 14
)

// DrawHUD writes the zoom, distance and expression lines in the top-left
// corner, a REC badge while recording and a marker in the top-right corner
// while rotation is changing the zoom.
func DrawHUD(img *image.RGBA, view interaction.View) {
	b := img.Bounds()

	panel := image.Rect(b.Min.X+hudMargin, b.Min.Y+hudMargin,
		b.Min.X+hudMargin+hudPanelWidth, b.Min.Y+hudMargin+hudPanelHeight)
	draw.Draw(img, panel.Intersect(b), image.NewUniform(hudBackground), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(hudText),
		Face: basicfont.Face7x13,
	}
	lines := []string{
		"Zoom: " + view.ZoomText,
		"Distance: " + view.DistanceText,
		"Mood: " + view.Expression.Name(),
	}
	for i, line := range lines {
		d.Dot = fixed.P(panel.Min.X+4, panel.Min.Y+(i+1)*hudLineHeight)
		d.DrawString(line)
	}

	if view.Recording {
		badge := image.Rect(b.Min.X+hudMargin, panel.Max.Y+4, b.Min.X+hudMargin+40, panel.Max.Y+4+hudLineHeight+2)
		draw.Draw(img, badge.Intersect(b), image.NewUniform(recColor), image.Point{}, draw.Src)
		d.Dot = fixed.P(badge.Min.X+10, badge.Max.Y-4)
		d.DrawString("REC")
	}

	if view.RotationIndicator {
		marker := image.Rect(b.Max.X-hudMargin-markerSize, b.Min.Y+hudMargin, b.Max.X-hudMargin, b.Min.Y+hudMargin+markerSize)
		draw.Draw(img, marker.Intersect(b), image.NewUniform(rotateColor), image.Point{}, draw.Src)
	}
}
