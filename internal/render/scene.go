// Package render draws simulation snapshots onto a terminal with tcell and
// runs the interactive view.
package render

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/nvandessel/orbitsim/internal/constants"
	"github.com/nvandessel/orbitsim/internal/simulation"
)

// Canvas is the part of tcell.Screen the scene is drawn on.
type Canvas interface {
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
	Size() (width, height int)
}

// Glyphs used by the scene.
const (
	GlyphReference = '@'
	GlyphBody      = 'o'
	GlyphTrail     = '.'
)

// Options toggles optional scene layers.
type Options struct {
	ShowTrails    bool
	ShowDistances bool
}

// Status is the text state shown in the header and footer.
type Status struct {
	Step    int
	Elapsed float64
	Scale   float64
	Paused  bool
	Err     error
}

var (
	styleText  = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleError = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleHint  = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

// DistanceLabel formats a distance in meters as kilometers with one decimal.
func DistanceLabel(meters float64) string {
	return fmt.Sprintf("%.1fkm", meters/1000)
}

// BodyStyle returns the style for a body color such as "#6495ed" or "red".
// Unknown colors draw white.
func BodyStyle(color string) tcell.Style {
	c := tcell.GetColor(color)
	if c == tcell.ColorDefault {
		c = tcell.ColorWhite
	}
	return tcell.StyleDefault.Foreground(c)
}

// Draw clears c and draws trails, bodies, distance labels and status lines.
func Draw(c Canvas, vp Viewport, bodies []simulation.BodyState, st Status, opts Options) {
	w, h := c.Size()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c.SetContent(x, y, ' ', nil, tcell.StyleDefault)
		}
	}

	if opts.ShowTrails {
		for _, b := range bodies {
			style := BodyStyle(b.Color).Dim(true)
			for _, p := range b.Trail {
				if x, y, ok := vp.Project(p); ok {
					c.SetContent(x, y, GlyphTrail, nil, style)
				}
			}
		}
	}

	for _, b := range bodies {
		x, y, ok := vp.Project(b.Position)
		if !ok {
			continue
		}
		glyph := GlyphBody
		if b.Reference {
			glyph = GlyphReference
		}
		c.SetContent(x, y, glyph, nil, BodyStyle(b.Color).Bold(true))

		if opts.ShowDistances && !b.Reference {
			label := DistanceLabel(b.DistanceToReference)
			drawText(c, x-len(label)/2, y-1, label, styleText)
		}
	}

	header := fmt.Sprintf(" orbitsim  step %d  day %.1f  %.2f cells/AU", st.Step, st.Elapsed/constants.Day, st.Scale)
	if st.Paused {
		header += "  [paused]"
	}
	drawText(c, 0, 0, header, styleText)

	if st.Err != nil {
		drawText(c, 0, h-1, " "+st.Err.Error(), styleError)
	} else {
		drawText(c, 0, h-1, " q quit  space pause  +/- zoom  arrows pan  c center  t trails  d distances", styleHint)
	}
}

// drawText writes s from (x, y), clipping at the canvas edges.
func drawText(c Canvas, x, y int, s string, style tcell.Style) {
	w, h := c.Size()
	if y < 0 || y >= h {
		return
	}
	for _, r := range s {
		if x >= w {
			return
		}
		if x >= 0 {
			c.SetContent(x, y, r, nil, style)
		}
		x++
	}
}
