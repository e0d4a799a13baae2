package render

import (
	"math"

	"github.com/nvandessel/orbitsim/internal/constants"
	"github.com/nvandessel/orbitsim/internal/physics"
)

// Zoom limits in cells per AU.
const (
	MinCellsPerAU = 0.25
	MaxCellsPerAU = 4096
)

// Viewport maps world coordinates in meters onto terminal cells. World +y
// points down the screen.
type Viewport struct {
	Width, Height int

	// CellsPerAU is the horizontal scale.
	CellsPerAU float64

	// Aspect is the cell height/width ratio; rows are scaled by 1/Aspect.
	Aspect float64

	// Center is the world point drawn at the middle of the screen.
	Center physics.Vec2
}

// NewViewport returns a viewport of the given size centered on the origin.
func NewViewport(width, height int, cellsPerAU float64) Viewport {
	return Viewport{
		Width:      width,
		Height:     height,
		CellsPerAU: cellsPerAU,
		Aspect:     constants.CellAspect,
	}
}

// Project returns the cell for world point p and whether it is on screen.
func (v Viewport) Project(p physics.Vec2) (x, y int, ok bool) {
	scale := v.CellsPerAU / constants.AU
	fx := float64(v.Width)/2 + (p.X-v.Center.X)*scale
	fy := float64(v.Height)/2 + (p.Y-v.Center.Y)*scale/v.Aspect
	if math.IsNaN(fx) || math.IsNaN(fy) {
		return 0, 0, false
	}
	fx, fy = math.Floor(fx), math.Floor(fy)
	if fx < 0 || fy < 0 || fx >= float64(v.Width) || fy >= float64(v.Height) {
		return 0, 0, false
	}
	return int(fx), int(fy), true
}

// Zoom multiplies the scale by factor, clamped to the zoom limits.
func (v *Viewport) Zoom(factor float64) {
	v.CellsPerAU = min(max(v.CellsPerAU*factor, MinCellsPerAU), MaxCellsPerAU)
}

// Pan moves the center by dx columns and dy rows.
func (v *Viewport) Pan(dx, dy int) {
	perCell := constants.AU / v.CellsPerAU
	v.Center.X += float64(dx) * perCell
	v.Center.Y += float64(dy) * perCell * v.Aspect
}

// Resize sets the screen size in cells.
func (v *Viewport) Resize(width, height int) {
	v.Width, v.Height = width, height
}
