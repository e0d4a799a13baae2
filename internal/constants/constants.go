// Package constants provides named physical and astronomical constants used
// throughout orbitsim. The built-in scenarios are defined in terms of them.
package constants

// Physical constants
const (
	// GravitationalConstant is Newton's G in m³ kg⁻¹ s⁻².
	GravitationalConstant = 6.67428e-11

	// AU is one astronomical unit in meters.
	AU = 149.6e6 * 1000

	// Day is one day in seconds. It is the default simulation time step.
	Day = 3600 * 24

	// Year is 365 days in seconds.
	Year = 365 * Day
)

// Body masses in kilograms.
const (
	SunMass     = 1.98892e30
	MercuryMass = 3.30e23
	VenusMass   = 4.8685e24
	EarthMass   = 5.9742e24
	MarsMass    = 6.39e23
)

// Mean orbital radii in AU.
const (
	MercuryOrbitAU = 0.387
	VenusOrbitAU   = 0.723
	EarthOrbitAU   = 1.0
	MarsOrbitAU    = 1.524
)

// Mean orbital speeds in m/s.
const (
	MercurySpeed = 47.4 * 1000
	VenusSpeed   = 35.02 * 1000
	EarthSpeed   = 29.783 * 1000
	MarsSpeed    = 24.077 * 1000
)

// Display defaults
const (
	// DefaultCellsPerAU is the terminal view scale, in columns per AU. It
	// keeps Mars' orbit inside an 80-column half width, the way 200 px/AU
	// fits it in an 800 px window.
	DefaultCellsPerAU = 12.0

	// CellAspect is the height/width ratio of a typical terminal cell. Rows
	// are scaled by 1/CellAspect so circles stay round.
	CellAspect = 2.0
)
