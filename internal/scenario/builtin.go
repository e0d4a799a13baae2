package scenario

import (
	"fmt"
	"math"
	"sort"

	"github.com/nvandessel/orbitsim/internal/constants"
)

var builtins = map[string]func() *Scenario{
	"solar":     solar,
	"earth-sun": earthSun,
	"binary":    binary,
}

// Names returns the built-in scenario names, sorted.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin returns a fresh copy of the named built-in scenario.
func Builtin(name string) (*Scenario, error) {
	mk, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownScenario, name, Names())
	}
	return mk(), nil
}

// solar is the Sun with the four inner planets on the +x axis, all moving
// clockwise.
func solar() *Scenario {
	planet := func(name string, au, speed, mass float64, color string) Body {
		return Body{Name: name, X: au * constants.AU, VY: -speed, Mass: mass, Color: color}
	}
	return &Scenario{
		Name:        "solar",
		Description: "The Sun and the four inner planets.",
		Bodies: []Body{
			{Name: "Sun", Mass: constants.SunMass, Reference: true, Color: "#ffff00"},
			planet("Earth", constants.EarthOrbitAU, constants.EarthSpeed, constants.EarthMass, "#6495ed"),
			planet("Mars", constants.MarsOrbitAU, constants.MarsSpeed, constants.MarsMass, "#bc2732"),
			planet("Mercury", constants.MercuryOrbitAU, constants.MercurySpeed, constants.MercuryMass, "#504e51"),
			planet("Venus", constants.VenusOrbitAU, constants.VenusSpeed, constants.VenusMass, "#ffffff"),
		},
	}
}

func earthSun() *Scenario {
	return &Scenario{
		Name:        "earth-sun",
		Description: "Earth on a near-circular orbit around the Sun.",
		Bodies: []Body{
			{Name: "Sun", Mass: 1.989e30, Reference: true, Color: "#ffff00"},
			{Name: "Earth", X: 1.496e11, VY: -29783, Mass: 5.974e24, Color: "#6495ed"},
		},
	}
}

// binary is two equal stars circling their barycenter with a planet on a
// wide orbit around both.
func binary() *Scenario {
	const (
		starMass   = 1.0e30
		separation = constants.AU
		planetAU   = 4.0
	)
	g := constants.GravitationalConstant
	starSpeed := math.Sqrt(g * starMass / (2 * separation))
	planetR := planetAU * constants.AU
	planetSpeed := math.Sqrt(g * 2 * starMass / planetR)

	return &Scenario{
		Name:        "binary",
		Description: "Two equal stars in a mutual orbit with a circumbinary planet.",
		Bodies: []Body{
			{Name: "Alpha", X: -separation / 2, VY: starSpeed, Mass: starMass, Reference: true, Color: "#ffcc66"},
			{Name: "Beta", X: separation / 2, VY: -starSpeed, Mass: starMass, Reference: true, Color: "#ff8844"},
			{Name: "Planet", X: planetR, VY: -planetSpeed, Mass: constants.EarthMass, Color: "#66ccff"},
		},
	}
}
