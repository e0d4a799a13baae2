package scenario

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/nvandessel/orbitsim/internal/constants"
	"github.com/nvandessel/orbitsim/internal/physics"
	"github.com/nvandessel/orbitsim/internal/simulation"
)

func TestNames(t *testing.T) {
	want := []string{"binary", "earth-sun", "solar"}
	if got := Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestBuiltin_Unknown(t *testing.T) {
	_, err := Builtin("andromeda")
	if !errors.Is(err, ErrUnknownScenario) {
		t.Errorf("expected ErrUnknownScenario, got %v", err)
	}
}

func TestBuiltin_ReturnsFreshCopy(t *testing.T) {
	a, err := Builtin("solar")
	if err != nil {
		t.Fatal(err)
	}
	a.Bodies[0].Mass = 1

	b, err := Builtin("solar")
	if err != nil {
		t.Fatal(err)
	}
	if b.Bodies[0].Mass != constants.SunMass {
		t.Errorf("mutating one copy changed another: mass %g", b.Bodies[0].Mass)
	}
}

func TestBuiltins_BuildAndStep(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			sc, err := Builtin(name)
			if err != nil {
				t.Fatal(err)
			}
			s, err := sc.Build(simulation.DefaultConfig())
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if s.Len() != len(sc.Bodies) {
				t.Errorf("Len() = %d, want %d", s.Len(), len(sc.Bodies))
			}
			if err := s.StepN(30); err != nil {
				t.Fatalf("StepN: %v", err)
			}
			simulation.AssertTrailLengths(t, s, 31)
			simulation.AssertReferenceDistances(t, s, 0)
		})
	}
}

func TestSolar_Layout(t *testing.T) {
	sc, err := Builtin("solar")
	if err != nil {
		t.Fatal(err)
	}

	wantOrder := []string{"Sun", "Earth", "Mars", "Mercury", "Venus"}
	for i, b := range sc.Bodies {
		if b.Name != wantOrder[i] {
			t.Errorf("body %d = %s, want %s", i, b.Name, wantOrder[i])
		}
		if b.Color == "" {
			t.Errorf("%s has no color", b.Name)
		}
		if b.Y != 0 || b.VX != 0 {
			t.Errorf("%s should start on the x axis moving along y", b.Name)
		}
		if (b.Name == "Sun") != b.Reference {
			t.Errorf("%s reference = %v", b.Name, b.Reference)
		}
	}
	if earth := sc.Bodies[1]; earth.X != constants.AU || earth.VY != -constants.EarthSpeed {
		t.Errorf("Earth starts at %g moving %g", earth.X, earth.VY)
	}
}

func TestBinary_StarsStayBound(t *testing.T) {
	sc, err := Builtin("binary")
	if err != nil {
		t.Fatal(err)
	}
	s, err := sc.Build(simulation.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	alpha, _ := s.Body("Alpha")
	beta, _ := s.Body("Beta")
	d0 := alpha.Position().Dist(beta.Position())

	err = s.StepN(365)
	if err != nil {
		t.Fatal(err)
	}
	for i, pa := range alpha.Trail() {
		d := pa.Dist(beta.Trail()[i])
		if math.Abs(d-d0) > 0.05*d0 {
			t.Fatalf("day %d: separation %.4g, initial %.4g", i, d, d0)
		}
	}
	// Each star's reference distance is the other star.
	if got, want := alpha.DistanceToReference(), alpha.Position().Dist(beta.Position()); got != want {
		t.Errorf("Alpha distance = %g, want %g", got, want)
	}
}

func TestParse_AutoOrbit(t *testing.T) {
	data := []byte(`
name: auto
auto_orbit: true
bodies:
  - name: star
    mass: 2.0e30
    reference: true
  - name: light
    mass: 1.0e29
    reference: true
  - name: rock
    x: 1.0e11
    mass: 1.0e20
  - name: comet
    x: -5.0e10
    vy: 1000
    mass: 1.0e10
`)
	sc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !sc.AutoOrbit || len(sc.Bodies) != 4 {
		t.Fatalf("unexpected scenario: %+v", sc)
	}

	g := constants.GravitationalConstant
	specs := sc.Specs(g)

	want := simulation.CircularSpeed(g, 2.0e30, 1.0e11)
	if v := specs[2].Velocity; v.X != 0 || v.Y != -want {
		t.Errorf("rock velocity = %v, want (0, %g)", v, -want)
	}
	if v := specs[3].Velocity; v != (physics.Vec2{Y: 1000}) {
		t.Errorf("comet velocity overridden: %v", v)
	}
	if v := specs[1].Velocity; v != (physics.Vec2{}) {
		t.Errorf("reference body given a velocity: %v", v)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"no bodies", "name: empty\nbodies: []\n", ErrInvalidScenario},
		{"duplicate names", "bodies:\n  - {name: a, mass: 1}\n  - {name: a, mass: 2, x: 1}\n", ErrInvalidScenario},
		{"malformed", "bodies: {", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParse_Sanitizes(t *testing.T) {
	data := "name: \"<b>evil</b>\\x1b[2J\"\n" +
		"description: \"line\\x1b[31m\\n\\n\\n\\nnext\"\n" +
		"bodies:\n" +
		"  - {name: \"Sun\\x07\", mass: 1.0e30, color: \"#ffff00\"}\n" +
		"  - {name: \"  Earth\\tone  \", x: 1.0e11, mass: 1.0e24, color: \"red;}\"}\n"

	sc, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sc.Name != "evil" {
		t.Errorf("Name = %q, want evil", sc.Name)
	}
	if sc.Description != "line\n\nnext" {
		t.Errorf("Description = %q", sc.Description)
	}
	if sc.Bodies[0].Name != "Sun" || sc.Bodies[0].Color != "#ffff00" {
		t.Errorf("body 0 = %+v", sc.Bodies[0])
	}
	if sc.Bodies[1].Name != "Earth one" || sc.Bodies[1].Color != "" {
		t.Errorf("body 1 = %+v", sc.Bodies[1])
	}
}

func TestParse_SanitizedNamesStillUnique(t *testing.T) {
	data := "bodies:\n  - {name: \"<i>a</i>\", mass: 1}\n  - {name: a, mass: 2, x: 1}\n"
	if _, err := Parse([]byte(data)); !errors.Is(err, ErrInvalidScenario) {
		t.Errorf("expected ErrInvalidScenario, got %v", err)
	}
}

func TestBuild_InvalidMass(t *testing.T) {
	sc := &Scenario{Name: "bad", Bodies: []Body{{Name: "ghost", Mass: 0}}}
	_, err := sc.Build(simulation.DefaultConfig())
	if !errors.Is(err, physics.ErrInvalidMass) {
		t.Errorf("expected ErrInvalidMass, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pair.yaml")
	data := "bodies:\n  - {name: a, mass: 1.0e30, reference: true}\n  - {name: b, x: 1.0e11, vy: -30000, mass: 1.0e24}\n"
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	sc, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if sc.Name != "pair" {
		t.Errorf("Name = %q, want pair", sc.Name)
	}
	if sc.Bodies[1].VY != -30000 {
		t.Errorf("vy = %g, want -30000", sc.Bodies[1].VY)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestResolve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "one.yaml")
	if err := os.WriteFile(path, []byte("name: one\nbodies:\n  - {name: lone, mass: 5}\n"), 0600); err != nil {
		t.Fatal(err)
	}

	sc, err := Resolve("solar", path)
	if err != nil {
		t.Fatal(err)
	}
	if sc.Name != "one" {
		t.Errorf("file should win over name, got %q", sc.Name)
	}

	sc, err = Resolve("earth-sun", "")
	if err != nil {
		t.Fatal(err)
	}
	if sc.Name != "earth-sun" {
		t.Errorf("got %q, want earth-sun", sc.Name)
	}
}

func TestMarshal_ParsesBack(t *testing.T) {
	sc, err := Builtin("solar")
	if err != nil {
		t.Fatal(err)
	}
	data, err := sc.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	back, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !reflect.DeepEqual(sc, back) {
		t.Errorf("scenario changed through YAML:\n got %+v\nwant %+v", back, sc)
	}
}
