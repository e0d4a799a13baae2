package render

import (
	"context"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/nvandessel/orbitsim/internal/physics"
	"github.com/nvandessel/orbitsim/internal/simulation"
)

// Config configures the interactive view.
type Config struct {
	FPS           int
	StepsPerFrame int
	CellsPerAU    float64
	Options       Options

	// TrailPoints caps how many recent trail points are drawn per body.
	// 0 draws whole trails.
	TrailPoints int
}

// View runs a simulation on a tcell screen. The screen is owned by the
// caller, which must Init it before Run and Fini it afterwards.
type View struct {
	screen tcell.Screen
	sim    *simulation.Simulation
	cfg    Config
	vp     Viewport
	opts   Options
	paused bool
	err    error
	logger *slog.Logger
}

// NewView creates a view of sim on screen.
func NewView(screen tcell.Screen, sim *simulation.Simulation, cfg Config, logger *slog.Logger) *View {
	if cfg.FPS <= 0 {
		cfg.FPS = 30
	}
	if cfg.StepsPerFrame <= 0 {
		cfg.StepsPerFrame = 1
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	w, h := screen.Size()
	return &View{
		screen: screen,
		sim:    sim,
		cfg:    cfg,
		vp:     NewViewport(w, h, cfg.CellsPerAU),
		opts:   cfg.Options,
		logger: logger,
	}
}

// Viewport returns the current viewport.
func (v *View) Viewport() Viewport { return v.vp }

// Paused reports whether stepping is paused.
func (v *View) Paused() bool { return v.paused }

// Options returns the current layer toggles.
func (v *View) Options() Options { return v.opts }

// Err returns the error that stopped stepping, if any.
func (v *View) Err() error { return v.err }

// Run draws and steps until the user quits or ctx is cancelled.
func (v *View) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(v.cfg.FPS))
	defer ticker.Stop()

	done := make(chan struct{})
	defer close(done)

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case eventChan <- ev:
			case <-done:
				return
			}
		}
	}()

	v.frame()
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev := <-eventChan:
			if !v.HandleEvent(ev) {
				return nil
			}
			v.frame()

		case <-ticker.C:
			v.Advance()
			v.frame()
		}
	}
}

// Advance steps the simulation one frame's worth unless paused or failed.
// A step error is kept for display and stops further stepping.
func (v *View) Advance() {
	if v.paused || v.err != nil {
		return
	}
	if err := v.sim.StepN(v.cfg.StepsPerFrame); err != nil {
		v.logger.Warn("simulation stopped", "error", err)
		v.err = err
	}
}

// HandleEvent applies an input event and reports whether the view should
// keep running.
func (v *View) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return v.handleKey(ev)
	case *tcell.EventResize:
		w, h := ev.Size()
		v.vp.Resize(w, h)
		v.screen.Sync()
	}
	return true
}

func (v *View) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyUp:
		v.vp.Pan(0, -1)
	case tcell.KeyDown:
		v.vp.Pan(0, 1)
	case tcell.KeyLeft:
		v.vp.Pan(-1, 0)
	case tcell.KeyRight:
		v.vp.Pan(1, 0)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return false
		case ' ':
			v.paused = !v.paused
		case '+', '=':
			v.vp.Zoom(1.25)
		case '-', '_':
			v.vp.Zoom(0.8)
		case 'c':
			v.vp.Center = physics.Vec2{}
		case 't':
			v.opts.ShowTrails = !v.opts.ShowTrails
		case 'd':
			v.opts.ShowDistances = !v.opts.ShowDistances
		}
	}
	return true
}

func (v *View) frame() {
	tail := v.cfg.TrailPoints
	if !v.opts.ShowTrails {
		tail = -1
	}
	st := Status{
		Step:    v.sim.Steps(),
		Elapsed: v.sim.Elapsed(),
		Scale:   v.vp.CellsPerAU,
		Paused:  v.paused,
		Err:     v.err,
	}
	Draw(v.screen, v.vp, v.sim.Snapshot(tail), st, v.opts)
	v.screen.Show()
}
