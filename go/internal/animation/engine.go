package animation

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	xdraw "golang.org/x/image/draw"
)

// Config holds the reveal parameters
type Config struct {
	Edge  int           // canvas edge length
	Seed  int           // reveal size of the first frame
	Step  int           // growth per frame
	Delay time.Duration // inter-frame delay
}

// DefaultConfig returns the standard reveal parameters
func DefaultConfig() Config {
	return Config{
		Edge:  600,
		Seed:  6,
		Step:  2,
		Delay: 1250 * time.Millisecond,
	}
}

func (c Config) Validate() error {
	if c.Edge <= 0 {
		return errors.New("edge must be positive")
	}
	if c.Seed <= 0 || c.Seed >= c.Edge {
		return fmt.Errorf("seed must be in (0, %d)", c.Edge)
	}
	if c.Step <= 0 {
		return errors.New("step must be positive")
	}
	if c.Delay <= 0 {
		return errors.New("delay must be positive")
	}
	return nil
}

// State is a snapshot of the animation state
type State struct {
	Size     int  `json:"size"`
	Edge     int  `json:"edge"`
	Percent  int  `json:"percent"`
	Paused   bool `json:"paused"`
	Loaded   bool `json:"loaded"`
	Terminal bool `json:"terminal"`
}

// Engine draws a progressively sharper version of its source image. Frames
// are driven by one-shot timers on the injected clock; pausing does not stop
// the pending timer, the tick checks the paused flag when it fires.
type Engine struct {
	config   Config
	clock    clockwork.Clock
	observer Observer
	logger   zerolog.Logger

	mu      sync.Mutex
	surface *image.RGBA
	scratch *image.RGBA
	source  image.Image
	size    int
	paused  bool
	loop    uint64 // id of the current tick loop
	timer   clockwork.Timer
}

// NewEngine creates an engine with a blank square canvas. observer may be nil.
func NewEngine(config Config, clock clockwork.Clock, observer Observer, logger *zerolog.Logger) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid animation config: %w", err)
	}
	if observer == nil {
		observer = func(Event) {}
	}

	bounds := image.Rect(0, 0, config.Edge, config.Edge)
	return &Engine{
		config:   config,
		clock:    clock,
		observer: observer,
		logger:   logger.With().Str("component", "animation").Logger(),
		surface:  image.NewRGBA(bounds),
		scratch:  image.NewRGBA(bounds),
		size:     config.Seed,
		paused:   true,
	}, nil
}

// Load starts a new reveal of img from the seed size. The first frame is drawn
// one delay after the call.
func (e *Engine) Load(img image.Image) {
	e.mu.Lock()
	e.source = img
	e.size = e.config.Seed
	e.paused = false
	e.startLoop()
	state := e.stateLocked()
	e.mu.Unlock()

	e.logger.Info().Int("edge", e.config.Edge).Msg("animation loaded")
	e.observer(Event{Kind: EventStarted, State: state})
}

// Pause stops further frames. A tick already scheduled still fires but draws nothing.
func (e *Engine) Pause() {
	e.mu.Lock()
	if e.source == nil || e.paused {
		e.mu.Unlock()
		return
	}
	e.paused = true
	state := e.stateLocked()
	e.mu.Unlock()

	e.logger.Debug().Int("size", state.Size).Msg("animation paused")
	e.observer(Event{Kind: EventPaused, State: state})
}

// Resume continues from the current size after one delay. It does nothing when
// the engine is running, empty, or already fully revealed.
func (e *Engine) Resume() {
	e.mu.Lock()
	if e.source == nil || !e.paused || e.size >= e.config.Edge {
		e.mu.Unlock()
		return
	}
	e.paused = false
	e.startLoop()
	state := e.stateLocked()
	e.mu.Unlock()

	e.logger.Debug().Int("size", state.Size).Msg("animation resumed")
	e.observer(Event{Kind: EventResumed, State: state})
}

// SkipToEnd draws the full image immediately and leaves the engine paused in
// its terminal state.
func (e *Engine) SkipToEnd() {
	e.mu.Lock()
	if e.source == nil {
		e.mu.Unlock()
		return
	}
	e.size = e.config.Edge
	e.drawLocked(e.size)
	e.paused = true
	state := e.stateLocked()
	e.mu.Unlock()

	e.logger.Info().Msg("animation skipped to the end")
	e.observer(Event{Kind: EventFrame, State: state})
	e.observer(Event{Kind: EventSkipped, State: state})
}

// Reset clears the canvas and forgets the source image. Nothing restarts until
// the next Load.
func (e *Engine) Reset() {
	e.mu.Lock()
	draw.Draw(e.surface, e.surface.Bounds(), image.Transparent, image.Point{}, draw.Src)
	e.paused = true
	e.size = e.config.Seed
	e.source = nil
	state := e.stateLocked()
	e.mu.Unlock()

	e.logger.Info().Msg("animation reset")
	e.observer(Event{Kind: EventReset, State: state})
}

// State returns the current animation state
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

// Snapshot returns a copy of the canvas
func (e *Engine) Snapshot() *image.RGBA {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := image.NewRGBA(e.surface.Bounds())
	copy(out.Pix, e.surface.Pix)
	return out
}

func (e *Engine) tick(loop uint64) {
	e.mu.Lock()
	if loop != e.loop {
		// superseded by a later Load or Resume
		e.mu.Unlock()
		return
	}
	if e.paused || e.source == nil {
		state := e.stateLocked()
		e.mu.Unlock()
		e.observer(Event{Kind: EventTickSkipped, State: state})
		return
	}

	e.logger.Debug().Msgf("drawing at %d%%", percent(e.size, e.config.Edge))
	e.drawLocked(e.size)
	e.size += e.config.Step
	if e.size < e.config.Edge && !e.paused {
		e.scheduleLocked(loop)
	} else {
		e.timer = nil
		e.logger.Info().Int("size", e.size).Msg("animation fully revealed")
	}
	state := e.stateLocked()
	e.mu.Unlock()

	e.observer(Event{Kind: EventFrame, State: state})
}

// drawLocked scales the source down to size x size in the top-left of the
// scratch buffer and stretches that square back over the whole canvas.
func (e *Engine) drawLocked(size int) {
	if size > e.config.Edge {
		size = e.config.Edge
	}
	region := image.Rect(0, 0, size, size)
	xdraw.NearestNeighbor.Scale(e.scratch, region, e.source, e.source.Bounds(), draw.Src, nil)
	xdraw.NearestNeighbor.Scale(e.surface, e.surface.Bounds(), e.scratch, region, draw.Src, nil)
}

func (e *Engine) stateLocked() State {
	return State{
		Size:     e.size,
		Edge:     e.config.Edge,
		Percent:  percent(e.size, e.config.Edge),
		Paused:   e.paused,
		Loaded:   e.source != nil,
		Terminal: e.size >= e.config.Edge,
	}
}

func percent(size, edge int) int {
	return int(float64(size) / float64(edge) * 100)
}
