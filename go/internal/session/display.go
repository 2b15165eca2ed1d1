package session

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/recognizer/go/internal/animation"
	"github.com/mcdev12/recognizer/go/internal/endpoint"
	"github.com/rs/zerolog"
)

// DisplayMode is the screen the display device is on
type DisplayMode string

const (
	ModeIdle      DisplayMode = "idle"
	ModePaired    DisplayMode = "paired"
	ModeAnimating DisplayMode = "animating"
)

// DefaultLoadTimeout bounds how long a start waits for its image
const DefaultLoadTimeout = 30 * time.Second

// NoticePaired is sent when the first connect arrives and NoticeLoadFailed
// when the image of the latest start could not be loaded. Every other notice
// carries the kind of the animation event that caused it.
const (
	NoticePaired     = "paired"
	NoticeLoadFailed = "load_failed"
)

// DisplayState is the display coordinator's mode plus the engine state
type DisplayState struct {
	Mode      DisplayMode     `json:"mode"`
	Src       string          `json:"src,omitempty"`
	Animation animation.State `json:"animation"`
}

// Notice tells listeners that the display changed
type Notice struct {
	Kind  string
	State DisplayState
}

// Listener receives notices. It may be called from transport and timer
// goroutines and must not block.
type Listener func(Notice)

var _ endpoint.Handler = (*Display)(nil)

// Display maps inbound control messages onto the animation engine. Commands
// that make no sense in the current mode are dropped.
type Display struct {
	engine      *animation.Engine
	loader      animation.Loader
	loadTimeout time.Duration
	logger      zerolog.Logger

	// startMu orders finished loads against resets so the engine sees
	// them in the order they were decided
	startMu sync.Mutex

	mu         sync.Mutex
	mode       DisplayMode
	src        string
	listeners  []Listener
	loadGen    uint64
	cancelLoad context.CancelFunc
}

func NewDisplay(config animation.Config, clock clockwork.Clock, loader animation.Loader, logger *zerolog.Logger) (*Display, error) {
	d := &Display{
		loader:      loader,
		loadTimeout: DefaultLoadTimeout,
		logger:      logger.With().Str("component", "display").Logger(),
		mode:        ModeIdle,
	}

	engine, err := animation.NewEngine(config, clock, d.onEngineEvent, logger)
	if err != nil {
		return nil, err
	}
	d.engine = engine
	return d, nil
}

// AddListener registers fn for every later notice
func (d *Display) AddListener(fn Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, fn)
}

// Snapshot returns a copy of the canvas
func (d *Display) Snapshot() *image.RGBA {
	return d.engine.Snapshot()
}

func (d *Display) State() DisplayState {
	d.mu.Lock()
	mode, src := d.mode, d.src
	d.mu.Unlock()

	return DisplayState{
		Mode:      mode,
		Src:       src,
		Animation: d.engine.State(),
	}
}

func (d *Display) OnConnect() {
	d.mu.Lock()
	if d.mode != ModeIdle {
		d.mu.Unlock()
		d.logger.Debug().Msg("already paired, ignoring connect")
		return
	}
	d.mode = ModePaired
	d.mu.Unlock()

	d.logger.Info().Msg("controller connected")
	d.notify(NoticePaired)
}

// OnStart loads src in the background and starts a new reveal once it
// arrives. A later start or reset supersedes a load still in flight. A failed
// load leaves the display as it was.
func (d *Display) OnStart(src string) {
	d.mu.Lock()
	if d.mode == ModeIdle {
		d.mu.Unlock()
		d.logger.Debug().Str("src", src).Msg("start before connect, ignoring")
		return
	}
	gen := d.supersedeLoadLocked()
	ctx, cancel := context.WithTimeout(context.Background(), d.loadTimeout)
	d.cancelLoad = cancel
	d.mu.Unlock()

	go d.load(ctx, cancel, gen, src)
}

func (d *Display) load(ctx context.Context, cancel context.CancelFunc, gen uint64, src string) {
	defer cancel()
	img, err := d.loader.Load(ctx, src)

	d.startMu.Lock()
	defer d.startMu.Unlock()

	d.mu.Lock()
	if gen != d.loadGen {
		d.mu.Unlock()
		d.logger.Debug().Str("src", src).Msg("dropping superseded pattern load")
		return
	}
	d.cancelLoad = nil
	if err != nil {
		d.mu.Unlock()
		d.logger.Error().Err(err).Str("src", src).Msg("failed to load pattern image")
		d.notify(NoticeLoadFailed)
		return
	}
	d.mode = ModeAnimating
	d.src = src
	d.mu.Unlock()

	d.logger.Info().Str("src", src).Msg("starting pattern")
	d.engine.Load(img)
}

// supersedeLoadLocked abandons any load in flight and returns the generation
// of the next one
func (d *Display) supersedeLoadLocked() uint64 {
	if d.cancelLoad != nil {
		d.cancelLoad()
		d.cancelLoad = nil
	}
	d.loadGen++
	return d.loadGen
}

func (d *Display) OnPause() {
	if d.currentMode() != ModeAnimating {
		return
	}
	d.engine.Pause()
}

func (d *Display) OnResume() {
	if d.currentMode() != ModeAnimating {
		return
	}
	d.engine.Resume()
}

func (d *Display) OnSkip() {
	if d.currentMode() != ModeAnimating {
		return
	}
	d.engine.SkipToEnd()
}

// OnReset clears the canvas, drops any pending load and goes back to waiting
// for a pattern. The channel stays subscribed so the display remains paired.
func (d *Display) OnReset() {
	d.startMu.Lock()
	defer d.startMu.Unlock()

	d.mu.Lock()
	d.supersedeLoadLocked()
	if d.mode != ModeAnimating {
		d.mu.Unlock()
		return
	}
	d.mode = ModePaired
	d.src = ""
	d.mu.Unlock()

	d.engine.Reset()
}

func (d *Display) currentMode() DisplayMode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

func (d *Display) onEngineEvent(ev animation.Event) {
	d.mu.Lock()
	state := DisplayState{Mode: d.mode, Src: d.src, Animation: ev.State}
	listeners := append([]Listener(nil), d.listeners...)
	d.mu.Unlock()

	for _, fn := range listeners {
		fn(Notice{Kind: string(ev.Kind), State: state})
	}
}

func (d *Display) notify(kind string) {
	state := d.State()

	d.mu.Lock()
	listeners := append([]Listener(nil), d.listeners...)
	d.mu.Unlock()

	for _, fn := range listeners {
		fn(Notice{Kind: kind, State: state})
	}
}
