package session

import (
	"context"
	"sync"

	"github.com/mcdev12/recognizer/go/internal/catalog"
	"github.com/rs/zerolog"
)

// ManagerMode is the screen the controller device is on
type ManagerMode string

const (
	ModeSelectingPattern ManagerMode = "selecting_pattern"
	ModePlaying          ManagerMode = "playing"
)

// ManagerState is what the controller believes the display is doing. It is
// never confirmed by the display.
type ManagerState struct {
	Mode     ManagerMode `json:"mode"`
	Pattern  string      `json:"pattern,omitempty"`
	Src      string      `json:"src,omitempty"`
	Paused   bool        `json:"paused"`
	Finished bool        `json:"finished"`
}

// Remote is the outbound half of a paired channel
type Remote interface {
	StartPattern(ctx context.Context, src string) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Reset(ctx context.Context) error
	Skip(ctx context.Context) error
}

// Manager drives the controller device: pick a pattern, toggle pause, fast
// forward, reset. Publish failures are logged by the remote and otherwise
// ignored, the local state moves on regardless. Commands are published in the
// order they were decided while state reads never wait on a publish.
type Manager struct {
	catalog *catalog.Catalog
	remote  Remote
	logger  zerolog.Logger

	sendMu sync.Mutex

	mu    sync.Mutex
	rng   catalog.Rand
	state ManagerState
}

func NewManager(cat *catalog.Catalog, remote Remote, rng catalog.Rand, logger *zerolog.Logger) *Manager {
	return &Manager{
		catalog: cat,
		remote:  remote,
		rng:     rng,
		logger:  logger.With().Str("component", "manager").Logger(),
		state:   ManagerState{Mode: ModeSelectingPattern},
	}
}

func (m *Manager) Catalog() *catalog.Catalog {
	return m.catalog
}

// SelectPattern starts the named pattern on the display. It is ignored while a
// pattern is already playing.
func (m *Manager) SelectPattern(ctx context.Context, name string) (ManagerState, error) {
	src, err := m.catalog.ImagePath(name)
	if err != nil {
		return m.State(), err
	}

	m.sendMu.Lock()
	defer m.sendMu.Unlock()

	m.mu.Lock()
	if m.state.Mode != ModeSelectingPattern {
		state := m.state
		m.mu.Unlock()
		m.logger.Debug().Str("pattern", name).Msg("ignoring pattern selection while playing")
		return state, nil
	}
	m.state = ManagerState{
		Mode:    ModePlaying,
		Pattern: name,
		Src:     src,
	}
	state := m.state
	m.mu.Unlock()

	m.logger.Info().Str("pattern", name).Str("src", src).Msg("starting a game")
	_ = m.remote.StartPattern(ctx, src)
	return state, nil
}

// StartRandom selects a pattern uniformly from the catalog
func (m *Manager) StartRandom(ctx context.Context) (ManagerState, error) {
	m.mu.Lock()
	pattern := m.catalog.Random(m.rng)
	m.mu.Unlock()

	return m.SelectPattern(ctx, pattern.Name)
}

// TogglePause pauses a running pattern or resumes a paused one
func (m *Manager) TogglePause(ctx context.Context) ManagerState {
	return m.transition(ctx, func(st *ManagerState) func(context.Context) error {
		if st.Mode != ModePlaying || st.Finished {
			return nil
		}
		st.Paused = !st.Paused
		if st.Paused {
			return m.remote.Pause
		}
		return m.remote.Resume
	})
}

// FastForward reveals the whole pattern. Only Reset is meaningful afterwards.
func (m *Manager) FastForward(ctx context.Context) ManagerState {
	return m.transition(ctx, func(st *ManagerState) func(context.Context) error {
		if st.Mode != ModePlaying || st.Finished {
			return nil
		}
		st.Finished = true
		st.Paused = true
		return m.remote.Skip
	})
}

// Reset clears the display and returns to the pattern list
func (m *Manager) Reset(ctx context.Context) ManagerState {
	return m.transition(ctx, func(st *ManagerState) func(context.Context) error {
		if st.Mode != ModePlaying {
			return nil
		}
		*st = ManagerState{Mode: ModeSelectingPattern}
		return m.remote.Reset
	})
}

// transition applies step to the state and publishes the command it returns,
// if any, after the state lock is released
func (m *Manager) transition(ctx context.Context, step func(*ManagerState) func(context.Context) error) ManagerState {
	m.sendMu.Lock()
	defer m.sendMu.Unlock()

	m.mu.Lock()
	send := step(&m.state)
	state := m.state
	m.mu.Unlock()

	if send != nil {
		_ = send(ctx)
	}
	return state
}

func (m *Manager) State() ManagerState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}
