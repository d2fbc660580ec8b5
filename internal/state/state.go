package state

import (
	"fmt"
	"sync"
	"time"
)

type Phase int

const (
	BOOTING Phase = iota
	RUNNING
	PAUSED
	STOPPED
	ERROR
)

var phaseNames = [...]string{"booting", "running", "paused", "stopped", "error"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

type NetworkInfo struct {
	URL     string `json:"url"`
	URLQR   string `json:"-"`
	SSHAddr string `json:"sshAddr,omitempty"`
}

// SourceInfo describes the background photograph. Fallback is set when it could not be
// used and every tile got the default color.
type SourceInfo struct {
	Path     string `json:"path"`
	Format   string `json:"format,omitempty"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Fallback bool   `json:"fallback"`
	Err      string `json:"error,omitempty"`
}

type RainStats struct {
	Columns     int           `json:"columns"`
	Rows        int           `json:"rows"`
	Cycle       uint64        `json:"cycle"`
	Issued      int           `json:"issued"`
	Skipped     int           `json:"skipped"`
	Painted     int           `json:"painted"`
	MaxDepth    int           `json:"maxQueueDepth"`
	CycleTime   time.Duration `json:"cycleTime"`
	FPS         float64       `json:"fps"`
	SSHSessions int           `json:"sshSessions"`
}

type State struct {
	Phase   Phase       `json:"phase"`
	Network NetworkInfo `json:"network"`
	Source  SourceInfo  `json:"source"`
	Rain    RainStats   `json:"rain"`
}

type Store struct {
	mu    sync.RWMutex
	state State
}

func NewStore() *Store {
	return &Store{state: State{Phase: BOOTING}}
}

func (store *Store) Snapshot() State {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.state
}

func (store *Store) SetPhase(phase Phase) {
	store.mu.Lock()
	store.state.Phase = phase
	store.mu.Unlock()
}

func (store *Store) UpdateNetwork(network NetworkInfo) {
	store.mu.Lock()
	store.state.Network = network
	store.mu.Unlock()
}

func (store *Store) UpdateSource(source SourceInfo) {
	store.mu.Lock()
	store.state.Source = source
	store.mu.Unlock()
}

// UpdateRain applies fn to the rain statistics under the store lock.
func (store *Store) UpdateRain(fn func(*RainStats)) {
	store.mu.Lock()
	fn(&store.state.Rain)
	store.mu.Unlock()
}
