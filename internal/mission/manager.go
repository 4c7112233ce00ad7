// Package mission manages the mission list and the single active mission
// that scopes the primary conversation thread and the console log.
package mission

import (
	"fmt"
	"sync"
	"time"

	"a2aclient/internal/logging"
	"a2aclient/internal/store"
	"a2aclient/internal/types"
)

// Manager owns the mission list and the active selection. Selection side
// effects (clearing the engaged agent, reloading the chat thread, resetting
// the console) are delegated to a hook wired in by the application root.
type Manager struct {
	mu       sync.RWMutex
	store    *store.Store
	missions []types.Mission
	activeID string

	now      func() time.Time
	onSelect func(types.Mission)
}

// Load reads the persisted mission list.
func Load(st *store.Store) (*Manager, error) {
	missions, err := st.Missions()
	if err != nil {
		return nil, fmt.Errorf("failed to load missions: %w", err)
	}
	logging.Mission("Loaded %d missions", len(missions))
	return &Manager{
		store:    st,
		missions: missions,
		now:      time.Now,
	}, nil
}

// SetOnSelect installs the activation hook. Must be called before Select.
func (m *Manager) SetOnSelect(fn func(types.Mission)) {
	m.mu.Lock()
	m.onSelect = fn
	m.mu.Unlock()
}

// SetClock overrides the id/timestamp clock (used by tests).
func (m *Manager) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

// Missions returns a copy of the list in creation order.
func (m *Manager) Missions() []types.Mission {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]types.Mission(nil), m.missions...)
}

// Active returns the currently selected mission, if any.
func (m *Manager) Active() (types.Mission, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, ms := range m.missions {
		if ms.ID == m.activeID {
			return ms, true
		}
	}
	return types.Mission{}, false
}

// ActiveID returns the selected mission id, or false when none is active.
func (m *Manager) ActiveID() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeID, m.activeID != ""
}

// Create builds a new mission, persists it, and activates it. Persistence
// failure is logged; the in-memory mission survives for the session.
func (m *Manager) Create(name, objective string) types.Mission {
	m.mu.Lock()
	ms := types.Mission{
		ID:        fmt.Sprintf("mission_%d", m.now().UnixMilli()),
		Name:      name,
		Objective: objective,
		CreatedAt: m.now().UnixMilli(),
	}
	// Two missions created within the same millisecond would collide on id.
	for m.exists(ms.ID) {
		ms.CreatedAt++
		ms.ID = fmt.Sprintf("mission_%d", ms.CreatedAt)
	}
	m.missions = append(m.missions, ms)
	m.mu.Unlock()

	if err := m.store.PutMission(ms); err != nil {
		logging.Get(logging.CategoryMission).Error("Failed to persist mission %s: %v", ms.ID, err)
	}
	logging.Mission("Mission created: %s (%s)", ms.ID, ms.Name)
	m.Select(ms)
	return ms
}

func (m *Manager) exists(id string) bool {
	for _, ms := range m.missions {
		if ms.ID == id {
			return true
		}
	}
	return false
}

// Select activates a mission and runs the activation hook.
func (m *Manager) Select(ms types.Mission) {
	m.mu.Lock()
	m.activeID = ms.ID
	hook := m.onSelect
	m.mu.Unlock()

	logging.Mission("Mission selected: %s (%s)", ms.ID, ms.Name)
	if hook != nil {
		hook(ms)
	}
}
