// Package registry manages the roster of AI Family agents: seeding the
// default nine on first run, serving lookups by id or name, and writing
// configuration edits through to the store.
package registry

import (
	"fmt"
	"strings"
	"sync"

	"a2aclient/internal/logging"
	"a2aclient/internal/store"
	"a2aclient/internal/types"
)

// Registry holds the in-memory agent roster backed by the store.
type Registry struct {
	mu     sync.RWMutex
	store  *store.Store
	agents []types.Agent
}

// Load reads the persisted roster, seeding the defaults when the store is
// empty. Seeding is idempotent: a populated store is returned as-is.
func Load(st *store.Store) (*Registry, error) {
	agents, err := st.Agents()
	if err != nil {
		return nil, fmt.Errorf("failed to load agents: %w", err)
	}
	if len(agents) == 0 {
		logging.Boot("No agents found, seeding %d defaults", len(aiFamily))
		agents = DefaultAgents()
		for _, a := range agents {
			if err := st.PutAgent(a); err != nil {
				return nil, fmt.Errorf("failed to seed agent %s: %w", a.ID, err)
			}
		}
	}
	return &Registry{store: st, agents: agents}, nil
}

// Agents returns a copy of the roster in seed order.
func (r *Registry) Agents() []types.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]types.Agent(nil), r.agents...)
}

// Get returns the agent with the given id.
func (r *Registry) Get(id string) (types.Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.agents {
		if a.ID == id {
			return a, true
		}
	}
	return types.Agent{}, false
}

// GetByName returns the agent with the given display name, case-insensitive.
func (r *Registry) GetByName(name string) (types.Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.agents {
		if strings.EqualFold(a.Name, name) {
			return a, true
		}
	}
	return types.Agent{}, false
}

// Update replaces an agent record and writes it through to the store. The id
// must already exist; updates never add roster entries.
func (r *Registry) Update(agent types.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, a := range r.agents {
		if a.ID == agent.ID {
			if err := r.store.PutAgent(agent); err != nil {
				return err
			}
			r.agents[i] = agent
			logging.Get(logging.CategoryBoot).Debug("Agent updated: %s", agent.ID)
			return nil
		}
	}
	return fmt.Errorf("unknown agent: %s", agent.ID)
}
