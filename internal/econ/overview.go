package econ

import (
	"context"
	"sync"

	"citydesk/internal/cityapi"
)

// OverviewFetch retrieves the authoritative roster for a city.
type OverviewFetch func(ctx context.Context, city string) (cityapi.CityOverview, error)

// OverviewCache holds the last-known agent roster. Every refresh replaces the
// roster wholesale; a failed fetch keeps the previous value so a transient
// error never blanks a working display.
type OverviewCache struct {
	mu       sync.Mutex
	city     string
	fetch    OverviewFetch
	agents   []cityapi.Agent
	onChange func()
}

func NewOverviewCache(city string, fetch OverviewFetch, onChange func()) *OverviewCache {
	if onChange == nil {
		onChange = func() {}
	}
	return &OverviewCache{city: city, fetch: fetch, onChange: onChange}
}

// Refresh fetches the roster. The returned error is informational only;
// cached state is untouched on failure.
func (c *OverviewCache) Refresh(ctx context.Context) error {
	overview, err := c.fetch(ctx, c.city)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.agents = overview.Agents
	c.mu.Unlock()
	c.onChange()
	return nil
}

func (c *OverviewCache) Agents() []cityapi.Agent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]cityapi.Agent, len(c.agents))
	copy(out, c.agents)
	return out
}

// Selectable returns the roster without the human agent (id 0), which cannot
// perform economic actions.
func (c *OverviewCache) Selectable() []cityapi.Agent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]cityapi.Agent, 0, len(c.agents))
	for _, a := range c.agents {
		if a.ID != 0 {
			out = append(out, a)
		}
	}
	return out
}

func (c *OverviewCache) Agent(id int) (cityapi.Agent, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, a := range c.agents {
		if a.ID == id {
			return a, true
		}
	}
	return cityapi.Agent{}, false
}

// ResourceTypes collects every resource type seen across the roster, with
// "flour" always offered first.
func (c *OverviewCache) ResourceTypes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	seen := map[string]bool{"flour": true}
	out := []string{"flour"}
	for _, a := range c.agents {
		for _, r := range a.Resources {
			if !seen[r.ResourceType] {
				seen[r.ResourceType] = true
				out = append(out, r.ResourceType)
			}
		}
	}
	return out
}
