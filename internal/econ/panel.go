package econ

import (
	"context"
	"sync"

	"citydesk/internal/cityapi"
)

// Mode selects which economic tab the panel is loading for.
type Mode string

const (
	ModeJobs      Mode = "jobs"
	ModeShop      Mode = "shop"
	ModeInventory Mode = "inventory"
)

var modeLabels = map[Mode]string{
	ModeJobs:      "岗位",
	ModeShop:      "商店",
	ModeInventory: "背包",
}

func (m Mode) Label() string {
	if label, ok := modeLabels[m]; ok {
		return label
	}
	return string(m)
}

// PanelLoader is the slice of the backend API the panel needs.
type PanelLoader interface {
	FetchJobs(ctx context.Context) ([]cityapi.Job, error)
	FetchShopItems(ctx context.Context) ([]cityapi.ShopItem, error)
	FetchAgentItems(ctx context.Context, agentID int) ([]cityapi.OwnedItem, error)
}

// Panel holds the tab-scoped economic data and its load discipline: every
// load is keyed to the (mode, actor) pair and generation in effect when it
// started, and a result is discarded if a newer load began in the meantime
// (latest request wins).
type Panel struct {
	mu sync.Mutex

	loader PanelLoader

	mode    Mode
	actorID int

	gen        uint64
	loading    bool
	loadFailed bool

	jobs  []cityapi.Job
	items []cityapi.ShopItem
	owned []cityapi.OwnedItem

	onChange func()
}

func NewPanel(loader PanelLoader, onChange func()) *Panel {
	if onChange == nil {
		onChange = func() {}
	}
	return &Panel{loader: loader, mode: ModeJobs, onChange: onChange}
}

func (p *Panel) Mode() Mode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode
}

func (p *Panel) SetMode(mode Mode) {
	p.mu.Lock()
	p.mode = mode
	p.mu.Unlock()
	p.onChange()
}

func (p *Panel) Actor() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.actorID
}

func (p *Panel) SetActor(id int) {
	p.mu.Lock()
	p.actorID = id
	p.mu.Unlock()
	p.onChange()
}

// EnsureActor picks the first non-human agent as the default actor while no
// actor has been selected yet. A manual selection persists across roster
// refreshes; if the selected agent later leaves the roster the selection is
// deliberately kept, matching the refresh-then-reselect flow of the UI.
func (p *Panel) EnsureActor(roster []cityapi.Agent) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.actorID != 0 {
		return false
	}
	for _, a := range roster {
		if a.ID != 0 {
			p.actorID = a.ID
			return true
		}
	}
	return false
}

// StartLoad begins a load for the current (mode, actor) pair and returns the
// generation token the eventual Apply call must present.
func (p *Panel) StartLoad() (gen uint64, mode Mode, actor int) {
	p.mu.Lock()
	p.gen++
	p.loading = true
	p.loadFailed = false
	gen, mode, actor = p.gen, p.mode, p.actorID
	p.mu.Unlock()
	p.onChange()
	return gen, mode, actor
}

func (p *Panel) current(gen uint64) bool {
	return gen == p.gen
}

// ApplyJobs installs a jobs result, unless a newer load has started since.
func (p *Panel) ApplyJobs(gen uint64, jobs []cityapi.Job, err error) bool {
	p.mu.Lock()
	if !p.current(gen) {
		p.mu.Unlock()
		return false
	}
	p.loading = false
	if err != nil {
		p.loadFailed = true
	} else {
		p.jobs = jobs
	}
	p.mu.Unlock()
	p.onChange()
	return true
}

func (p *Panel) ApplyItems(gen uint64, items []cityapi.ShopItem, err error) bool {
	p.mu.Lock()
	if !p.current(gen) {
		p.mu.Unlock()
		return false
	}
	p.loading = false
	if err != nil {
		p.loadFailed = true
	} else {
		p.items = items
	}
	p.mu.Unlock()
	p.onChange()
	return true
}

func (p *Panel) ApplyOwned(gen uint64, owned []cityapi.OwnedItem, err error) bool {
	p.mu.Lock()
	if !p.current(gen) {
		p.mu.Unlock()
		return false
	}
	p.loading = false
	if err != nil {
		p.loadFailed = true
	} else {
		p.owned = owned
	}
	p.mu.Unlock()
	p.onChange()
	return true
}

// Load runs a full load cycle synchronously: StartLoad, fetch for the
// captured pair, Apply. Inventory loads without a selected actor skip the
// fetch and just settle the loading flag.
func (p *Panel) Load(ctx context.Context) {
	gen, mode, actor := p.StartLoad()
	switch mode {
	case ModeJobs:
		jobs, err := p.loader.FetchJobs(ctx)
		p.ApplyJobs(gen, jobs, err)
	case ModeShop:
		items, err := p.loader.FetchShopItems(ctx)
		p.ApplyItems(gen, items, err)
	case ModeInventory:
		if actor <= 0 {
			p.ApplyOwned(gen, nil, nil)
			return
		}
		owned, err := p.loader.FetchAgentItems(ctx, actor)
		p.ApplyOwned(gen, owned, err)
	}
}

func (p *Panel) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// LoadFailed reports whether the most recent settled load failed; the UI
// shows a generic failure indicator in place of content while prior data is
// retained underneath.
func (p *Panel) LoadFailed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loadFailed
}

func (p *Panel) Jobs() []cityapi.Job {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]cityapi.Job, len(p.jobs))
	copy(out, p.jobs)
	return out
}

func (p *Panel) Items() []cityapi.ShopItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]cityapi.ShopItem, len(p.items))
	copy(out, p.items)
	return out
}

func (p *Panel) Owned() []cityapi.OwnedItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]cityapi.OwnedItem, len(p.owned))
	copy(out, p.owned)
	return out
}

// CanCheckIn reports whether the check-in control is enabled for a job:
// disabled exactly when the job is at capacity and capacity is bounded.
func CanCheckIn(job cityapi.Job) bool {
	return !(job.MaxWorkers > 0 && job.TodayWorkers >= job.MaxWorkers)
}

// CanPurchase reports whether the purchase control is enabled: an actor must
// be selected and its cached credits must cover the price. This is a soft
// check; the backend remains authoritative.
func CanPurchase(item cityapi.ShopItem, actor cityapi.Agent, selected bool) bool {
	return selected && actor.Credits >= item.Price
}
