package econ

import (
	"context"
	"sync"

	"citydesk/internal/cityapi"
)

// Action is one mutating user action routed through the Coordinator. Control
// names the user-facing control being guarded; two submissions under the same
// control never overlap, while distinct controls interleave freely.
type Action struct {
	Control string
	Call    func(ctx context.Context) (cityapi.ActionOutcome, error)

	// Reasons maps rejection codes to display text; unknown codes pass
	// through verbatim. Nil shows every reason as-is.
	Reasons map[string]string

	// Success builds the success notice from the outcome. Nil falls back to
	// the outcome reason.
	Success func(cityapi.ActionOutcome) string
}

// Coordinator runs the submit/await/report cycle shared by every mutating
// action: guard the control, issue the request, map the outcome onto the
// notification channels, and signal an overview refresh on success.
type Coordinator struct {
	mu   sync.Mutex
	busy map[string]bool

	notices    *Notices
	invalidate func()
}

func NewCoordinator(notices *Notices, invalidate func()) *Coordinator {
	if invalidate == nil {
		invalidate = func() {}
	}
	return &Coordinator{
		busy:       make(map[string]bool),
		notices:    notices,
		invalidate: invalidate,
	}
}

// Busy reports whether a submission is in flight for the control.
func (c *Coordinator) Busy(control string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy[control]
}

func (c *Coordinator) acquire(control string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy[control] {
		return false
	}
	c.busy[control] = true
	return true
}

func (c *Coordinator) release(control string) {
	c.mu.Lock()
	delete(c.busy, control)
	c.mu.Unlock()
}

// Submit runs one action. It returns the outcome and whether the action was
// executed at all; a held guard makes the whole call a silent no-op. The
// guard is released on every exit path.
func (c *Coordinator) Submit(ctx context.Context, act Action) (cityapi.ActionOutcome, bool) {
	if !c.acquire(act.Control) {
		return cityapi.ActionOutcome{}, false
	}
	defer c.release(act.Control)

	out, err := act.Call(ctx)
	if err != nil {
		// Transport failure takes the same path as a semantic rejection,
		// with the raw error text as the message.
		c.notices.ClearSuccess()
		c.notices.SetError(err.Error())
		return cityapi.ActionOutcome{}, true
	}
	if out.OK {
		c.notices.ClearError()
		if act.Success != nil {
			c.notices.SetSuccess(act.Success(out))
		} else {
			c.notices.SetSuccess(out.Reason)
		}
		c.invalidate()
		return out, true
	}
	c.notices.ClearSuccess()
	c.notices.SetError(ReasonText(act.Reasons, out.Reason))
	return out, true
}

// ValidateTransfer applies the client-side transfer preconditions before any
// request is issued. Missing selections or a non-positive quantity block
// silently; a self-transfer surfaces a fixed rejection message.
func (c *Coordinator) ValidateTransfer(fromID, toID, quantity int) bool {
	if fromID == 0 || toID == 0 || quantity <= 0 {
		return false
	}
	if fromID == toID {
		c.notices.ClearSuccess()
		c.notices.SetError(MsgSelfTransfer)
		return false
	}
	return true
}
