package econ

import (
	"sync"
	"time"
)

// DefaultNoticeTTL is how long a transient message stays visible unless a
// newer one supersedes it first.
const DefaultNoticeTTL = 3 * time.Second

// Notices holds the two transient message channels: at most one success and
// one error message at a time, each auto-clearing after the TTL. Setting a
// message resets that channel's expiry; the channels never touch each other.
type Notices struct {
	mu         sync.Mutex
	ttl        time.Duration
	success    string
	successGen uint64
	errText    string
	errGen     uint64
	onChange   func()
}

func NewNotices(ttl time.Duration, onChange func()) *Notices {
	if ttl <= 0 {
		ttl = DefaultNoticeTTL
	}
	if onChange == nil {
		onChange = func() {}
	}
	return &Notices{ttl: ttl, onChange: onChange}
}

func (n *Notices) SetSuccess(text string) {
	n.mu.Lock()
	n.success = text
	n.successGen++
	gen := n.successGen
	ttl := n.ttl
	n.mu.Unlock()
	n.onChange()

	time.AfterFunc(ttl, func() {
		n.mu.Lock()
		if n.successGen != gen {
			n.mu.Unlock()
			return
		}
		n.success = ""
		n.mu.Unlock()
		n.onChange()
	})
}

func (n *Notices) SetError(text string) {
	n.mu.Lock()
	n.errText = text
	n.errGen++
	gen := n.errGen
	ttl := n.ttl
	n.mu.Unlock()
	n.onChange()

	time.AfterFunc(ttl, func() {
		n.mu.Lock()
		if n.errGen != gen {
			n.mu.Unlock()
			return
		}
		n.errText = ""
		n.mu.Unlock()
		n.onChange()
	})
}

func (n *Notices) ClearSuccess() {
	n.mu.Lock()
	n.success = ""
	n.successGen++
	n.mu.Unlock()
}

func (n *Notices) ClearError() {
	n.mu.Lock()
	n.errText = ""
	n.errGen++
	n.mu.Unlock()
}

func (n *Notices) Success() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.success
}

func (n *Notices) Error() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.errText
}
