// Package job holds in-process coordination primitives for running jobs.
package job

import (
	"sync"
)

// Notifier fans job update signals out to subscribers waiting on a specific job id.
type Notifier interface {
	Subscribe(jobID string) (func(), <-chan struct{})
	Publish(jobID string)
	StopAll()
}

// DefaultNotifier is the default implementation of Notifier.
// Signals are coalesced: a subscriber that has not consumed the previous signal
// observes a single pending notification.
type DefaultNotifier struct {
	mu      sync.Mutex
	subs    map[string]map[chan struct{}]struct{}
	stopped bool
}

// NewNotifier constructs the default notifier implementation.
func NewNotifier() *DefaultNotifier {
	return &DefaultNotifier{
		subs: make(map[string]map[chan struct{}]struct{}),
	}
}

// Subscribe registers interest in updates for jobID. The returned func unsubscribes and
// closes the channel; it is safe to call more than once.
func (n *DefaultNotifier) Subscribe(jobID string) (func(), <-chan struct{}) {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(chan struct{}, 1)
	if n.stopped {
		close(ch)
		return func() {}, ch
	}

	if n.subs[jobID] == nil {
		n.subs[jobID] = make(map[chan struct{}]struct{})
	}
	n.subs[jobID][ch] = struct{}{}

	unsub := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		subscribers := n.subs[jobID]
		if subscribers == nil {
			return
		}

		if _, ok := subscribers[ch]; !ok {
			return
		}
		delete(subscribers, ch)
		drainAndClose(ch)
		if len(subscribers) == 0 {
			delete(n.subs, jobID)
		}
	}

	return unsub, ch
}

// Publish wakes every subscriber of jobID without blocking.
func (n *DefaultNotifier) Publish(jobID string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for ch := range n.subs[jobID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// StopAll closes every subscription; later subscriptions receive a closed channel.
func (n *DefaultNotifier) StopAll() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.stopped = true
	for jobID, subscribers := range n.subs {
		for ch := range subscribers {
			drainAndClose(ch)
		}
		delete(n.subs, jobID)
	}
}

// drainAndClose removes any buffered notifications before closing the channel so
// receivers observe a closed channel immediately.
func drainAndClose(ch chan struct{}) {
	for {
		select {
		case <-ch:
		default:
			close(ch)
			return
		}
	}
}

var _ Notifier = (*DefaultNotifier)(nil)
