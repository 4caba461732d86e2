package core

import (
	"sync"

	"github.com/cipher-x-sudo/midjourney-proxy/pkg/errors"
)

// Rule picks one account out of a pre-filtered eligible set.
type Rule interface {
	Choose(eligible []*Account) *Account
}

// LeastBusy picks the account with the fewest running plus queued tasks,
// breaking ties by configuration order.
type LeastBusy struct{}

func (LeastBusy) Choose(eligible []*Account) *Account {
	var best *Account
	bestLoad := 0
	for _, a := range eligible {
		running, queued := a.Load()
		load := running + queued
		if best == nil || load < bestLoad {
			best = a
			bestLoad = load
		}
	}
	return best
}

// RoundRobin cycles through eligible accounts in order.
type RoundRobin struct {
	mu  sync.Mutex
	pos int
}

func (r *RoundRobin) Choose(eligible []*Account) *Account {
	if len(eligible) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a := eligible[r.pos%len(eligible)]
	r.pos++
	return a
}

// Balancer holds the account pool in configuration order and applies the
// selection rule over accounts that are enabled with spare capacity.
type Balancer struct {
	rule     Rule
	accounts []*Account
	byID     map[string]*Account
}

func NewBalancer(rule Rule, accounts []*Account) *Balancer {
	if rule == nil {
		rule = LeastBusy{}
	}
	byID := make(map[string]*Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID()] = a
	}
	return &Balancer{rule: rule, accounts: accounts, byID: byID}
}

// Choose selects an account for a new task. With a preferred id only that
// account is considered; otherwise the rule runs over the eligible set.
// No eligible account is an error, never a fallback.
func (b *Balancer) Choose(preferredID string) (*Account, error) {
	if preferredID != "" {
		a := b.byID[preferredID]
		if a == nil {
			return nil, errors.ErrAccountNotFound
		}
		if !a.Alive() {
			return nil, errors.ErrAccountDisabled
		}
		if !a.Spare() {
			return nil, errors.ErrQueueFull
		}
		return a, nil
	}

	eligible := make([]*Account, 0, len(b.accounts))
	for _, a := range b.accounts {
		if a.Spare() {
			eligible = append(eligible, a)
		}
	}
	a := b.rule.Choose(eligible)
	if a == nil {
		return nil, errors.ErrQueueFull
	}
	return a, nil
}

func (b *Balancer) Get(id string) *Account {
	return b.byID[id]
}

func (b *Balancer) All() []*Account {
	return b.accounts
}
