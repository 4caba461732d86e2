package core

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cipher-x-sudo/midjourney-proxy/pkg/discord"
	"github.com/cipher-x-sudo/midjourney-proxy/pkg/errors"
	"github.com/cipher-x-sudo/midjourney-proxy/pkg/structs"
)

// sendFunc performs the outbound command for an admitted task.
type sendFunc func(ctx context.Context) error

type admission struct {
	rt   *runningTask
	send sendFunc
}

// Account wraps one worker account with its admission window: at most
// CoreSize tasks running and QueueSize tasks queued behind them. Admission
// reserves a slot atomically; the slot is released exactly once, when the
// task reaches a terminal status and its worker moves on.
type Account struct {
	data *structs.Account
	log  *zap.Logger

	mu      sync.Mutex
	enabled bool
	running int
	queued  int
	active  map[string]*runningTask

	backlog chan *admission
	wg      sync.WaitGroup
}

func NewAccount(ctx context.Context, data *structs.Account, log *zap.Logger) *Account {
	data.Sanitize()
	a := &Account{
		data:    data,
		log:     log.With(zap.String("account", data.ID)),
		enabled: data.Enabled,
		active:  map[string]*runningTask{},
		backlog: make(chan *admission, data.CoreSize+data.QueueSize),
	}
	for i := 0; i < data.CoreSize; i++ {
		a.wg.Add(1)
		go a.worker(ctx)
	}
	return a
}

func (a *Account) ID() string {
	return a.data.ID
}

func (a *Account) Data() *structs.Account {
	return a.data
}

// Admit reserves a queue slot for the task and schedules its send. Returns
// the number of tasks ahead of it, or ErrQueueFull / ErrAccountDisabled.
func (a *Account) Admit(rt *runningTask, send sendFunc) (int, error) {
	a.mu.Lock()
	if !a.enabled {
		a.mu.Unlock()
		return 0, errors.ErrAccountDisabled
	}
	if a.running+a.queued >= a.data.CoreSize+a.data.QueueSize {
		a.mu.Unlock()
		return 0, errors.ErrQueueFull
	}
	ahead := a.running + a.queued
	a.queued++
	a.active[rt.id()] = rt
	a.mu.Unlock()

	// cannot block: backlog capacity equals the admission window
	a.backlog <- &admission{rt: rt, send: send}
	return ahead, nil
}

func (a *Account) worker(ctx context.Context) {
	defer a.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case adm, ok := <-a.backlog:
			if !ok {
				return
			}
			a.run(ctx, adm)
		}
	}
}

func (a *Account) run(ctx context.Context, adm *admission) {
	a.mu.Lock()
	a.queued--
	a.running++
	a.mu.Unlock()
	defer a.release(adm.rt)

	adm.rt.start()
	if err := adm.send(ctx); err != nil {
		a.log.Warn("send failed", zap.String("task", adm.rt.id()), zap.Error(err))
		adm.rt.finalize(structs.FAILURE, "failed to submit command: "+err.Error(), "")
		return
	}
	adm.rt.armTimeout(time.Duration(a.data.TimeoutMinutes) * time.Minute)

	select {
	case <-adm.rt.done:
	case <-ctx.Done():
		adm.rt.finalize(structs.FAILURE, "shutting down", "")
	}
}

func (a *Account) release(rt *runningTask) {
	a.mu.Lock()
	a.running--
	delete(a.active, rt.id())
	a.mu.Unlock()
}

// Wait blocks until all workers have exited.
func (a *Account) Wait() {
	a.wg.Wait()
}

// Load reports the current running and queued counts.
func (a *Account) Load() (running, queued int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running, a.queued
}

// Alive reports whether the account accepts new work at all.
func (a *Account) Alive() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}

// Spare reports whether the admission window has room.
func (a *Account) Spare() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled && a.running+a.queued < a.data.CoreSize+a.data.QueueSize
}

func (a *Account) SetEnabled(v bool) {
	a.mu.Lock()
	a.enabled = v
	a.data.Enabled = v
	a.mu.Unlock()
}

func (a *Account) snapshotActive() []*runningTask {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*runningTask, 0, len(a.active))
	for _, rt := range a.active {
		out = append(out, rt)
	}
	return out
}

func (a *Account) findByNonce(nonce string) *runningTask {
	if nonce == "" {
		return nil
	}
	for _, rt := range a.snapshotActive() {
		if rt.matchNonce(nonce) {
			return rt
		}
	}
	return nil
}

func (a *Account) findByMessageID(messageID string) *runningTask {
	for _, rt := range a.snapshotActive() {
		if rt.matchMessageID(messageID) {
			return rt
		}
	}
	return nil
}

// findForCompletion locates the task a final message belongs to: first the
// in-progress task whose resolved prompt matches, then the oldest submitted
// task matching on normalized primary prompt.
func (a *Account) findForCompletion(finalPrompt string) *runningTask {
	candidates := a.snapshotActive()
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].startTime() < candidates[j].startTime()
	})
	for _, rt := range candidates {
		if rt.matchFinalPrompt(finalPrompt) {
			return rt
		}
	}
	normalized := squash(discord.PrimaryPrompt(finalPrompt))
	for _, rt := range candidates {
		if rt.matchPrimaryPrompt(normalized) {
			return rt
		}
	}
	return nil
}
