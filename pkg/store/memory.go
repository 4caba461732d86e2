package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cipher-x-sudo/midjourney-proxy/pkg/structs"
)

type memoryEntry struct {
	task      *structs.Task
	expiresAt time.Time
}

// Memory is an in-process Store. A background sweep evicts expired tasks;
// reads also check expiry so a task never outlives its retention window
// between sweeps.
type Memory struct {
	opts *Options

	mu    sync.RWMutex
	tasks map[string]*memoryEntry

	stop chan struct{}
	once sync.Once
}

func NewMemory(opts *Options) *Memory {
	if opts == nil {
		opts = &Options{}
	}
	opts.sanitize()
	m := &Memory{
		opts:  opts,
		tasks: map[string]*memoryEntry{},
		stop:  make(chan struct{}),
	}
	go m.sweep()
	return m
}

func (m *Memory) sweep() {
	tick := time.NewTicker(m.opts.SweepEvery)
	defer tick.Stop()
	for {
		select {
		case <-m.stop:
			return
		case now := <-tick.C:
			m.mu.Lock()
			for id, e := range m.tasks {
				if e.expiresAt.Before(now) {
					delete(m.tasks, id)
				}
			}
			m.mu.Unlock()
		}
	}
}

func (m *Memory) Save(ctx context.Context, t *structs.Task) error {
	cp := *t
	m.mu.Lock()
	m.tasks[t.ID] = &memoryEntry{task: &cp, expiresAt: time.Now().Add(m.opts.Retention)}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Get(ctx context.Context, id string) (*structs.Task, error) {
	m.mu.RLock()
	e, ok := m.tasks[id]
	m.mu.RUnlock()
	if !ok || e.expiresAt.Before(time.Now()) {
		return nil, nil
	}
	cp := *e.task
	return &cp, nil
}

func (m *Memory) GetAll(ctx context.Context, ids []string) ([]*structs.Task, error) {
	out := []*structs.Task{}
	for _, id := range ids {
		t, err := m.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if t != nil {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.tasks, id)
	m.mu.Unlock()
	return nil
}

func (m *Memory) List(ctx context.Context, q *structs.TaskQuery) ([]*structs.Task, error) {
	q.Sanitize()

	now := time.Now()
	matched := []*structs.Task{}
	m.mu.RLock()
	for _, e := range m.tasks {
		if e.expiresAt.Before(now) {
			continue
		}
		if q.Match(e.task) {
			cp := *e.task
			matched = append(matched, &cp)
		}
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].SubmitTime == matched[j].SubmitTime {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].SubmitTime > matched[j].SubmitTime
	})

	if q.Offset >= len(matched) {
		return []*structs.Task{}, nil
	}
	matched = matched[q.Offset:]
	if len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func (m *Memory) Count(ctx context.Context, q *structs.TaskQuery) (int, error) {
	q.Sanitize()

	now := time.Now()
	count := 0
	m.mu.RLock()
	for _, e := range m.tasks {
		if e.expiresAt.Before(now) {
			continue
		}
		if q.Match(e.task) {
			count++
		}
	}
	m.mu.RUnlock()
	return count, nil
}

func (m *Memory) Close() error {
	m.once.Do(func() { close(m.stop) })
	return nil
}
