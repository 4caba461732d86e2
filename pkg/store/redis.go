package store

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/cipher-x-sudo/midjourney-proxy/pkg/structs"
)

const taskKeyPrefix = "mj:task:"

// Redis is a Store backed by a redis instance. The retention window is the
// key TTL, so eviction needs no sweep of our own.
type Redis struct {
	opts *Options
	cli  *redis.Client
}

func NewRedis(opts *Options) (*Redis, error) {
	if opts == nil {
		opts = &Options{}
	}
	opts.sanitize()
	ropts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, err
	}
	return &Redis{opts: opts, cli: redis.NewClient(ropts)}, nil
}

func taskKey(id string) string {
	return taskKeyPrefix + id
}

func (r *Redis) Save(ctx context.Context, t *structs.Task) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return r.cli.Set(ctx, taskKey(t.ID), data, r.opts.Retention).Err()
}

func (r *Redis) Get(ctx context.Context, id string) (*structs.Task, error) {
	data, err := r.cli.Get(ctx, taskKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t := &structs.Task{}
	if err := json.Unmarshal(data, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *Redis) GetAll(ctx context.Context, ids []string) ([]*structs.Task, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	found := make([]*structs.Task, len(ids))
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			t, err := r.Get(ctx, id)
			if err != nil {
				return err
			}
			found[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := []*structs.Task{}
	for _, t := range found {
		if t != nil {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *Redis) Delete(ctx context.Context, id string) error {
	return r.cli.Del(ctx, taskKey(id)).Err()
}

func (r *Redis) List(ctx context.Context, q *structs.TaskQuery) ([]*structs.Task, error) {
	q.Sanitize()

	matched := []*structs.Task{}
	iter := r.cli.Scan(ctx, 0, taskKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		data, err := r.cli.Get(ctx, iter.Val()).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, err
		}
		t := &structs.Task{}
		if err := json.Unmarshal(data, t); err != nil {
			continue
		}
		if q.Match(t) {
			matched = append(matched, t)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

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

func (r *Redis) Count(ctx context.Context, q *structs.TaskQuery) (int, error) {
	q.Sanitize()

	count := 0
	iter := r.cli.Scan(ctx, 0, taskKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		data, err := r.cli.Get(ctx, iter.Val()).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return 0, err
		}
		t := &structs.Task{}
		if err := json.Unmarshal(data, t); err != nil {
			continue
		}
		if q.Match(t) {
			count++
		}
	}
	if err := iter.Err(); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *Redis) Close() error {
	return r.cli.Close()
}
