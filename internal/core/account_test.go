package core

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/cipher-x-sudo/midjourney-proxy/pkg/errors"
	"github.com/cipher-x-sudo/midjourney-proxy/pkg/structs"
)

func testAccount(ctx context.Context, id string, coreSize, queueSize int) *Account {
	return NewAccount(ctx, &structs.Account{
		ID:             id,
		ChannelID:      id,
		Enabled:        true,
		CoreSize:       coreSize,
		QueueSize:      queueSize,
		TimeoutMinutes: 1,
	}, zap.NewNop())
}

// blockingSend holds its slot until the context ends.
func blockingSend(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func TestAdmitWindow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	acc := testAccount(ctx, "a1", 1, 1)

	ahead, err := acc.Admit(newRunningTask(newTestTask("t1", "n1"), nil, nil), blockingSend)
	assert.Nil(t, err)
	assert.Equal(t, 0, ahead)

	ahead, err = acc.Admit(newRunningTask(newTestTask("t2", "n2"), nil, nil), blockingSend)
	assert.Nil(t, err)
	assert.Equal(t, 1, ahead)

	// window is core + queue = 2, the third is rejected
	_, err = acc.Admit(newRunningTask(newTestTask("t3", "n3"), nil, nil), blockingSend)
	assert.True(t, errors.Is(err, errors.ErrQueueFull))

	running, queued := acc.Load()
	assert.Equal(t, 2, running+queued)
}

func TestAdmitDisabled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	acc := testAccount(ctx, "a1", 1, 1)
	acc.SetEnabled(false)

	_, err := acc.Admit(newRunningTask(newTestTask("t1", "n1"), nil, nil), blockingSend)
	assert.True(t, errors.Is(err, errors.ErrAccountDisabled))
	assert.False(t, acc.Spare())
}

func TestAdmitConcurrentNeverOvercommits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	acc := testAccount(ctx, "a1", 2, 3)

	var wg sync.WaitGroup
	admitted := make(chan bool, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rt := newRunningTask(newTestTask(fmt.Sprintf("t%d", i), fmt.Sprintf("n%d", i)), nil, nil)
			_, err := acc.Admit(rt, blockingSend)
			admitted <- err == nil
		}(i)
	}
	wg.Wait()
	close(admitted)

	won := 0
	for ok := range admitted {
		if ok {
			won++
		}
	}
	assert.Equal(t, 5, won)

	running, queued := acc.Load()
	assert.Equal(t, 5, running+queued)
}

func TestSlotReleasedOnFinalize(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	acc := testAccount(ctx, "a1", 1, 0)

	rt := newRunningTask(newTestTask("t1", "n1"), nil, nil)
	_, err := acc.Admit(rt, func(ctx context.Context) error { return nil })
	assert.Nil(t, err)

	// window full while the task runs
	assert.Eventually(t, func() bool {
		running, _ := acc.Load()
		return running == 1
	}, time.Second, 5*time.Millisecond)
	assert.False(t, acc.Spare())

	rt.finalize(structs.SUCCESS, "", "http://img/x.png")

	assert.Eventually(t, func() bool {
		running, queued := acc.Load()
		return running+queued == 0
	}, time.Second, 5*time.Millisecond)
	assert.True(t, acc.Spare())

	// the slot is usable again
	_, err = acc.Admit(newRunningTask(newTestTask("t2", "n2"), nil, nil), blockingSend)
	assert.Nil(t, err)
}

func TestSendFailureFailsTask(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	acc := testAccount(ctx, "a1", 1, 0)

	rt := newRunningTask(newTestTask("t1", "n1"), nil, nil)
	_, err := acc.Admit(rt, func(ctx context.Context) error { return fmt.Errorf("boom") })
	assert.Nil(t, err)

	assert.Eventually(t, func() bool {
		return rt.snapshot().Status == structs.FAILURE
	}, time.Second, 5*time.Millisecond)
	assert.Contains(t, rt.snapshot().FailReason, "boom")

	assert.Eventually(t, func() bool {
		running, queued := acc.Load()
		return running+queued == 0
	}, time.Second, 5*time.Millisecond)
}

func TestQueuedTasksRunInOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	acc := testAccount(ctx, "a1", 1, 2)

	var mu sync.Mutex
	order := []string{}
	send := func(rt *runningTask) sendFunc {
		return func(ctx context.Context) error {
			mu.Lock()
			order = append(order, rt.id())
			mu.Unlock()
			rt.finalize(structs.SUCCESS, "", "")
			return nil
		}
	}

	for _, id := range []string{"t1", "t2", "t3"} {
		rt := newRunningTask(newTestTask(id, "n-"+id), nil, nil)
		_, err := acc.Admit(rt, send(rt))
		assert.Nil(t, err)
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 3
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"t1", "t2", "t3"}, order)
	mu.Unlock()
}

func TestFindByNonce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	acc := testAccount(ctx, "a1", 2, 2)

	rt := newRunningTask(newTestTask("t1", "n1"), nil, nil)
	_, err := acc.Admit(rt, func(ctx context.Context) error { return nil })
	assert.Nil(t, err)

	assert.Eventually(t, func() bool {
		return rt.snapshot().Status == structs.SUBMITTED
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, rt, acc.findByNonce("n1"))
	assert.Nil(t, acc.findByNonce("other"))

	// once bound the nonce no longer matches, the message id does
	rt.bind("m1", "", 0, "")
	assert.Nil(t, acc.findByNonce("n1"))
	assert.Equal(t, rt, acc.findByMessageID("m1"))

	rt.finalize(structs.SUCCESS, "", "")
	assert.Eventually(t, func() bool {
		return acc.findByMessageID("m1") == nil
	}, time.Second, 5*time.Millisecond)
}
