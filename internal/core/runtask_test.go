package core

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cipher-x-sudo/midjourney-proxy/pkg/discord"
	"github.com/cipher-x-sudo/midjourney-proxy/pkg/structs"
)

func newTestTask(id, nonce string) *structs.Task {
	return &structs.Task{
		ID:          id,
		Action:      structs.ActionImagine,
		Status:      structs.NOT_START,
		Prompt:      "a cat",
		PromptEn:    "a cat",
		SubmitTime:  time.Now().UnixMilli(),
		Correlation: structs.Correlation{Nonce: nonce},
	}
}

func TestRunningTaskLifecycle(t *testing.T) {
	var finished []*structs.Task
	rt := newRunningTask(newTestTask("t1", "n1"), nil, func(snap *structs.Task) {
		finished = append(finished, snap)
	})

	rt.start()
	assert.Equal(t, structs.SUBMITTED, rt.snapshot().Status)
	assert.NotZero(t, rt.snapshot().StartTime)

	assert.True(t, rt.bind("m1", "hash1", 0, "a cat"))
	snap := rt.snapshot()
	assert.Equal(t, structs.IN_PROGRESS, snap.Status)
	assert.Equal(t, "m1", snap.Correlation.MessageID)
	assert.Equal(t, "hash1", snap.Correlation.MessageHash)

	assert.True(t, rt.setProgress("50%", "http://img/partial.png", "", ""))
	assert.Equal(t, "50%", rt.snapshot().Progress)

	assert.True(t, rt.succeed(&discord.Event{
		MessageID:   "m2",
		MessageHash: "hash2",
		ImageURL:    "http://img/final.png",
	}, "a cat"))

	snap = rt.snapshot()
	assert.Equal(t, structs.SUCCESS, snap.Status)
	assert.Equal(t, "100%", snap.Progress)
	assert.Equal(t, "http://img/final.png", snap.ImageURL)
	assert.Equal(t, "m2", snap.Correlation.MessageID)
	assert.NotZero(t, snap.FinishTime)
	assert.Len(t, finished, 1)
}

func TestRunningTaskBindRequiresSubmitted(t *testing.T) {
	rt := newRunningTask(newTestTask("t1", "n1"), nil, nil)

	// not started yet
	assert.False(t, rt.bind("m1", "", 0, ""))

	rt.start()
	assert.True(t, rt.bind("m1", "", 0, ""))

	// already bound
	assert.False(t, rt.bind("m2", "", 0, ""))
	assert.Equal(t, "m1", rt.snapshot().Correlation.MessageID)
}

func TestRunningTaskFinalizeOnce(t *testing.T) {
	var mu sync.Mutex
	finished := 0
	rt := newRunningTask(newTestTask("t1", "n1"), nil, func(*structs.Task) {
		mu.Lock()
		finished++
		mu.Unlock()
	})
	rt.start()

	wins := make(chan bool, 16)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				wins <- rt.finalize(structs.FAILURE, "task timeout", "")
			} else {
				wins <- rt.succeed(&discord.Event{ImageURL: "http://img/x.png"}, "")
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	won := 0
	for w := range wins {
		if w {
			won++
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, finished)
	assert.True(t, structs.IsFinalStatus(rt.snapshot().Status))

	// done is closed exactly once, later triggers are no-ops
	select {
	case <-rt.done:
	default:
		t.Fatal("done not closed")
	}
	assert.False(t, rt.setProgress("90%", "", "", ""))
}

func TestRunningTaskTimeout(t *testing.T) {
	rt := newRunningTask(newTestTask("t1", "n1"), nil, nil)
	rt.start()
	rt.armTimeout(10 * time.Millisecond)

	select {
	case <-rt.done:
	case <-time.After(time.Second):
		t.Fatal("timeout did not fire")
	}

	snap := rt.snapshot()
	assert.Equal(t, structs.FAILURE, snap.Status)
	assert.Equal(t, "task timeout", snap.FailReason)
}

func TestRunningTaskTimerStoppedOnFinish(t *testing.T) {
	rt := newRunningTask(newTestTask("t1", "n1"), nil, nil)
	rt.start()
	rt.armTimeout(20 * time.Millisecond)

	assert.True(t, rt.finalize(structs.SUCCESS, "", "http://img/x.png"))

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, structs.SUCCESS, rt.snapshot().Status)
}
