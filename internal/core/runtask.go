package core

import (
	"strings"
	"sync"
	"time"

	"github.com/cipher-x-sudo/midjourney-proxy/pkg/discord"
	"github.com/cipher-x-sudo/midjourney-proxy/pkg/structs"
)

// runningTask owns all post-admission mutation of one task. Every status
// write goes through its mutex, and the transition into a terminal status is
// a compare-and-set: whichever of {external success, external failure,
// timeout, send failure} gets there first wins, later triggers are no-ops.
type runningTask struct {
	mu   sync.Mutex
	task *structs.Task

	timer *time.Timer
	done  chan struct{}

	// onChange is called with a snapshot after non-terminal mutations,
	// onFinish exactly once after the winning terminal transition.
	onChange func(*structs.Task)
	onFinish func(*structs.Task)
}

func newRunningTask(t *structs.Task, onChange, onFinish func(*structs.Task)) *runningTask {
	if onChange == nil {
		onChange = func(*structs.Task) {}
	}
	if onFinish == nil {
		onFinish = func(*structs.Task) {}
	}
	return &runningTask{
		task:     t,
		done:     make(chan struct{}),
		onChange: onChange,
		onFinish: onFinish,
	}
}

func (r *runningTask) id() string {
	return r.task.ID
}

func (r *runningTask) action() structs.Action {
	return r.task.Action
}

func (r *runningTask) snapshot() *structs.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *r.task
	return &cp
}

// start marks the task submitted; called by the account worker at dequeue.
func (r *runningTask) start() {
	r.mu.Lock()
	if structs.IsFinalStatus(r.task.Status) {
		r.mu.Unlock()
		return
	}
	r.task.Status = structs.SUBMITTED
	r.task.StartTime = time.Now().UnixMilli()
	r.task.Progress = "0%"
	cp := *r.task
	r.mu.Unlock()
	r.onChange(&cp)
}

// armTimeout starts the per-task timer; if it fires before a terminal
// status is reached the task is force-failed.
func (r *runningTask) armTimeout(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if structs.IsFinalStatus(r.task.Status) {
		return
	}
	r.timer = time.AfterFunc(d, func() {
		r.finalize(structs.FAILURE, "task timeout", "")
	})
}

// bind attaches the task to the message the external side created for it
// and advances it to IN_PROGRESS. Only an unbound SUBMITTED task binds.
func (r *runningTask) bind(messageID, messageHash string, flags int64, finalPrompt string) bool {
	r.mu.Lock()
	if r.task.Status != structs.SUBMITTED || r.task.Correlation.MessageID != "" {
		r.mu.Unlock()
		return false
	}
	r.task.Correlation.MessageID = messageID
	if messageHash != "" {
		r.task.Correlation.MessageHash = messageHash
	}
	r.task.Correlation.Flags = flags
	if finalPrompt != "" {
		r.task.Correlation.FinalPrompt = finalPrompt
	}
	r.task.Status = structs.IN_PROGRESS
	cp := *r.task
	r.mu.Unlock()
	r.onChange(&cp)
	return true
}

// setProgress records a progress indicator and any intermediate image.
func (r *runningTask) setProgress(progress, imageURL, messageHash, finalPrompt string) bool {
	r.mu.Lock()
	if structs.IsFinalStatus(r.task.Status) {
		r.mu.Unlock()
		return false
	}
	r.task.Status = structs.IN_PROGRESS
	r.task.Progress = progress
	if imageURL != "" {
		r.task.ImageURL = imageURL
	}
	if messageHash != "" {
		r.task.Correlation.MessageHash = messageHash
	}
	if finalPrompt != "" {
		r.task.Correlation.FinalPrompt = finalPrompt
	}
	cp := *r.task
	r.mu.Unlock()
	r.onChange(&cp)
	return true
}

// succeed finalizes the task with its resulting image. The message fields
// rebind to the final message, which may differ from the progress message.
func (r *runningTask) succeed(evt *discord.Event, finalPrompt string) bool {
	r.mu.Lock()
	if structs.IsFinalStatus(r.task.Status) {
		r.mu.Unlock()
		return false
	}
	if evt.MessageID != "" {
		r.task.Correlation.MessageID = evt.MessageID
	}
	if evt.MessageHash != "" {
		r.task.Correlation.MessageHash = evt.MessageHash
	}
	r.task.Correlation.Flags = evt.Flags
	if finalPrompt != "" {
		r.task.Correlation.FinalPrompt = finalPrompt
	}
	if evt.ImageURL != "" {
		r.task.ImageURL = evt.ImageURL
	}
	r.finishLocked(structs.SUCCESS, "")
	cp := *r.task
	r.mu.Unlock()
	r.onFinish(&cp)
	return true
}

// succeedWithEmbed finalizes a task whose result is text rather than a
// grid: the embed description becomes the produced prompt.
func (r *runningTask) succeedWithEmbed(evt *discord.Event) bool {
	r.mu.Lock()
	if structs.IsFinalStatus(r.task.Status) {
		r.mu.Unlock()
		return false
	}
	r.task.Prompt = evt.Embed
	r.task.PromptEn = evt.Embed
	r.task.Correlation.FinalPrompt = evt.Embed
	if evt.ImageURL != "" {
		r.task.ImageURL = evt.ImageURL
	}
	r.finishLocked(structs.SUCCESS, "")
	cp := *r.task
	r.mu.Unlock()
	r.onFinish(&cp)
	return true
}

// finalize moves the task to the given terminal status if it is not already
// terminal. Returns true only for the winning caller.
func (r *runningTask) finalize(st structs.Status, reason, imageURL string) bool {
	r.mu.Lock()
	if structs.IsFinalStatus(r.task.Status) {
		r.mu.Unlock()
		return false
	}
	if imageURL != "" {
		r.task.ImageURL = imageURL
	}
	r.finishLocked(st, reason)
	cp := *r.task
	r.mu.Unlock()
	r.onFinish(&cp)
	return true
}

func (r *runningTask) finishLocked(st structs.Status, reason string) {
	r.task.Status = st
	r.task.FinishTime = time.Now().UnixMilli()
	if st == structs.SUCCESS {
		r.task.Progress = "100%"
	} else {
		r.task.Progress = ""
		r.task.FailReason = reason
	}
	if r.timer != nil {
		r.timer.Stop()
	}
	close(r.done)
}

// matchers used by the correlator; all read under the task mutex

func (r *runningTask) matchNonce(nonce string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.task.Correlation.Nonce == nonce &&
		r.task.Status == structs.SUBMITTED &&
		r.task.Correlation.MessageID == ""
}

func (r *runningTask) matchMessageID(messageID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.task.Correlation.MessageID == messageID && !structs.IsFinalStatus(r.task.Status)
}

func (r *runningTask) matchFinalPrompt(finalPrompt string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.task.Status == structs.IN_PROGRESS && r.task.Correlation.FinalPrompt == finalPrompt
}

// matchPrimaryPrompt is the fallback for completion events that carry no
// token and never produced a progress message: compare normalized prompts.
func (r *runningTask) matchPrimaryPrompt(normalized string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.task.Status != structs.SUBMITTED {
		return false
	}
	prompt := r.task.PromptEn
	if prompt == "" {
		prompt = r.task.Prompt
	}
	return normalized == squash(discord.PrimaryPrompt(prompt))
}

func (r *runningTask) startTime() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.task.StartTime
}

func squash(s string) string {
	return strings.Join(strings.Fields(s), "")
}
