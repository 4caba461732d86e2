package core

import (
	"context"
	"encoding/base64"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/cipher-x-sudo/midjourney-proxy/internal/mocks/pkg/discord_mock"
	"github.com/cipher-x-sudo/midjourney-proxy/internal/mocks/pkg/store_mock"
	"github.com/cipher-x-sudo/midjourney-proxy/internal/mocks/pkg/webhook_mock"
	"github.com/cipher-x-sudo/midjourney-proxy/pkg/discord"
	"github.com/cipher-x-sudo/midjourney-proxy/pkg/store"
	"github.com/cipher-x-sudo/midjourney-proxy/pkg/structs"
)

type fixture struct {
	svc    *Service
	store  store.Store
	sender *discord_mock.MockSender
	hook   *webhook_mock.MockSender
	events chan *discord.Event
}

func newFixture(t *testing.T, accounts []*structs.Account, opts *Options) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	sender := discord_mock.NewMockSender(ctrl)
	hook := webhook_mock.NewMockSender(ctrl)
	events := make(chan *discord.Event, 16)

	source := discord_mock.NewMockEventSource(ctrl)
	source.EXPECT().Listen(gomock.Any(), gomock.Any()).
		Return((<-chan *discord.Event)(events), nil).AnyTimes()

	if accounts == nil {
		accounts = []*structs.Account{{ChannelID: "chan-1", Enabled: true}}
	}

	st := store.NewMemory(nil)
	svc, err := NewService(st, sender, source, nil, hook, accounts, opts, zap.NewNop())
	assert.Nil(t, err)
	t.Cleanup(func() {
		svc.Close()
		st.Close()
	})

	return &fixture{svc: svc, store: st, sender: sender, hook: hook, events: events}
}

func pngDataURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("fake png bytes"))
}

func waitStatus(t *testing.T, f *fixture, id string, status structs.Status) *structs.Task {
	t.Helper()
	var got *structs.Task
	assert.Eventually(t, func() bool {
		task, err := f.store.Get(context.Background(), id)
		if err != nil || task == nil {
			return false
		}
		got = task
		return task.Status == status
	}, 2*time.Second, 5*time.Millisecond)
	return got
}

func TestSubmitImagine(t *testing.T) {
	f := newFixture(t, nil, nil)

	f.sender.EXPECT().Imagine(gomock.Any(), gomock.Any(), "a cat in a hat", gomock.Any()).Return(nil)

	res := f.svc.SubmitImagine(context.Background(), &structs.ImagineRequest{Prompt: "a cat in a hat"})

	assert.Equal(t, structs.CodeInQueue, res.Code)
	assert.NotEmpty(t, res.TaskID)
	assert.Equal(t, 0, res.Properties["numberOfQueues"])

	task := waitStatus(t, f, res.TaskID, structs.SUBMITTED)
	assert.Equal(t, structs.ActionImagine, task.Action)
	assert.Equal(t, "a cat in a hat", task.Prompt)
	assert.Equal(t, "chan-1", task.Correlation.AccountID)
	assert.NotEmpty(t, task.Correlation.Nonce)
}

func TestSubmitImagineEmptyPrompt(t *testing.T) {
	f := newFixture(t, nil, nil)

	res := f.svc.SubmitImagine(context.Background(), &structs.ImagineRequest{Prompt: "   "})

	assert.Equal(t, structs.CodeValidationError, res.Code)
}

func TestSubmitImagineBannedPrompt(t *testing.T) {
	f := newFixture(t, nil, &Options{BannedWords: []string{"blood"}})

	res := f.svc.SubmitImagine(context.Background(), &structs.ImagineRequest{Prompt: "a pool of blood"})

	assert.Equal(t, structs.CodeBannedPrompt, res.Code)
	assert.Equal(t, "blood", res.Properties["bannedWord"])

	// nothing was persisted
	tasks, err := f.store.List(context.Background(), &structs.TaskQuery{})
	assert.Nil(t, err)
	assert.Len(t, tasks, 0)
}

func TestSubmitImagineQueueRejected(t *testing.T) {
	accounts := []*structs.Account{{ChannelID: "chan-1", Enabled: true, CoreSize: 1, QueueSize: 1}}
	f := newFixture(t, accounts, nil)

	block := make(chan struct{})
	defer close(block)
	f.sender.EXPECT().Imagine(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, *structs.Account, string, string) error {
			<-block
			return nil
		}).AnyTimes()

	first := f.svc.SubmitImagine(context.Background(), &structs.ImagineRequest{Prompt: "first"})
	assert.Equal(t, structs.CodeInQueue, first.Code)
	second := f.svc.SubmitImagine(context.Background(), &structs.ImagineRequest{Prompt: "second"})
	assert.Equal(t, structs.CodeInQueue, second.Code)
	assert.Equal(t, 1, second.Properties["numberOfQueues"])

	third := f.svc.SubmitImagine(context.Background(), &structs.ImagineRequest{Prompt: "third"})
	assert.Equal(t, structs.CodeQueueRejected, third.Code)

	// the rejected task left no trace
	tasks, err := f.store.List(context.Background(), &structs.TaskQuery{})
	assert.Nil(t, err)
	assert.Len(t, tasks, 2)
}

func TestSubmitImaginePinnedAccount(t *testing.T) {
	accounts := []*structs.Account{
		{ChannelID: "chan-1", Enabled: true},
		{ChannelID: "chan-2", Enabled: true},
	}
	f := newFixture(t, accounts, nil)

	f.sender.EXPECT().Imagine(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	res := f.svc.SubmitImagine(context.Background(), &structs.ImagineRequest{
		BaseSubmit: structs.BaseSubmit{AccountID: "chan-2"},
		Prompt:     "a cat",
	})
	assert.Equal(t, structs.CodeInQueue, res.Code)

	task := waitStatus(t, f, res.TaskID, structs.SUBMITTED)
	assert.Equal(t, "chan-2", task.Correlation.AccountID)

	res = f.svc.SubmitImagine(context.Background(), &structs.ImagineRequest{
		BaseSubmit: structs.BaseSubmit{AccountID: "nope"},
		Prompt:     "a cat",
	})
	assert.Equal(t, structs.CodeNotFound, res.Code)
}

func saveSource(t *testing.T, f *fixture, id string, action structs.Action, status structs.Status) *structs.Task {
	t.Helper()
	src := &structs.Task{
		ID:         id,
		Action:     action,
		Status:     status,
		Prompt:     "a cat",
		PromptEn:   "a cat",
		SubmitTime: time.Now().UnixMilli(),
		Correlation: structs.Correlation{
			AccountID:   "chan-1",
			MessageID:   "m-src",
			MessageHash: "hash-src",
			Flags:       0,
			FinalPrompt: "a cat",
		},
	}
	assert.Nil(t, f.store.Save(context.Background(), src))
	return src
}

func TestSubmitChangeValidation(t *testing.T) {
	f := newFixture(t, nil, nil)

	cases := []struct {
		Name   string
		Given  *structs.ChangeRequest
		Expect structs.ReturnCode
	}{
		{
			"EmptyTaskID",
			&structs.ChangeRequest{Action: structs.ActionUpscale, Index: 1},
			structs.CodeValidationError,
		},
		{
			"NotAChangeAction",
			&structs.ChangeRequest{TaskID: "x", Action: structs.ActionImagine},
			structs.CodeValidationError,
		},
		{
			"IndexOutOfRange",
			&structs.ChangeRequest{TaskID: "x", Action: structs.ActionUpscale, Index: 5},
			structs.CodeValidationError,
		},
		{
			"UnknownSource",
			&structs.ChangeRequest{TaskID: "missing", Action: structs.ActionUpscale, Index: 1},
			structs.CodeNotFound,
		},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			res := f.svc.SubmitChange(context.Background(), c.Given)
			assert.Equal(t, c.Expect, res.Code)
		})
	}
}

func TestSubmitChangeStoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := store_mock.NewMockStore(ctrl)
	sender := discord_mock.NewMockSender(ctrl)
	hook := webhook_mock.NewMockSender(ctrl)
	events := make(chan *discord.Event)
	source := discord_mock.NewMockEventSource(ctrl)
	source.EXPECT().Listen(gomock.Any(), gomock.Any()).Return((<-chan *discord.Event)(events), nil)

	st.EXPECT().Get(gomock.Any(), "src").Return(nil, fmt.Errorf("connection refused"))

	svc, err := NewService(
		st, sender, source, nil, hook,
		[]*structs.Account{{ChannelID: "chan-1", Enabled: true}},
		nil, zap.NewNop(),
	)
	assert.Nil(t, err)
	defer svc.Close()

	res := svc.SubmitChange(context.Background(), &structs.ChangeRequest{
		TaskID: "src", Action: structs.ActionUpscale, Index: 1,
	})
	assert.Equal(t, structs.CodeFailure, res.Code)
}

func TestSubmitChangeSourceChecks(t *testing.T) {
	f := newFixture(t, nil, nil)

	// source still running
	saveSource(t, f, "running", structs.ActionImagine, structs.IN_PROGRESS)
	res := f.svc.SubmitChange(context.Background(), &structs.ChangeRequest{
		TaskID: "running", Action: structs.ActionUpscale, Index: 1,
	})
	assert.Equal(t, structs.CodeValidationError, res.Code)

	// a described image has no grid to derive from
	saveSource(t, f, "described", structs.ActionDescribe, structs.SUCCESS)
	res = f.svc.SubmitChange(context.Background(), &structs.ChangeRequest{
		TaskID: "described", Action: structs.ActionVariation, Index: 1,
	})
	assert.Equal(t, structs.CodeValidationError, res.Code)
}

func TestSubmitChangeUpscale(t *testing.T) {
	f := newFixture(t, nil, nil)
	saveSource(t, f, "src", structs.ActionImagine, structs.SUCCESS)

	f.sender.EXPECT().Upscale(gomock.Any(), gomock.Any(), "m-src", 2, "hash-src", int64(0), gomock.Any()).Return(nil)

	res := f.svc.SubmitChange(context.Background(), &structs.ChangeRequest{
		TaskID: "src", Action: structs.ActionUpscale, Index: 2,
	})
	assert.Equal(t, structs.CodeInQueue, res.Code)

	task := waitStatus(t, f, res.TaskID, structs.SUBMITTED)
	assert.Equal(t, structs.ActionUpscale, task.Action)
	assert.Equal(t, "a cat", task.Prompt)
	assert.Equal(t, "hash-src", task.Correlation.MessageHash)
	assert.Equal(t, "src", task.Change.SourceTaskID)
	assert.Equal(t, 2, task.Change.Index)
	assert.Equal(t, "/up src U2", task.Description)

	// the same upscale again is reported as already submitted
	dup := f.svc.SubmitChange(context.Background(), &structs.ChangeRequest{
		TaskID: "src", Action: structs.ActionUpscale, Index: 2,
	})
	assert.Equal(t, structs.CodeExisted, dup.Code)
	assert.Equal(t, res.TaskID, dup.TaskID)
}

func TestSubmitChangeUpscaleReusesFinished(t *testing.T) {
	f := newFixture(t, nil, nil)
	saveSource(t, f, "src", structs.ActionImagine, structs.SUCCESS)

	done := &structs.Task{
		ID:         "done",
		Action:     structs.ActionUpscale,
		Status:     structs.SUCCESS,
		ImageURL:   "http://img/u2.png",
		SubmitTime: time.Now().UnixMilli(),
		Change:     &structs.ChangeSpec{SourceTaskID: "src", Index: 2},
	}
	assert.Nil(t, f.store.Save(context.Background(), done))

	res := f.svc.SubmitChange(context.Background(), &structs.ChangeRequest{
		TaskID: "src", Action: structs.ActionUpscale, Index: 2,
	})

	assert.Equal(t, structs.CodeSuccess, res.Code)
	assert.Equal(t, "done", res.TaskID)
	assert.Equal(t, "http://img/u2.png", res.Properties["imageUrl"])
}

func TestSubmitChangeReroll(t *testing.T) {
	f := newFixture(t, nil, nil)
	saveSource(t, f, "src", structs.ActionImagine, structs.SUCCESS)

	f.sender.EXPECT().Reroll(gomock.Any(), gomock.Any(), "m-src", "hash-src", int64(0), gomock.Any()).Return(nil)

	res := f.svc.SubmitChange(context.Background(), &structs.ChangeRequest{
		TaskID: "src", Action: structs.ActionReroll,
	})
	assert.Equal(t, structs.CodeInQueue, res.Code)

	task := waitStatus(t, f, res.TaskID, structs.SUBMITTED)
	assert.Equal(t, "/up src R", task.Description)
}

func TestSubmitSimpleChange(t *testing.T) {
	f := newFixture(t, nil, nil)

	cases := []struct {
		Name    string
		Content string
		Expect  structs.ReturnCode
	}{
		{"Garbage", "what", structs.CodeValidationError},
		{"MissingIndex", "12345 U", structs.CodeValidationError},
		{"IndexOnReroll", "12345 R2", structs.CodeValidationError},
		// well-formed but referencing an absent task proves delegation
		{"UnknownTask", "12345 U2", structs.CodeNotFound},
		{"UnknownReroll", "12345 R", structs.CodeNotFound},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			res := f.svc.SubmitSimpleChange(context.Background(), &structs.SimpleChangeRequest{Content: c.Content})
			assert.Equal(t, c.Expect, res.Code)
		})
	}
}

func TestSubmitDescribe(t *testing.T) {
	f := newFixture(t, nil, nil)

	res := f.svc.SubmitDescribe(context.Background(), &structs.DescribeRequest{Base64: "not a data url"})
	assert.Equal(t, structs.CodeValidationError, res.Code)

	f.sender.EXPECT().Describe(gomock.Any(), gomock.Any(), pngDataURL(), gomock.Any()).Return(nil)

	res = f.svc.SubmitDescribe(context.Background(), &structs.DescribeRequest{Base64: pngDataURL()})
	assert.Equal(t, structs.CodeInQueue, res.Code)

	task := waitStatus(t, f, res.TaskID, structs.SUBMITTED)
	assert.Equal(t, structs.ActionDescribe, task.Action)
	assert.Equal(t, task.ID+".png", task.Describe.FileName)
}

func TestSubmitBlend(t *testing.T) {
	f := newFixture(t, nil, nil)

	res := f.svc.SubmitBlend(context.Background(), &structs.BlendRequest{Base64Array: []string{pngDataURL()}})
	assert.Equal(t, structs.CodeValidationError, res.Code)

	res = f.svc.SubmitBlend(context.Background(), &structs.BlendRequest{
		Base64Array: []string{pngDataURL(), pngDataURL()},
		Dimensions:  "WEIRD",
	})
	assert.Equal(t, structs.CodeValidationError, res.Code)

	f.sender.EXPECT().Blend(gomock.Any(), gomock.Any(), gomock.Len(2), structs.BlendSquare, gomock.Any()).Return(nil)

	res = f.svc.SubmitBlend(context.Background(), &structs.BlendRequest{
		Base64Array: []string{pngDataURL(), pngDataURL()},
	})
	assert.Equal(t, structs.CodeInQueue, res.Code)

	task := waitStatus(t, f, res.TaskID, structs.SUBMITTED)
	assert.Equal(t, structs.ActionBlend, task.Action)
	assert.Equal(t, structs.BlendSquare, task.Blend.Dimensions)
}

func TestSubmitShorten(t *testing.T) {
	f := newFixture(t, nil, nil)

	f.sender.EXPECT().Shorten(gomock.Any(), gomock.Any(), "a very long prompt", gomock.Any()).Return(nil)

	res := f.svc.SubmitShorten(context.Background(), &structs.ShortenRequest{Prompt: "a very long prompt"})
	assert.Equal(t, structs.CodeInQueue, res.Code)

	task := waitStatus(t, f, res.TaskID, structs.SUBMITTED)
	assert.Equal(t, structs.ActionShorten, task.Action)
}

func TestAccountQueries(t *testing.T) {
	accounts := []*structs.Account{
		{ChannelID: "chan-1", Enabled: true},
		{ChannelID: "chan-2", Enabled: true},
	}
	f := newFixture(t, accounts, nil)

	assert.Len(t, f.svc.Accounts(), 2)
	assert.NotNil(t, f.svc.Account("chan-1"))
	assert.Nil(t, f.svc.Account("nope"))

	assert.Nil(t, f.svc.SetAccountEnabled("chan-2", false))
	assert.False(t, f.svc.Account("chan-2").Enabled)
	assert.NotNil(t, f.svc.SetAccountEnabled("nope", false))
}

// TestImagineEndToEnd drives one task through the full flow: submission,
// admission, token binding, progress, completion, exactly one webhook.
func TestImagineEndToEnd(t *testing.T) {
	f := newFixture(t, nil, nil)

	var nonce string
	f.sender.EXPECT().Imagine(gomock.Any(), gomock.Any(), "a cat", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *structs.Account, _ string, n string) error {
			nonce = n
			return nil
		})

	delivered := make(chan *structs.Task, 1)
	f.hook.EXPECT().Deliver(gomock.Any(), "http://cb.example.com/hook", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, task *structs.Task) error {
			delivered <- task
			return nil
		})

	res := f.svc.SubmitImagine(context.Background(), &structs.ImagineRequest{
		BaseSubmit: structs.BaseSubmit{NotifyHook: "http://cb.example.com/hook"},
		Prompt:     "a cat",
	})
	assert.Equal(t, structs.CodeInQueue, res.Code)
	waitStatus(t, f, res.TaskID, structs.SUBMITTED)

	f.events <- &discord.Event{
		Kind:      discord.EventCreate,
		Nonce:     nonce,
		MessageID: "m1",
		Content:   "**a cat** - <@123> (Waiting to start)",
	}
	task := waitStatus(t, f, res.TaskID, structs.IN_PROGRESS)
	assert.Equal(t, "m1", task.Correlation.MessageID)

	f.events <- &discord.Event{
		Kind:      discord.EventUpdate,
		MessageID: "m1",
		Content:   "**a cat** - <@123> (50%) (fast)",
		ImageURL:  "http://img/partial.png",
	}
	assert.Eventually(t, func() bool {
		task, _ := f.store.Get(context.Background(), res.TaskID)
		return task != nil && task.Progress == "50%"
	}, 2*time.Second, 5*time.Millisecond)

	f.events <- &discord.Event{
		Kind:        discord.EventCreate,
		MessageID:   "m2",
		MessageHash: "abc123",
		Content:     "**a cat** - <@123> (fast)",
		ImageURL:    "http://img/final.png",
	}
	task = waitStatus(t, f, res.TaskID, structs.SUCCESS)
	assert.Equal(t, "100%", task.Progress)
	assert.Equal(t, "http://img/final.png", task.ImageURL)
	assert.Equal(t, "abc123", task.Correlation.MessageHash)

	select {
	case snap := <-delivered:
		assert.Equal(t, structs.SUCCESS, snap.Status)
		assert.Equal(t, res.TaskID, snap.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("webhook not delivered")
	}

	// duplicate completion events change nothing and trigger no second webhook
	f.events <- &discord.Event{
		Kind:        discord.EventCreate,
		MessageID:   "m3",
		MessageHash: "other",
		Content:     "**a cat** - <@123> (fast)",
		ImageURL:    "http://img/other.png",
	}
	time.Sleep(50 * time.Millisecond)
	task, err := f.store.Get(context.Background(), res.TaskID)
	assert.Nil(t, err)
	assert.Equal(t, "http://img/final.png", task.ImageURL)
}

func TestTaskTimeoutFails(t *testing.T) {
	// not exercised at the account layer because the timeout unit is
	// minutes; the timer path itself is covered in runtask tests
	rt := newRunningTask(newTestTask("t1", "n1"), nil, nil)
	rt.start()
	rt.armTimeout(5 * time.Millisecond)

	assert.Eventually(t, func() bool {
		return rt.snapshot().Status == structs.FAILURE
	}, time.Second, time.Millisecond)
	assert.Equal(t, "task timeout", rt.snapshot().FailReason)
}

func TestServiceRequiresAccounts(t *testing.T) {
	ctrl := gomock.NewController(t)
	sender := discord_mock.NewMockSender(ctrl)
	hook := webhook_mock.NewMockSender(ctrl)
	source := discord_mock.NewMockEventSource(ctrl)

	_, err := NewService(store.NewMemory(nil), sender, source, nil, hook, nil, nil, zap.NewNop())
	assert.NotNil(t, err)
}

func TestServiceListenFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	sender := discord_mock.NewMockSender(ctrl)
	hook := webhook_mock.NewMockSender(ctrl)
	source := discord_mock.NewMockEventSource(ctrl)
	source.EXPECT().Listen(gomock.Any(), gomock.Any()).Return(nil, fmt.Errorf("dial failed"))

	_, err := NewService(
		store.NewMemory(nil), sender, source, nil, hook,
		[]*structs.Account{{ChannelID: "chan-1", Enabled: true}},
		nil, zap.NewNop(),
	)
	assert.NotNil(t, err)
}
