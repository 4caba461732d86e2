package core

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cipher-x-sudo/midjourney-proxy/internal/utils"
	"github.com/cipher-x-sudo/midjourney-proxy/pkg/discord"
	"github.com/cipher-x-sudo/midjourney-proxy/pkg/errors"
	"github.com/cipher-x-sudo/midjourney-proxy/pkg/store"
	"github.com/cipher-x-sudo/midjourney-proxy/pkg/structs"
	"github.com/cipher-x-sudo/midjourney-proxy/pkg/translate"
	"github.com/cipher-x-sudo/midjourney-proxy/pkg/webhook"
)

var (
	simpleChangeRe = regexp.MustCompile(`^(\S+)\s+(U|V|R)(\d)?$`)
	dataURLRe      = regexp.MustCompile(`^data:([^;,]+);base64,(.+)$`)
)

// Options tunes the task service.
type Options struct {
	// NotifyHook is the default callback URL for tasks submitted without one.
	NotifyHook string

	// BannedWords are rejected when found in the post-translation prompt.
	BannedWords []string

	// ChooseRule selects among accounts with spare capacity; nil means
	// least-busy with configuration-order tie break.
	ChooseRule Rule

	Notify NotifyOptions
}

// Service is the task dispatcher: it validates submissions, preprocesses
// prompts, picks an account, admits the task into that account's window and
// correlates the account's event stream back into task state.
type Service struct {
	store    store.Store
	sender   discord.Sender
	events   discord.EventSource
	balancer *Balancer
	pre      *preprocessor
	banned   *BannedWords
	ids      *utils.Snowflake
	notifier *Notifier
	opts     *Options
	log      *zap.Logger

	cancel context.CancelFunc
}

func NewService(
	st store.Store,
	sender discord.Sender,
	events discord.EventSource,
	translator translate.Translator,
	hook webhook.Sender,
	accounts []*structs.Account,
	opts *Options,
	log *zap.Logger,
) (*Service, error) {
	if opts == nil {
		opts = &Options{}
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("%w: at least one account required", errors.ErrInvalidArg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	pool := make([]*Account, 0, len(accounts))
	for _, data := range accounts {
		pool = append(pool, NewAccount(ctx, data, log))
	}

	s := &Service{
		store:    st,
		sender:   sender,
		events:   events,
		balancer: NewBalancer(opts.ChooseRule, pool),
		pre:      newPreprocessor(translator, log),
		banned:   NewBannedWords(opts.BannedWords),
		ids:      utils.NewSnowflake(),
		notifier: NewNotifier(hook, opts.Notify, log),
		opts:     opts,
		log:      log,
		cancel:   cancel,
	}

	for _, acc := range pool {
		if err := s.listen(ctx, acc); err != nil {
			cancel()
			return nil, err
		}
	}
	return s, nil
}

func (s *Service) listen(ctx context.Context, acc *Account) error {
	events, err := s.events.Listen(ctx, acc.Data())
	if err != nil {
		return fmt.Errorf("listen on account %s: %w", acc.ID(), err)
	}
	corr := newCorrelator(acc, s.log)
	go func() {
		for evt := range events {
			corr.handle(evt)
		}
	}()
	return nil
}

// Close stops the workers, failing any in-flight tasks, then drains pending
// webhook deliveries.
func (s *Service) Close() {
	s.cancel()
	for _, a := range s.balancer.All() {
		a.Wait()
	}
	s.notifier.Close()
}

// --- submissions

func (s *Service) SubmitImagine(ctx context.Context, req *structs.ImagineRequest) *structs.SubmitResult {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return structs.SubmitFail(structs.CodeValidationError, "prompt cannot be empty")
	}

	promptEn := s.pre.TranslatePrompt(ctx, prompt)
	if term, hit := s.banned.Check(promptEn); hit {
		return structs.SubmitFail(structs.CodeBannedPrompt, "banned word in prompt").
			WithProperty("promptEn", promptEn).
			WithProperty("bannedWord", term)
	}

	t := s.newTask(structs.ActionImagine, &req.BaseSubmit)
	t.Prompt = prompt
	t.PromptEn = promptEn
	t.Description = "/imagine " + prompt

	acc, err := s.balancer.Choose(req.AccountID)
	if err != nil {
		return rejection(err)
	}
	return s.enqueue(t, acc, func(ctx context.Context) error {
		return s.sender.Imagine(ctx, acc.Data(), t.PromptEn, t.Correlation.Nonce)
	})
}

func (s *Service) SubmitChange(ctx context.Context, req *structs.ChangeRequest) *structs.SubmitResult {
	if strings.TrimSpace(req.TaskID) == "" {
		return structs.SubmitFail(structs.CodeValidationError, "taskId cannot be empty")
	}
	if !structs.IsChangeAction(req.Action) {
		return structs.SubmitFail(structs.CodeValidationError, "action must be UPSCALE, VARIATION or REROLL")
	}
	if req.Action != structs.ActionReroll && (req.Index < 1 || req.Index > 4) {
		return structs.SubmitFail(structs.CodeValidationError, "index must be between 1 and 4")
	}

	src, err := s.store.Get(ctx, req.TaskID)
	if err != nil {
		return structs.SubmitFail(structs.CodeFailure, "task lookup failed")
	}
	if src == nil {
		return structs.SubmitFail(structs.CodeNotFound, "task does not exist or has expired")
	}
	if src.Status != structs.SUCCESS {
		return structs.SubmitFail(structs.CodeValidationError, "source task has not succeeded")
	}
	if !structs.CanDeriveFrom(src.Action) {
		return structs.SubmitFail(structs.CodeValidationError, "source task does not support this action")
	}
	if src.Correlation.MessageID == "" || src.Correlation.MessageHash == "" {
		return structs.SubmitFail(structs.CodeValidationError, "source task has no bound message")
	}

	if req.Action == structs.ActionUpscale {
		if res := s.dedupeUpscale(ctx, req); res != nil {
			return res
		}
	}

	t := s.newTask(req.Action, &req.BaseSubmit)
	t.Prompt = src.Prompt
	t.PromptEn = src.PromptEn
	t.Correlation.MessageID = src.Correlation.MessageID
	t.Correlation.MessageHash = src.Correlation.MessageHash
	t.Correlation.Flags = src.Correlation.Flags
	t.Correlation.FinalPrompt = src.Correlation.FinalPrompt
	t.Change = &structs.ChangeSpec{
		SourceTaskID:        src.ID,
		ReferencedMessageID: src.Correlation.MessageID,
		Index:               req.Index,
	}
	if req.Action == structs.ActionReroll {
		t.Description = fmt.Sprintf("/up %s R", src.ID)
	} else {
		t.Description = fmt.Sprintf("/up %s %s%d", src.ID, req.Action[:1], req.Index)
	}

	acc := s.balancer.Get(src.Correlation.AccountID)
	if acc == nil {
		return structs.SubmitFail(structs.CodeNotFound, "account of source task is unavailable")
	}
	if !acc.Alive() {
		return rejection(errors.ErrAccountDisabled)
	}

	hash := src.Correlation.MessageHash
	msgID := src.Correlation.MessageID
	flags := src.Correlation.Flags
	index := req.Index
	return s.enqueue(t, acc, func(ctx context.Context) error {
		switch req.Action {
		case structs.ActionUpscale:
			return s.sender.Upscale(ctx, acc.Data(), msgID, index, hash, flags, t.Correlation.Nonce)
		case structs.ActionVariation:
			return s.sender.Variation(ctx, acc.Data(), msgID, index, hash, flags, t.Correlation.Nonce)
		default:
			return s.sender.Reroll(ctx, acc.Data(), msgID, hash, flags, t.Correlation.Nonce)
		}
	})
}

// dedupeUpscale catches repeat submissions of the same upscale: an active
// duplicate is reported as existing, a finished one is answered directly.
func (s *Service) dedupeUpscale(ctx context.Context, req *structs.ChangeRequest) *structs.SubmitResult {
	existing, err := s.store.List(ctx, &structs.TaskQuery{Actions: []structs.Action{structs.ActionUpscale}})
	if err != nil {
		return nil
	}
	for _, t := range existing {
		if t.Change == nil || t.Change.SourceTaskID != req.TaskID || t.Change.Index != req.Index {
			continue
		}
		switch t.Status {
		case structs.SUCCESS:
			return structs.SubmitOK(structs.CodeSuccess, "success", t.ID).
				WithProperty("imageUrl", t.ImageURL)
		case structs.FAILURE:
			continue
		default:
			return structs.SubmitOK(structs.CodeExisted, "task already submitted", t.ID).
				WithProperty("status", string(t.Status))
		}
	}
	return nil
}

// SubmitSimpleChange accepts the compact "<taskId> U1|V3|R" form.
func (s *Service) SubmitSimpleChange(ctx context.Context, req *structs.SimpleChangeRequest) *structs.SubmitResult {
	m := simpleChangeRe.FindStringSubmatch(strings.TrimSpace(req.Content))
	if m == nil {
		return structs.SubmitFail(structs.CodeValidationError, "content parameter error")
	}
	change := &structs.ChangeRequest{BaseSubmit: req.BaseSubmit, TaskID: m[1]}
	switch m[2] {
	case "U":
		change.Action = structs.ActionUpscale
	case "V":
		change.Action = structs.ActionVariation
	default:
		change.Action = structs.ActionReroll
	}
	if change.Action == structs.ActionReroll {
		if m[3] != "" {
			return structs.SubmitFail(structs.CodeValidationError, "content parameter error")
		}
	} else {
		if m[3] == "" {
			return structs.SubmitFail(structs.CodeValidationError, "content parameter error")
		}
		change.Index, _ = strconv.Atoi(m[3])
	}
	return s.SubmitChange(ctx, change)
}

func (s *Service) SubmitDescribe(ctx context.Context, req *structs.DescribeRequest) *structs.SubmitResult {
	suffix, ok := dataURLSuffix(req.Base64)
	if !ok {
		return structs.SubmitFail(structs.CodeValidationError, "base64 parameter error")
	}

	t := s.newTask(structs.ActionDescribe, &req.BaseSubmit)
	fileName := t.ID + "." + suffix
	t.Describe = &structs.DescribeSpec{Image: strings.TrimSpace(req.Base64), FileName: fileName}
	t.Description = "/describe " + fileName

	acc, err := s.balancer.Choose(req.AccountID)
	if err != nil {
		return rejection(err)
	}
	return s.enqueue(t, acc, func(ctx context.Context) error {
		return s.sender.Describe(ctx, acc.Data(), t.Describe.Image, t.Correlation.Nonce)
	})
}

func (s *Service) SubmitBlend(ctx context.Context, req *structs.BlendRequest) *structs.SubmitResult {
	if len(req.Base64Array) < 2 || len(req.Base64Array) > 5 {
		return structs.SubmitFail(structs.CodeValidationError, "base64Array must contain 2 to 5 images")
	}
	dims := structs.BlendSquare
	if req.Dimensions != "" {
		dims = structs.ToBlendDimensions(string(req.Dimensions))
		if dims == "" {
			return structs.SubmitFail(structs.CodeValidationError, "dimensions parameter error")
		}
	}

	t := s.newTask(structs.ActionBlend, &req.BaseSubmit)
	spec := &structs.BlendSpec{Dimensions: dims}
	for _, b64 := range req.Base64Array {
		if _, ok := dataURLSuffix(b64); !ok {
			return structs.SubmitFail(structs.CodeValidationError, "base64 parameter error")
		}
		spec.Images = append(spec.Images, strings.TrimSpace(b64))
	}
	t.Blend = spec
	t.Description = fmt.Sprintf("/blend %s %d", t.ID, len(spec.Images))

	acc, err := s.balancer.Choose(req.AccountID)
	if err != nil {
		return rejection(err)
	}
	return s.enqueue(t, acc, func(ctx context.Context) error {
		return s.sender.Blend(ctx, acc.Data(), t.Blend.Images, t.Blend.Dimensions, t.Correlation.Nonce)
	})
}

func (s *Service) SubmitShorten(ctx context.Context, req *structs.ShortenRequest) *structs.SubmitResult {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return structs.SubmitFail(structs.CodeValidationError, "prompt cannot be empty")
	}

	t := s.newTask(structs.ActionShorten, &req.BaseSubmit)
	t.Prompt = prompt
	t.PromptEn = s.pre.TranslatePrompt(ctx, prompt)
	t.Description = "/shorten " + prompt

	acc, err := s.balancer.Choose(req.AccountID)
	if err != nil {
		return rejection(err)
	}
	return s.enqueue(t, acc, func(ctx context.Context) error {
		return s.sender.Shorten(ctx, acc.Data(), t.PromptEn, t.Correlation.Nonce)
	})
}

// --- queries

func (s *Service) Task(ctx context.Context, id string) (*structs.Task, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) Tasks(ctx context.Context, ids []string) ([]*structs.Task, error) {
	return s.store.GetAll(ctx, ids)
}

func (s *Service) ListTasks(ctx context.Context, q *structs.TaskQuery) ([]*structs.Task, error) {
	return s.store.List(ctx, q)
}

func (s *Service) Accounts() []*structs.Account {
	all := s.balancer.All()
	out := make([]*structs.Account, 0, len(all))
	for _, a := range all {
		out = append(out, a.Data())
	}
	return out
}

func (s *Service) Account(id string) *structs.Account {
	a := s.balancer.Get(id)
	if a == nil {
		return nil
	}
	return a.Data()
}

func (s *Service) SetAccountEnabled(id string, enabled bool) error {
	a := s.balancer.Get(id)
	if a == nil {
		return errors.ErrAccountNotFound
	}
	a.SetEnabled(enabled)
	return nil
}

// --- internals

func (s *Service) newTask(action structs.Action, base *structs.BaseSubmit) *structs.Task {
	nonce, err := s.ids.NextID()
	if err != nil {
		// clock regression beyond tolerance, fall back to the task id scheme
		s.log.Error("nonce generation failed", zap.Error(err))
		nonce = utils.NewTaskID()
	}
	hook := base.NotifyHook
	if hook == "" {
		hook = s.opts.NotifyHook
	}
	return &structs.Task{
		ID:         utils.NewTaskID(),
		Action:     action,
		Status:     structs.NOT_START,
		State:      base.State,
		NotifyHook: hook,
		SubmitTime: time.Now().UnixMilli(),
		Correlation: structs.Correlation{
			Nonce: nonce,
		},
	}
}

// enqueue persists the task and admits it into the account's window. The
// slot is reserved before any command goes out; a rejected task leaves no
// trace in the store.
func (s *Service) enqueue(t *structs.Task, acc *Account, send sendFunc) *structs.SubmitResult {
	t.Correlation.AccountID = acc.ID()

	ctx := context.Background()
	if err := s.store.Save(ctx, t); err != nil {
		s.log.Error("task save failed", zap.String("task", t.ID), zap.Error(err))
		return structs.SubmitFail(structs.CodeFailure, "failed to persist task")
	}

	rt := newRunningTask(t,
		func(snap *structs.Task) {
			s.persist(snap)
			if s.opts.Notify.OnProgress {
				s.notifier.Enqueue(snap)
			}
		},
		func(snap *structs.Task) {
			s.persist(snap)
			s.notifier.Enqueue(snap)
		},
	)

	ahead, err := acc.Admit(rt, send)
	if err != nil {
		if derr := s.store.Delete(ctx, t.ID); derr != nil {
			s.log.Warn("rollback delete failed", zap.String("task", t.ID), zap.Error(derr))
		}
		return rejection(err)
	}

	s.log.Info("task admitted",
		zap.String("task", t.ID),
		zap.String("action", string(t.Action)),
		zap.String("account", acc.ID()),
		zap.Int("ahead", ahead))
	return structs.SubmitOK(structs.CodeInQueue, fmt.Sprintf("In queue, %d task(s) ahead", ahead), t.ID).
		WithProperty("numberOfQueues", ahead)
}

func (s *Service) persist(snap *structs.Task) {
	if err := s.store.Save(context.Background(), snap); err != nil {
		s.log.Warn("task save failed", zap.String("task", snap.ID), zap.Error(err))
	}
}

func rejection(err error) *structs.SubmitResult {
	switch {
	case errors.Is(err, errors.ErrAccountNotFound):
		return structs.SubmitFail(structs.CodeNotFound, "account does not exist")
	case errors.Is(err, errors.ErrAccountDisabled):
		return structs.SubmitFail(structs.CodeQueueRejected, "account is disabled")
	case errors.Is(err, errors.ErrQueueFull):
		return structs.SubmitFail(structs.CodeQueueRejected, "queue is full, try again later")
	default:
		return structs.SubmitFail(structs.CodeFailure, err.Error())
	}
}

// dataURLSuffix validates a base64 data URL and derives a file suffix from
// its mime type.
func dataURLSuffix(s string) (string, bool) {
	m := dataURLRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", false
	}
	if _, err := base64.StdEncoding.DecodeString(m[2]); err != nil {
		return "", false
	}
	return mimeSuffix(m[1]), true
}

func mimeSuffix(mime string) string {
	switch strings.ToLower(mime) {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	default:
		return "png"
	}
}
