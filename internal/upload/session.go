package upload

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shipcheck/internal/domain"
)

// MsgPreviewFailed is shown when a valid image could not be prepared for
// display.
const MsgPreviewFailed = "Failed to prepare image preview"

// Session owns one upload attempt: the selected image, its preview, the
// response language and the outcome of the last submission.
//
// Events are applied one at a time. The only asynchronous step is the
// classification request started by Submit; while it is outstanding further
// Submit calls are refused.
type Session struct {
	id         string
	rules      Rules
	classifier Classifier
	previews   PreviewStore
	log        *zap.Logger

	mu        sync.Mutex
	st        state
	closed    bool
	pending   *Future[domain.Verdict]
	observers []func(domain.Verdict)
	lastUsed  time.Time
}

type Option func(*Session)

func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

func WithRules(r Rules) Option {
	return func(s *Session) { s.rules = r }
}

func WithLanguage(lang domain.Language) Option {
	return func(s *Session) { s.st.language = lang }
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Session) { s.log = log }
}

func NewSession(classifier Classifier, previews PreviewStore, opts ...Option) *Session {
	s := &Session{
		id:         uuid.New().String(),
		rules:      DefaultRules,
		classifier: classifier,
		previews:   previews,
		log:        zap.NewNop(),
		st:         initialState(domain.DefaultLanguage),
		lastUsed:   time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(zap.String("session", s.id))
	return s
}

func (s *Session) ID() string { return s.id }

// OnResult registers fn to be called once for every submission that ends
// with a verdict. It is never called for failures.
func (s *Session) OnResult(fn func(domain.Verdict)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.st.snapshot()
	snap.ID = s.id
	return snap
}

// Pending returns the outstanding submission, or nil.
func (s *Session) Pending() *Future[domain.Verdict] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.st.inFlight {
		return nil
	}
	return s.pending
}

// LastUsed is the time of the last event applied to the session.
func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// SelectFile makes c the selected image. A candidate that fails validation
// is rejected wholesale: its message replaces the session error and the
// previous selection, if any, stays in place.
func (s *Session) SelectFile(ctx context.Context, c domain.Candidate) error {
	if s.isClosed() {
		return ErrSessionClosed
	}
	if err := s.rules.Validate(c); err != nil {
		s.apply(func(st state) state { return rejected(st, domain.UserMessage(err)) })
		s.log.Info("Image rejected",
			zap.String("name", c.Name),
			zap.String("media_type", c.MediaType),
			zap.Int64("size", c.Size),
			zap.Error(err))
		return err
	}

	p, err := s.previews.Create(ctx, c)
	if err != nil {
		s.apply(func(st state) state { return rejected(st, MsgPreviewFailed) })
		s.log.Error("Failed to create preview", zap.String("name", c.Name), zap.Error(err))
		return fmt.Errorf("create preview: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.release(ctx, p)
		return ErrSessionClosed
	}
	old := s.st.preview
	s.st = selected(s.st, c, p)
	s.lastUsed = time.Now()
	s.mu.Unlock()

	if old != nil {
		s.release(ctx, *old)
	}

	s.log.Info("Image selected",
		zap.String("name", c.Name),
		zap.String("media_type", c.MediaType),
		zap.Int64("size", c.Size),
		zap.String("preview", p.ID))
	return nil
}

// SetLanguage changes the response language. A displayed verdict is dropped
// because its text was produced for the old language.
func (s *Session) SetLanguage(code string) error {
	lang, ok := domain.ParseLanguage(code)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
	}
	return s.apply(func(st state) state { return languageChanged(st, lang) })
}

// Clear drops the selection, its preview and any outcome. Calling it again
// is a no-op.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	old := s.st.preview
	s.st = cleared(s.st)
	s.lastUsed = time.Now()
	s.mu.Unlock()

	if old != nil {
		s.release(ctx, *old)
	}
	return nil
}

// Submit sends the selected image for classification and returns the
// pending result. It fails with ErrNoCandidate when nothing is selected and
// with ErrSubmissionInFlight while an earlier submission is outstanding;
// neither changes the session.
//
// The request is not tied to ctx's cancellation: once sent it runs until
// the service answers.
func (s *Session) Submit(ctx context.Context) (*Future[domain.Verdict], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.closed:
		return nil, ErrSessionClosed
	case s.st.candidate == nil:
		return nil, ErrNoCandidate
	case s.st.inFlight:
		return nil, ErrSubmissionInFlight
	}

	s.st = submitted(s.st)
	s.lastUsed = time.Now()
	req := Request{Image: *s.st.candidate, Language: s.st.language}
	epoch := s.st.epoch

	s.log.Info("Submitting image",
		zap.String("name", req.Image.Name),
		zap.String("language", string(req.Language)))

	s.pending = Go(ctx, func(ctx context.Context) (domain.Verdict, error) {
		v, err := s.classifier.Classify(ctx, req)
		s.settle(epoch, v, err)
		return v, err
	})
	return s.pending, nil
}

func (s *Session) settle(epoch uint64, v domain.Verdict, err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	stale := epoch != s.st.epoch
	s.st = settled(s.st, epoch, v, err)
	s.lastUsed = time.Now()
	observers := slices.Clone(s.observers)
	s.mu.Unlock()

	switch {
	case stale:
		s.log.Info("Discarding outcome for a replaced selection", zap.Error(err))
	case err != nil:
		s.log.Warn("Classification failed", zap.Error(err))
	default:
		s.log.Info("Classification finished",
			zap.Bool("can_ship", v.CanShip),
			zap.String("message", v.Message))
		for _, fn := range observers {
			fn(v)
		}
	}
}

// Close releases the preview and refuses further events. An outstanding
// submission still runs to completion but its outcome is dropped.
func (s *Session) Close(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	old := s.st.preview
	s.st = cleared(s.st)
	s.st.inFlight = false
	s.mu.Unlock()

	if old != nil {
		s.release(ctx, *old)
	}
	s.log.Debug("Session closed")
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) apply(fn func(state) state) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.st = fn(s.st)
	s.lastUsed = time.Now()
	return nil
}

func (s *Session) release(ctx context.Context, p domain.Preview) {
	if err := s.previews.Release(context.WithoutCancel(ctx), p); err != nil {
		s.log.Warn("Failed to release preview", zap.String("preview", p.ID), zap.Error(err))
	}
}
