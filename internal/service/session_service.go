package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"shipcheck/internal/config"
	"shipcheck/internal/domain"
	"shipcheck/internal/upload"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionService keeps one upload session per browser session.
type SessionService interface {
	Create(ctx context.Context) *upload.Session
	Get(id string) (*upload.Session, error)
	Close(ctx context.Context, id string) error
	Sweep(ctx context.Context, now time.Time) int
	CloseAll(ctx context.Context)
}

type sessionService struct {
	classifier upload.Classifier
	previews   upload.PreviewStore
	rules      upload.Rules
	language   domain.Language
	ttl        time.Duration
	log        *zap.Logger

	mu       sync.Mutex
	sessions map[string]*upload.Session
}

func NewSessionService(classifier upload.Classifier, previews upload.PreviewStore, cfg *config.Config, log *zap.Logger) SessionService {
	lang, ok := domain.ParseLanguage(cfg.App.DefaultLanguage)
	if !ok {
		lang = domain.DefaultLanguage
	}
	return &sessionService{
		classifier: classifier,
		previews:   previews,
		rules: upload.Rules{
			MaxSize:      cfg.App.MaxUploadSize,
			AllowedTypes: cfg.App.AllowedFormats,
		},
		language: lang,
		ttl:      cfg.App.SessionTTL,
		log:      log,
		sessions: make(map[string]*upload.Session),
	}
}

func (s *sessionService) Create(_ context.Context) *upload.Session {
	sess := upload.NewSession(s.classifier, s.previews,
		upload.WithRules(s.rules),
		upload.WithLanguage(s.language),
		upload.WithLogger(s.log),
	)

	s.mu.Lock()
	s.sessions[sess.ID()] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	s.log.Info("Session created", zap.String("session", sess.ID()), zap.Int("active", n))
	return sess
}

func (s *sessionService) Get(id string) (*upload.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *sessionService) Close(ctx context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	sess.Close(ctx)
	return nil
}

// Sweep closes sessions idle for longer than the configured TTL and
// reports how many it closed. Sessions with a submission in flight are
// kept.
func (s *sessionService) Sweep(ctx context.Context, now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}

	var expired []*upload.Session
	s.mu.Lock()
	for id, sess := range s.sessions {
		if sess.Pending() != nil || now.Sub(sess.LastUsed()) < s.ttl {
			continue
		}
		expired = append(expired, sess)
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.Close(ctx)
	}
	if len(expired) > 0 {
		s.log.Info("Expired idle sessions", zap.Int("count", len(expired)))
	}
	return len(expired)
}

func (s *sessionService) CloseAll(ctx context.Context) {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[string]*upload.Session)
	s.mu.Unlock()

	for _, sess := range all {
		sess.Close(ctx)
	}
	s.log.Info("All sessions closed", zap.Int("count", len(all)))
}
