// Package sessions owns the conversation sessions, the selected-session
// pointer and the user's API credential.
//
// Every mutation is applied in memory first and then written through the
// Persister before the call returns. A failed write never rolls memory back:
// the caller gets an error of kind errs.KindStorageWarning and the primary
// result of the operation is still valid.
package sessions

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"careassist/careassist/utils/errs"
	"careassist/careassist/utils/logging"
	"careassist/careassist/utils/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Store struct {
	// writeMu orders mutate+persist sequences so older snapshots never
	// overwrite newer ones; mu guards the in-memory state only.
	writeMu sync.Mutex
	mu      sync.RWMutex

	sessions   []*types.Session // most recent first
	activeID   string
	credential string

	persister Persister
	now       func() time.Time
	newID     func() string
	locks     sync.Map // session id -> *sync.Mutex
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// NewStore builds an empty store. A nil persister keeps state in memory only.
func NewStore(p Persister, opts ...Option) *Store {
	if p == nil {
		p = memoryPersister{}
	}
	s := &Store{
		persister: p,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory state with what the persister holds. Sessions
// that fail validation are skipped and reported in a storage warning.
func (s *Store) Load(ctx context.Context) error {
	defer logging.LogDuration(ctx, "session_store_load")()
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var warnings []error

	loaded, err := s.persister.LoadSessions(ctx)
	if err != nil {
		if !errs.Is(err, errs.KindCorruptRecord) {
			loaded = nil
		}
		warnings = append(warnings, errs.StorageWarning("load sessions", err))
	}
	activeID, err := s.persister.LoadActiveSessionID(ctx)
	if err != nil {
		activeID = ""
		warnings = append(warnings, errs.StorageWarning("load active session", err))
	}
	credential, err := s.persister.LoadCredential(ctx)
	if err != nil {
		credential = ""
		warnings = append(warnings, errs.StorageWarning("load credential", err))
	}

	s.mu.Lock()
	s.sessions = loaded
	s.credential = credential
	s.activeID = ""
	if activeID != "" && s.find(activeID) != nil {
		s.activeID = activeID
	}
	count := len(s.sessions)
	s.mu.Unlock()

	logging.AppLogger.Info("session store loaded",
		zap.Int("sessions", count),
		zap.Bool("has_active", s.ActiveSessionID() != ""),
		zap.Int("warnings", len(warnings)),
	)
	for _, w := range warnings {
		logging.ErrorLogger.Warn("session store load warning", zap.Error(w))
	}
	return errors.Join(warnings...)
}

// CreateSession inserts a new empty session at the front and selects it.
func (s *Store) CreateSession(ctx context.Context) (string, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	now := s.stamp()
	session := &types.Session{
		ID:        s.newID(),
		Title:     types.DefaultSessionTitle,
		Messages:  []types.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.sessions = append([]*types.Session{session}, s.sessions...)
	s.activeID = session.ID
	snapshot := session.Clone()
	s.mu.Unlock()

	logging.AppLogger.Info("session created", zap.String("session_id", session.ID))

	err := errors.Join(
		s.persist(ctx, "session", func(ctx context.Context) error { return s.persister.SaveSession(ctx, snapshot) }),
		s.persist(ctx, "active session", func(ctx context.Context) error { return s.persister.SaveActiveSessionID(ctx, snapshot.ID) }),
	)
	return session.ID, err
}

// DeleteSession removes a session and its messages. Unknown ids are a no-op.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}
	s.sessions = append(s.sessions[:idx], s.sessions[idx+1:]...)
	wasActive := s.activeID == id
	if wasActive {
		s.activeID = ""
	}
	s.mu.Unlock()
	s.locks.Delete(id)

	logging.AppLogger.Info("session deleted", zap.String("session_id", id), zap.Bool("was_active", wasActive))

	err := s.persist(ctx, "session delete", func(ctx context.Context) error { return s.persister.DeleteSession(ctx, id) })
	if wasActive {
		err = errors.Join(err, s.persist(ctx, "active session", s.persister.ClearActiveSessionID))
	}
	return err
}

// SetActiveSession selects an existing session. An unknown id fails with
// NotFound and leaves the selection unchanged.
func (s *Store) SetActiveSession(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if s.find(id) == nil {
		s.mu.Unlock()
		return errs.NotFound("session not found: " + id)
	}
	s.activeID = id
	s.mu.Unlock()

	return s.persist(ctx, "active session", func(ctx context.Context) error { return s.persister.SaveActiveSessionID(ctx, id) })
}

// ClearActiveSession sets the selection to none.
func (s *Store) ClearActiveSession(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.activeID = ""
	s.mu.Unlock()

	return s.persist(ctx, "active session", s.persister.ClearActiveSessionID)
}

func (s *Store) AppendUserMessage(ctx context.Context, sessionID, text string) (types.Message, error) {
	return s.appendMessage(ctx, sessionID, types.RoleUser, text)
}

func (s *Store) AppendAssistantMessage(ctx context.Context, sessionID, text string) (types.Message, error) {
	return s.appendMessage(ctx, sessionID, types.RoleAssistant, text)
}

func (s *Store) appendMessage(ctx context.Context, sessionID string, role types.Role, text string) (types.Message, error) {
	if sessionID == "" {
		return types.Message{}, errs.InvalidInput("session id is required")
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	session := s.find(sessionID)
	if session == nil {
		s.mu.Unlock()
		return types.Message{}, errs.NotFound("session not found: " + sessionID)
	}
	now := s.stampAfter(session)
	msg := types.Message{
		ID:        s.newID(),
		Role:      role,
		Content:   text,
		Timestamp: now,
	}
	if role == types.RoleUser && !session.TitleSet && !hasUserMessage(session) {
		session.Title = DeriveTitle(text)
	}
	session.Messages = append(session.Messages, msg)
	session.UpdatedAt = now
	snapshot := session.Clone()
	s.mu.Unlock()

	err := s.persist(ctx, "session", func(ctx context.Context) error { return s.persister.SaveSession(ctx, snapshot) })
	return msg, err
}

// UpdateSessionTitle sets a user-chosen title; auto-titling never overrides it.
func (s *Store) UpdateSessionTitle(ctx context.Context, sessionID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return errs.InvalidInput("title must not be empty")
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	session := s.find(sessionID)
	if session == nil {
		s.mu.Unlock()
		return errs.NotFound("session not found: " + sessionID)
	}
	session.Title = title
	session.TitleSet = true
	session.UpdatedAt = s.stampAfter(session)
	snapshot := session.Clone()
	s.mu.Unlock()

	return s.persist(ctx, "session", func(ctx context.Context) error { return s.persister.SaveSession(ctx, snapshot) })
}

// ClearAll drops every session and the selection. The stored records are
// removed, not overwritten with empty values.
func (s *Store) ClearAll(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	count := len(s.sessions)
	s.sessions = nil
	s.activeID = ""
	s.mu.Unlock()
	s.locks.Range(func(key, _ any) bool {
		s.locks.Delete(key)
		return true
	})

	logging.AppLogger.Info("all sessions cleared", zap.Int("count", count))

	return errors.Join(
		s.persist(ctx, "sessions clear", s.persister.ClearSessions),
		s.persist(ctx, "active session", s.persister.ClearActiveSessionID),
	)
}

// ExportSession snapshots one session with the export time.
func (s *Store) ExportSession(ctx context.Context, id string) (*types.SessionExport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session := s.find(id)
	if session == nil {
		return nil, errs.NotFound("session not found: " + id)
	}
	return &types.SessionExport{
		Session:    *session.Clone(),
		ExportedAt: s.stamp(),
	}, nil
}

// Sessions returns copies of all sessions, most recent first.
func (s *Store) Sessions() []*types.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*types.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.Clone())
	}
	return out
}

func (s *Store) Summaries() []types.SessionSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.SessionSummary, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, types.SessionSummary{
			ID:           sess.ID,
			Title:        sess.Title,
			MessageCount: len(sess.Messages),
			CreatedAt:    sess.CreatedAt,
			UpdatedAt:    sess.UpdatedAt,
			Active:       sess.ID == s.activeID,
		})
	}
	return out
}

// Session returns a copy of one session.
func (s *Store) Session(id string) (*types.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session := s.find(id)
	if session == nil {
		return nil, errs.NotFound("session not found: " + id)
	}
	return session.Clone(), nil
}

// ActiveSessionID returns the selected session id, or "" for none.
func (s *Store) ActiveSessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

func (s *Store) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential
}

// SetCredential replaces the stored credential and persists it immediately.
func (s *Store) SetCredential(ctx context.Context, value string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.credential = value
	s.mu.Unlock()

	logging.AppLogger.Info("credential updated", zap.Bool("empty", value == ""))
	return s.persist(ctx, "credential", func(ctx context.Context) error { return s.persister.SaveCredential(ctx, value) })
}

// LockSession serializes work on one session, e.g. a send that appends a user
// message, waits for the reply and appends it. Call the returned func to unlock.
func (s *Store) LockSession(id string) func() {
	v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	m := v.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

func (s *Store) persist(ctx context.Context, op string, write func(context.Context) error) error {
	if err := write(ctx); err != nil {
		logging.ErrorLogger.Warn("storage write failed", zap.String("op", op), zap.Error(err))
		return errs.StorageWarning(op, err)
	}
	return nil
}

// stamp returns the current instant in the precision every backend keeps.
func (s *Store) stamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// stampAfter never goes behind the session's latest instant.
func (s *Store) stampAfter(session *types.Session) time.Time {
	now := s.stamp()
	if now.Before(session.UpdatedAt) {
		now = session.UpdatedAt
	}
	if n := len(session.Messages); n > 0 && now.Before(session.Messages[n-1].Timestamp) {
		now = session.Messages[n-1].Timestamp
	}
	return now
}

// callers hold mu
func (s *Store) find(id string) *types.Session {
	if i := s.indexOf(id); i >= 0 {
		return s.sessions[i]
	}
	return nil
}

func (s *Store) indexOf(id string) int {
	for i, sess := range s.sessions {
		if sess.ID == id {
			return i
		}
	}
	return -1
}
