package sessions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"careassist/careassist/utils/errs"
	"careassist/careassist/utils/types"
)

// --- Helpers ---

type fakePersister struct {
	mu         sync.Mutex
	sessions   map[string]*types.Session
	order      []string
	activeID   string
	hasActive  bool
	credential string
	saves      int
	failWith   error
	loadErr    error
}

func newFakePersister() *fakePersister {
	return &fakePersister{sessions: map[string]*types.Session{}}
}

func (f *fakePersister) LoadSessions(context.Context) ([]*types.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Session
	for i := len(f.order) - 1; i >= 0; i-- {
		out = append(out, f.sessions[f.order[i]].Clone())
	}
	return out, f.loadErr
}

func (f *fakePersister) SaveSession(_ context.Context, s *types.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.sessions[s.ID]; !ok {
		f.order = append(f.order, s.ID)
	}
	f.sessions[s.ID] = s.Clone()
	f.saves++
	return nil
}

func (f *fakePersister) DeleteSession(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	delete(f.sessions, id)
	for i, v := range f.order {
		if v == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakePersister) ClearSessions(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.sessions = map[string]*types.Session{}
	f.order = nil
	return nil
}

func (f *fakePersister) LoadActiveSessionID(context.Context) (string, error) {
	return f.activeID, nil
}

func (f *fakePersister) SaveActiveSessionID(_ context.Context, id string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.activeID, f.hasActive = id, true
	return nil
}

func (f *fakePersister) ClearActiveSessionID(context.Context) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.activeID, f.hasActive = "", false
	return nil
}

func (f *fakePersister) LoadCredential(context.Context) (string, error) {
	return f.credential, nil
}

func (f *fakePersister) SaveCredential(_ context.Context, v string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.credential = v
	return nil
}

// tickingClock advances one second per call.
func tickingClock() func() time.Time {
	t := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func newTestStore(t *testing.T) (*Store, *fakePersister) {
	t.Helper()
	p := newFakePersister()
	return NewStore(p, WithClock(tickingClock())), p
}

// --- Tests ---

func TestCreateSessionThenExport(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	id, err := store.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if store.ActiveSessionID() != id {
		t.Errorf("expected new session to be selected")
	}

	snap, err := store.ExportSession(ctx, id)
	if err != nil {
		t.Fatalf("ExportSession: %v", err)
	}
	if len(snap.Messages) != 0 {
		t.Errorf("expected empty message list, got %d", len(snap.Messages))
	}
	if !snap.CreatedAt.Equal(snap.UpdatedAt) {
		t.Errorf("createdAt %v != updatedAt %v", snap.CreatedAt, snap.UpdatedAt)
	}
	if snap.Title != types.DefaultSessionTitle {
		t.Errorf("unexpected title %q", snap.Title)
	}
	if snap.ExportedAt.IsZero() {
		t.Error("expected exportedAt to be set")
	}
}

func TestCreateSessionOrdersMostRecentFirst(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	first, _ := store.CreateSession(ctx)
	second, _ := store.CreateSession(ctx)

	list := store.Sessions()
	if len(list) != 2 || list[0].ID != second || list[1].ID != first {
		t.Fatalf("expected [%s %s], got %+v", second, first, list)
	}
}

func TestAppendPreservesCallOrder(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	id, _ := store.CreateSession(ctx)

	var want []string
	for i := 0; i < 6; i++ {
		text := fmt.Sprintf("message %d", i)
		want = append(want, text)
		var err error
		if i%2 == 0 {
			_, err = store.AppendUserMessage(ctx, id, text)
		} else {
			_, err = store.AppendAssistantMessage(ctx, id, text)
		}
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	sess, err := store.Session(id)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	if len(sess.Messages) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(sess.Messages))
	}
	for i, m := range sess.Messages {
		if m.Content != want[i] {
			t.Errorf("message %d = %q, want %q", i, m.Content, want[i])
		}
		if i > 0 && m.Timestamp.Before(sess.Messages[i-1].Timestamp) {
			t.Errorf("timestamp went backwards at %d", i)
		}
	}
	if !sess.UpdatedAt.Equal(sess.Messages[len(sess.Messages)-1].Timestamp) {
		t.Errorf("updatedAt should follow the last append")
	}
}

func TestAppendRequiresSessionID(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.AppendUserMessage(context.Background(), "", "hi")
	if !errs.Is(err, errs.KindInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	_, err = store.AppendAssistantMessage(context.Background(), "missing", "hi")
	if !errs.Is(err, errs.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTitleDerivation(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		first string
		want  string
	}{
		{"long message truncated", strings.Repeat("a", 60), strings.Repeat("a", 50) + "..."},
		{"short message kept", "0123456789", "0123456789"},
		{"exactly fifty", strings.Repeat("b", 50), strings.Repeat("b", 50)},
		{"multibyte counted by character", strings.Repeat("é", 55), strings.Repeat("é", 50) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newTestStore(t)
			id, _ := store.CreateSession(ctx)
			if _, err := store.AppendUserMessage(ctx, id, tt.first); err != nil {
				t.Fatalf("append: %v", err)
			}
			sess, _ := store.Session(id)
			if sess.Title != tt.want {
				t.Errorf("title = %q, want %q", sess.Title, tt.want)
			}
		})
	}
}

func TestTitleOnlyFromFirstUserMessage(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	id, _ := store.CreateSession(ctx)

	store.AppendUserMessage(ctx, id, "first question")
	store.AppendAssistantMessage(ctx, id, "answer")
	store.AppendUserMessage(ctx, id, "second question")

	sess, _ := store.Session(id)
	if sess.Title != "first question" {
		t.Errorf("title = %q, want first question", sess.Title)
	}
}

func TestExplicitTitleWins(t *testing.T) {
	ctx := context.Background()
	store, p := newTestStore(t)
	id, _ := store.CreateSession(ctx)

	if err := store.UpdateSessionTitle(ctx, id, "  Mom's care plan  "); err != nil {
		t.Fatalf("UpdateSessionTitle: %v", err)
	}
	store.AppendUserMessage(ctx, id, "What should I pack for the clinic visit?")

	sess, _ := store.Session(id)
	if sess.Title != "Mom's care plan" || !sess.TitleSet {
		t.Errorf("unexpected title state %q set=%v", sess.Title, sess.TitleSet)
	}
	if got := p.sessions[id].Title; got != "Mom's care plan" {
		t.Errorf("persisted title = %q", got)
	}
	if err := store.UpdateSessionTitle(ctx, id, "   "); !errs.Is(err, errs.KindInvalidInput) {
		t.Errorf("expected invalid input for blank title, got %v", err)
	}
	if err := store.UpdateSessionTitle(ctx, "nope", "x"); !errs.Is(err, errs.KindNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestDeleteSessionActivePointer(t *testing.T) {
	ctx := context.Background()

	t.Run("deleting active clears pointer", func(t *testing.T) {
		store, p := newTestStore(t)
		id, _ := store.CreateSession(ctx)
		if err := store.DeleteSession(ctx, id); err != nil {
			t.Fatalf("DeleteSession: %v", err)
		}
		if store.ActiveSessionID() != "" {
			t.Errorf("expected no active session")
		}
		if p.hasActive {
			t.Errorf("expected active record removed")
		}
		if _, ok := p.sessions[id]; ok {
			t.Errorf("expected session removed from storage")
		}
	})

	t.Run("deleting other keeps pointer", func(t *testing.T) {
		store, _ := newTestStore(t)
		other, _ := store.CreateSession(ctx)
		active, _ := store.CreateSession(ctx)
		if err := store.DeleteSession(ctx, other); err != nil {
			t.Fatalf("DeleteSession: %v", err)
		}
		if store.ActiveSessionID() != active {
			t.Errorf("active = %q, want %q", store.ActiveSessionID(), active)
		}
	})

	t.Run("unknown id is a no-op", func(t *testing.T) {
		store, _ := newTestStore(t)
		id, _ := store.CreateSession(ctx)
		if err := store.DeleteSession(ctx, "missing"); err != nil {
			t.Fatalf("expected nil, got %v", err)
		}
		if len(store.Sessions()) != 1 || store.ActiveSessionID() != id {
			t.Errorf("state changed on unknown delete")
		}
	})
}

func TestSetActiveSession(t *testing.T) {
	ctx := context.Background()
	store, p := newTestStore(t)
	first, _ := store.CreateSession(ctx)
	store.CreateSession(ctx)

	if err := store.SetActiveSession(ctx, first); err != nil {
		t.Fatalf("SetActiveSession: %v", err)
	}
	if store.ActiveSessionID() != first || p.activeID != first {
		t.Errorf("expected %s selected and persisted", first)
	}

	err := store.SetActiveSession(ctx, "missing")
	if !errs.Is(err, errs.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if store.ActiveSessionID() != first {
		t.Errorf("selection changed on failed switch")
	}

	if err := store.ClearActiveSession(ctx); err != nil {
		t.Fatalf("ClearActiveSession: %v", err)
	}
	if store.ActiveSessionID() != "" || p.hasActive {
		t.Errorf("expected selection cleared")
	}
}

func TestClearAll(t *testing.T) {
	ctx := context.Background()
	store, p := newTestStore(t)
	store.CreateSession(ctx)
	store.CreateSession(ctx)
	store.SetCredential(ctx, "key-123")

	if err := store.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if len(store.Sessions()) != 0 || store.ActiveSessionID() != "" {
		t.Errorf("expected empty state")
	}
	if len(p.sessions) != 0 || p.hasActive {
		t.Errorf("expected records removed, got %d sessions active=%v", len(p.sessions), p.hasActive)
	}
	if store.Credential() != "key-123" {
		t.Errorf("credential must survive clear all")
	}
}

func TestExportUnknownSession(t *testing.T) {
	store, _ := newTestStore(t)
	if _, err := store.ExportSession(context.Background(), "nope"); !errs.Is(err, errs.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCredential(t *testing.T) {
	ctx := context.Background()
	store, p := newTestStore(t)
	if store.Credential() != "" {
		t.Fatal("expected empty credential")
	}
	if err := store.SetCredential(ctx, "abc"); err != nil {
		t.Fatalf("SetCredential: %v", err)
	}
	store.SetCredential(ctx, "def")
	if store.Credential() != "def" || p.credential != "def" {
		t.Errorf("credential = %q persisted = %q", store.Credential(), p.credential)
	}
}

func TestPersistFailureIsWarning(t *testing.T) {
	ctx := context.Background()
	store, p := newTestStore(t)
	id, _ := store.CreateSession(ctx)
	p.failWith = errors.New("quota exceeded")

	msg, err := store.AppendUserMessage(ctx, id, "hello")
	if !errs.IsWarning(err) {
		t.Fatalf("expected storage warning, got %v", err)
	}
	if msg.ID == "" {
		t.Errorf("expected message to be returned despite warning")
	}
	sess, _ := store.Session(id)
	if len(sess.Messages) != 1 || sess.Messages[0].Content != "hello" {
		t.Errorf("in-memory state not committed: %+v", sess.Messages)
	}

	newID, err := store.CreateSession(ctx)
	if !errs.IsWarning(err) || newID == "" {
		t.Errorf("expected id and warning, got %q %v", newID, err)
	}
	if err := store.SetCredential(ctx, "k"); !errs.IsWarning(err) {
		t.Errorf("expected warning from credential write, got %v", err)
	}
	if store.Credential() != "k" {
		t.Errorf("credential not applied in memory")
	}
}

func TestLoadRestoresState(t *testing.T) {
	ctx := context.Background()
	p := newFakePersister()
	writer := NewStore(p, WithClock(tickingClock()))
	older, _ := writer.CreateSession(ctx)
	newer, _ := writer.CreateSession(ctx)
	writer.AppendUserMessage(ctx, older, "question")
	writer.SetActiveSession(ctx, older)
	writer.SetCredential(ctx, "secret")

	reader := NewStore(p)
	if err := reader.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	list := reader.Sessions()
	if len(list) != 2 || list[0].ID != newer || list[1].ID != older {
		t.Fatalf("unexpected order after load: %+v", list)
	}
	if reader.ActiveSessionID() != older {
		t.Errorf("active = %q, want %q", reader.ActiveSessionID(), older)
	}
	if reader.Credential() != "secret" {
		t.Errorf("credential not restored")
	}
}

func TestLoadDropsDanglingActiveID(t *testing.T) {
	p := newFakePersister()
	p.activeID = "gone"
	store := NewStore(p)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if store.ActiveSessionID() != "" {
		t.Errorf("expected dangling active id to resolve to none")
	}
}

func TestLoadKeepsValidSessionsOnCorruptRecord(t *testing.T) {
	ctx := context.Background()
	p := newFakePersister()
	writer := NewStore(p, WithClock(tickingClock()))
	id, _ := writer.CreateSession(ctx)
	p.loadErr = errs.CorruptRecord("session bad", errors.New("parse"))

	store := NewStore(p)
	err := store.Load(ctx)
	if !errs.IsWarning(err) {
		t.Fatalf("expected warning, got %v", err)
	}
	if _, err := store.Session(id); err != nil {
		t.Errorf("valid session should still load: %v", err)
	}
}

func TestLockSessionSerializes(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	id, _ := store.CreateSession(ctx)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			unlock := store.LockSession(id)
			defer unlock()
			store.AppendUserMessage(ctx, id, fmt.Sprintf("q%d", i))
			store.AppendAssistantMessage(ctx, id, fmt.Sprintf("a%d", i))
		}(i)
	}
	wg.Wait()

	sess, _ := store.Session(id)
	if len(sess.Messages) != 20 {
		t.Fatalf("expected 20 messages, got %d", len(sess.Messages))
	}
	for i := 0; i < len(sess.Messages); i += 2 {
		u, a := sess.Messages[i], sess.Messages[i+1]
		if u.Role != types.RoleUser || a.Role != types.RoleAssistant {
			t.Fatalf("pair %d interleaved: %s/%s", i/2, u.Role, a.Role)
		}
		if strings.TrimPrefix(u.Content, "q") != strings.TrimPrefix(a.Content, "a") {
			t.Fatalf("pair %d mismatched: %q/%q", i/2, u.Content, a.Content)
		}
	}
}
