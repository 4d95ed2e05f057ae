// careassist/controllers/sessions.go
package controllers

import (
	"bytes"
	"context"
	"strings"

	"careassist/careassist/services/export"
	"careassist/careassist/services/sessions"
	"careassist/careassist/utils/errs"
	"careassist/careassist/utils/logging"
	"careassist/careassist/utils/types"

	"go.uber.org/zap"
)

// Archiver keeps a copy of exported snapshots. It is optional.
type Archiver interface {
	ArchiveExport(ctx context.Context, sessionID, filename, contentType string, data []byte) (string, error)
	GetExport(ctx context.Context, sessionID, filename string) ([]byte, error)
	ListExports(ctx context.Context, sessionID string) ([]string, error)
}

type SessionController struct {
	store    *sessions.Store
	archiver Archiver
}

func NewSessionController(store *sessions.Store, archiver Archiver) *SessionController {
	return &SessionController{store: store, archiver: archiver}
}

// Outcome wraps a result with the storage warning, if any, of the call that
// produced it.
type Outcome struct {
	Data    any    `json:"data,omitempty"`
	Warning string `json:"warning,omitempty"`
}

// split separates a storage warning from a real failure.
func split(data any, err error) (*Outcome, error) {
	if err != nil && !errs.IsWarning(err) {
		return nil, err
	}
	out := &Outcome{Data: data}
	if err != nil {
		out.Warning = err.Error()
	}
	return out, nil
}

func (c *SessionController) List() []types.SessionSummary {
	return c.store.Summaries()
}

func (c *SessionController) Create(ctx context.Context) (*Outcome, error) {
	id, err := c.store.CreateSession(ctx)
	if err != nil && !errs.IsWarning(err) {
		return nil, err
	}
	session, getErr := c.store.Session(id)
	if getErr != nil {
		return nil, getErr
	}
	return split(session, err)
}

func (c *SessionController) Get(id string) (*types.Session, error) {
	return c.store.Session(id)
}

// Active returns the selected session, or nil when none is selected.
func (c *SessionController) Active() (*types.Session, error) {
	id := c.store.ActiveSessionID()
	if id == "" {
		return nil, nil
	}
	return c.store.Session(id)
}

func (c *SessionController) Delete(ctx context.Context, id string) (*Outcome, error) {
	return split(nil, c.store.DeleteSession(ctx, id))
}

func (c *SessionController) ClearAll(ctx context.Context) (*Outcome, error) {
	return split(nil, c.store.ClearAll(ctx))
}

func (c *SessionController) Activate(ctx context.Context, id string) (*Outcome, error) {
	err := c.store.SetActiveSession(ctx, id)
	if err != nil && !errs.IsWarning(err) {
		return nil, err
	}
	session, getErr := c.store.Session(id)
	if getErr != nil {
		return nil, getErr
	}
	return split(session, err)
}

func (c *SessionController) Rename(ctx context.Context, id, title string) (*Outcome, error) {
	err := c.store.UpdateSessionTitle(ctx, id, title)
	if err != nil && !errs.IsWarning(err) {
		return nil, err
	}
	session, getErr := c.store.Session(id)
	if getErr != nil {
		return nil, getErr
	}
	return split(session, err)
}

// ExportFile is one rendered export ready for download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
	ArchiveKey  string
}

// Export renders a session snapshot and, when an archiver is configured,
// stores a copy. Archive failures are logged only.
func (c *SessionController) Export(ctx context.Context, id, format string) (*ExportFile, error) {
	exp, err := export.NewExporter(format)
	if err != nil {
		return nil, errs.InvalidInput(err.Error())
	}
	snap, err := c.store.ExportSession(ctx, id)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := exp.Export(snap, &buf); err != nil {
		return nil, err
	}
	file := &ExportFile{
		Filename:    export.Filename(snap.Title, exp.Extension(), snap.ExportedAt),
		ContentType: exp.ContentType(),
		Data:        buf.Bytes(),
	}
	if c.archiver != nil {
		key, err := c.archiver.ArchiveExport(ctx, id, file.Filename, file.ContentType, file.Data)
		if err != nil {
			logging.ErrorLogger.Warn("export archive failed", zap.String("session_id", id), zap.Error(err))
		} else {
			file.ArchiveKey = key
		}
	}
	return file, nil
}

// ArchivedExports lists archived copies of a live session. Objects left behind
// by a deleted session are not served.
func (c *SessionController) ArchivedExports(ctx context.Context, id string) ([]string, error) {
	if err := c.archiveReady(id); err != nil {
		return nil, err
	}
	names, err := c.archiver.ListExports(ctx, id)
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

func (c *SessionController) ArchivedExport(ctx context.Context, id, filename string) ([]byte, error) {
	if err := c.archiveReady(id); err != nil {
		return nil, err
	}
	return c.archiver.GetExport(ctx, id, filename)
}

func (c *SessionController) archiveReady(id string) error {
	if c.archiver == nil {
		return errs.NotFound("export archive is not configured")
	}
	_, err := c.store.Session(id)
	return err
}

func (c *SessionController) APIKeyStatus() types.APIKeyStatus {
	key := c.store.Credential()
	return types.APIKeyStatus{Configured: key != "", APIKey: MaskKey(key)}
}

func (c *SessionController) SetAPIKey(ctx context.Context, key string) (*Outcome, error) {
	err := c.store.SetCredential(ctx, strings.TrimSpace(key))
	return split(c.APIKeyStatus(), err)
}

// MaskKey keeps the last four characters visible.
func MaskKey(key string) string {
	if key == "" {
		return ""
	}
	r := []rune(key)
	if len(r) <= 4 {
		return strings.Repeat("*", len(r))
	}
	return strings.Repeat("*", len(r)-4) + string(r[len(r)-4:])
}
