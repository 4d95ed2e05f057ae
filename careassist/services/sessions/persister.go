package sessions

import (
	"context"

	"careassist/careassist/utils/types"
)

// Persister is the durable storage boundary of the Store. It keeps three
// independent records: the session collection, the selected session id and
// the credential.
type Persister interface {
	// LoadSessions returns sessions most recent first. A non-nil error of kind
	// CorruptRecord may accompany the sessions that did load.
	LoadSessions(ctx context.Context) ([]*types.Session, error)
	// SaveSession writes the session row and any messages not yet stored.
	SaveSession(ctx context.Context, session *types.Session) error
	DeleteSession(ctx context.Context, id string) error
	// ClearSessions removes the whole collection record.
	ClearSessions(ctx context.Context) error

	LoadActiveSessionID(ctx context.Context) (string, error)
	SaveActiveSessionID(ctx context.Context, id string) error
	ClearActiveSessionID(ctx context.Context) error

	LoadCredential(ctx context.Context) (string, error)
	SaveCredential(ctx context.Context, value string) error
}

// memoryPersister keeps nothing; a Store built on it lives only in memory.
type memoryPersister struct{}

func (memoryPersister) LoadSessions(context.Context) ([]*types.Session, error) { return nil, nil }
func (memoryPersister) SaveSession(context.Context, *types.Session) error      { return nil }
func (memoryPersister) DeleteSession(context.Context, string) error            { return nil }
func (memoryPersister) ClearSessions(context.Context) error                    { return nil }
func (memoryPersister) LoadActiveSessionID(context.Context) (string, error)    { return "", nil }
func (memoryPersister) SaveActiveSessionID(context.Context, string) error      { return nil }
func (memoryPersister) ClearActiveSessionID(context.Context) error             { return nil }
func (memoryPersister) LoadCredential(context.Context) (string, error)         { return "", nil }
func (memoryPersister) SaveCredential(context.Context, string) error           { return nil }
