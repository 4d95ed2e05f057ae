// careassist/sources/psql/dao/dao.session.go
package dao

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"careassist/careassist/sources/psql/models"
	"careassist/careassist/utils/errs"
	"careassist/careassist/utils/types"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TimeFormat is the storage contract for every timestamp column.
const TimeFormat = time.RFC3339Nano

type SessionDAO struct {
	DB *gorm.DB
}

func NewSessionDAO(db *gorm.DB) *SessionDAO {
	return &SessionDAO{DB: db}
}

// SaveSession upserts the session row and inserts messages that are not stored yet.
// Stored messages are never rewritten; the list is append-only.
func (dao *SessionDAO) SaveSession(ctx context.Context, s *types.Session) error {
	return dao.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []models.ChatSession
		if err := tx.Where("id = ?", s.ID).Limit(1).Find(&existing).Error; err != nil {
			return err
		}
		if len(existing) == 0 {
			var maxSeq int64
			if err := tx.Model(&models.ChatSession{}).Select("COALESCE(MAX(seq), 0)").Scan(&maxSeq).Error; err != nil {
				return err
			}
			rec := models.ChatSession{
				ID:       s.ID,
				Title:    s.Title,
				TitleSet: s.TitleSet,
				Seq:      maxSeq + 1,
				Created:  formatTime(s.CreatedAt),
				Updated:  formatTime(s.UpdatedAt),
			}
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
		} else {
			err := tx.Model(&models.ChatSession{}).
				Where("id = ?", s.ID).
				Updates(map[string]interface{}{
					"title":      s.Title,
					"title_set":  s.TitleSet,
					"updated_at": formatTime(s.UpdatedAt),
				}).Error
			if err != nil {
				return err
			}
		}

		if len(s.Messages) == 0 {
			return nil
		}
		rows := make([]models.ChatMessage, 0, len(s.Messages))
		for i, m := range s.Messages {
			rows = append(rows, models.ChatMessage{
				ID:        m.ID,
				SessionID: s.ID,
				Position:  i,
				Role:      string(m.Role),
				Content:   m.Content,
				Timestamp: formatTime(m.Timestamp),
			})
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	})
}

// LoadSessions returns all sessions most recently created first, ties in
// insertion order. Records that fail
// validation are skipped; they come back joined in a CorruptRecord error
// alongside the sessions that loaded.
func (dao *SessionDAO) LoadSessions(ctx context.Context) ([]*types.Session, error) {
	var recs []models.ChatSession
	err := dao.DB.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("seq DESC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}

	out := make([]*types.Session, 0, len(recs))
	var corrupt []error
	for _, rec := range recs {
		s, err := toSession(rec)
		if err != nil {
			corrupt = append(corrupt, err)
			continue
		}
		out = append(out, s)
	}
	// seq only records the first successful write; creation time decides
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(corrupt) > 0 {
		return out, errs.CorruptRecord(fmt.Sprintf("%d corrupt session record(s)", len(corrupt)), errors.Join(corrupt...))
	}
	return out, nil
}

func (dao *SessionDAO) DeleteSession(ctx context.Context, id string) error {
	return dao.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&models.ChatMessage{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.ChatSession{}).Error
	})
}

// ClearSessions removes every session and message.
func (dao *SessionDAO) ClearSessions(ctx context.Context) error {
	return dao.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.ChatMessage{}).Error; err != nil {
			return err
		}
		return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.ChatSession{}).Error
	})
}

func toSession(rec models.ChatSession) (*types.Session, error) {
	created, err := parseTime(rec.Created)
	if err != nil {
		return nil, fmt.Errorf("session %s created_at: %w", rec.ID, err)
	}
	updated, err := parseTime(rec.Updated)
	if err != nil {
		return nil, fmt.Errorf("session %s updated_at: %w", rec.ID, err)
	}
	s := &types.Session{
		ID:        rec.ID,
		Title:     rec.Title,
		TitleSet:  rec.TitleSet,
		Messages:  make([]types.Message, 0, len(rec.Messages)),
		CreatedAt: created,
		UpdatedAt: updated,
	}
	for _, m := range rec.Messages {
		ts, err := parseTime(m.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("session %s message %s timestamp: %w", rec.ID, m.ID, err)
		}
		role := types.Role(m.Role)
		if !role.Valid() {
			return nil, fmt.Errorf("session %s message %s: unknown role %q", rec.ID, m.ID, m.Role)
		}
		s.Messages = append(s.Messages, types.Message{
			ID:        m.ID,
			Role:      role,
			Content:   m.Content,
			Timestamp: ts,
		})
	}
	return s, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

func parseTime(v string) (time.Time, error) {
	t, err := time.Parse(TimeFormat, v)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
