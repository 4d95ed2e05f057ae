package models

// Timestamps are stored as RFC 3339 text (nanosecond precision) and parsed
// explicitly by the DAO, so a damaged value surfaces as a corrupt record
// instead of a zero instant.

type ChatSession struct {
	ID       string        `json:"id" gorm:"type:varchar(64);primaryKey"`
	Title    string        `json:"title" gorm:"type:text;not null"`
	TitleSet bool          `json:"title_set" gorm:"not null;default:false"`
	Seq      int64         `json:"seq" gorm:"not null;index"`
	Created  string        `json:"created_at" gorm:"column:created_at;type:varchar(40);not null"`
	Updated  string        `json:"updated_at" gorm:"column:updated_at;type:varchar(40);not null"`
	Messages []ChatMessage `json:"-" gorm:"foreignKey:SessionID;references:ID;constraint:OnDelete:CASCADE"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}

type ChatMessage struct {
	ID        string `json:"id" gorm:"type:varchar(64);primaryKey"`
	SessionID string `json:"session_id" gorm:"type:varchar(64);not null;index"`
	Position  int    `json:"position" gorm:"not null"`
	Role      string `json:"role" gorm:"type:varchar(16);not null"`
	Content   string `json:"content" gorm:"type:text;not null"`
	Timestamp string `json:"timestamp" gorm:"type:varchar(40);not null"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
