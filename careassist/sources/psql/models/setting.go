package models

// AppSetting is a single key/value record, e.g. the selected session or the API key.
type AppSetting struct {
	Key   string `json:"key" gorm:"type:varchar(64);primaryKey"`
	Value string `json:"value" gorm:"type:text;not null"`
}

func (AppSetting) TableName() string {
	return "app_settings"
}

const (
	SettingActiveSession = "active_session"
	SettingAPIKey        = "api_key"
)
