// careassist/sources/psql/dao/dao.setting.go
package dao

import (
	"context"

	"careassist/careassist/sources/psql/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingDAO struct {
	DB *gorm.DB
}

func NewSettingDAO(db *gorm.DB) *SettingDAO {
	return &SettingDAO{DB: db}
}

// GetSetting returns "" when the key has no record.
func (dao *SettingDAO) GetSetting(ctx context.Context, key string) (string, error) {
	var rows []models.AppSetting
	err := dao.DB.WithContext(ctx).Where("key = ?", key).Limit(1).Find(&rows).Error
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", nil
	}
	return rows[0].Value, nil
}

func (dao *SettingDAO) PutSetting(ctx context.Context, key, value string) error {
	return dao.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).
		Create(&models.AppSetting{Key: key, Value: value}).Error
}

func (dao *SettingDAO) DeleteSetting(ctx context.Context, key string) error {
	return dao.DB.WithContext(ctx).Where("key = ?", key).Delete(&models.AppSetting{}).Error
}

func (dao *SettingDAO) LoadActiveSessionID(ctx context.Context) (string, error) {
	return dao.GetSetting(ctx, models.SettingActiveSession)
}

func (dao *SettingDAO) SaveActiveSessionID(ctx context.Context, id string) error {
	if id == "" {
		return dao.ClearActiveSessionID(ctx)
	}
	return dao.PutSetting(ctx, models.SettingActiveSession, id)
}

func (dao *SettingDAO) ClearActiveSessionID(ctx context.Context) error {
	return dao.DeleteSetting(ctx, models.SettingActiveSession)
}

func (dao *SettingDAO) LoadCredential(ctx context.Context) (string, error) {
	return dao.GetSetting(ctx, models.SettingAPIKey)
}

func (dao *SettingDAO) SaveCredential(ctx context.Context, value string) error {
	return dao.PutSetting(ctx, models.SettingAPIKey, value)
}

// StateDAO is the full storage boundary of the session store.
type StateDAO struct {
	*SessionDAO
	*SettingDAO
}

func NewStateDAO(db *gorm.DB) *StateDAO {
	return &StateDAO{
		SessionDAO: NewSessionDAO(db),
		SettingDAO: NewSettingDAO(db),
	}
}
