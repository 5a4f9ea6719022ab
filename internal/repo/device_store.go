package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"confd/internal/models"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflicts with an existing row")
)

type DeviceStore struct{ db *gorm.DB }

func NewDeviceStore(db *gorm.DB) *DeviceStore { return &DeviceStore{db: db} }

// Get returns nil without error when the device does not exist.
func (s *DeviceStore) Get(ctx context.Context, id string) (*models.Device, error) {
	var d models.Device
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *DeviceStore) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.Device{}).Order("id asc").Pluck("id", &ids).Error
	return ids, err
}

// IDsForRegistrar lists the devices with at least one line using registrarID.
func (s *DeviceStore) IDsForRegistrar(ctx context.Context, registrarID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.Line{}).
		Distinct("device").
		Where("configregistrar = ? AND device IS NOT NULL", registrarID).
		Order("device asc").
		Pluck("device", &ids).Error
	return ids, err
}

// SaveConfig records the config last pushed to provd for the device.
func (s *DeviceStore) SaveConfig(ctx context.Context, id, configID, checksum string, version int) error {
	now := time.Now().UTC()
	res := s.db.WithContext(ctx).Model(&models.Device{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"config":            configID,
			"config_checksum":   checksum,
			"config_version":    version,
			"config_updated_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearConfig forgets the pushed config, e.g. once the device went back to autoprov.
func (s *DeviceStore) ClearConfig(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Model(&models.Device{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"config":            "",
			"config_checksum":   "",
			"config_updated_at": nil,
		}).Error
}

// ProfileForDevice returns the main user of the lowest line of the device
// together with that line's context.
func (s *DeviceStore) ProfileForDevice(ctx context.Context, deviceID string) (*models.DeviceProfile, error) {
	var rows []models.DeviceProfile
	err := s.db.WithContext(ctx).Table("userfeatures").
		Select("userfeatures.uuid AS uuid, line_features.context AS context").
		Joins("JOIN user_line ON user_line.user_id = userfeatures.id AND user_line.main_user = ?", true).
		Joins("JOIN line_features ON line_features.id = user_line.line_id").
		Where("line_features.device = ?", deviceID).
		Order("line_features.position asc").
		Limit(1).
		Scan(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}
