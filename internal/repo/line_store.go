package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"confd/internal/models"
)

type LineStore struct{ db *gorm.DB }

func NewLineStore(db *gorm.DB) *LineStore { return &LineStore{db: db} }

func (s *LineStore) Get(ctx context.Context, id uint) (*models.Line, error) {
	var l models.Line
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// LinesForDevice returns the lines associated to the device by position.
func (s *LineStore) LinesForDevice(ctx context.Context, deviceID string) ([]models.Line, error) {
	var lines []models.Line
	err := s.db.WithContext(ctx).
		Where("device = ?", deviceID).
		Order("position asc, id asc").
		Find(&lines).Error
	return lines, err
}

// SetDevice points the line at deviceID, or detaches it when deviceID is nil.
// ErrConflict means another line already holds that position on the device.
func (s *LineStore) SetDevice(ctx context.Context, lineID uint, deviceID *string) error {
	res := s.db.WithContext(ctx).Model(&models.Line{}).
		Where("id = ?", lineID).
		Update("device", deviceID)
	if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("line %d: %w", lineID, ErrConflict)
	}
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type sipLineScan struct {
	models.Line
	EndpointName string
	AuthSection  datatypes.JSON
	ExtensionID  uint
	Exten        string
	ExtenContext string
}

// SIPLinesForDevice joins every SIP line of the device with its endpoint and
// main extension. Lines without a main extension are left out.
func (s *LineStore) SIPLinesForDevice(ctx context.Context, deviceID string) ([]models.SIPLineRow, error) {
	var scanned []sipLineScan
	err := s.db.WithContext(ctx).Table("line_features").
		Select("line_features.*, " +
			"endpoint_sip.name AS endpoint_name, endpoint_sip.auth_section AS auth_section, " +
			"extensions.id AS extension_id, extensions.exten AS exten, extensions.context AS exten_context").
		Joins("JOIN endpoint_sip ON endpoint_sip.uuid = line_features.endpoint_sip_uuid").
		Joins("JOIN line_extension ON line_extension.line_id = line_features.id AND line_extension.main_extension = ?", true).
		Joins("JOIN extensions ON extensions.id = line_extension.extension_id").
		Where("line_features.device = ?", deviceID).
		Order("line_features.position asc").
		Scan(&scanned).Error
	if err != nil {
		return nil, err
	}
	rows := make([]models.SIPLineRow, 0, len(scanned))
	for _, sc := range scanned {
		rows = append(rows, models.SIPLineRow{
			Line: sc.Line,
			Endpoint: models.EndpointSIP{
				UUID:        derefString(sc.EndpointSIPUUID),
				Name:        sc.EndpointName,
				AuthSection: sc.AuthSection,
			},
			Extension: models.Extension{ID: sc.ExtensionID, Exten: sc.Exten, Context: sc.ExtenContext},
		})
	}
	return rows, nil
}

// FindSCCPLineForDevice returns the first SCCP line of the device, or nil.
func (s *LineStore) FindSCCPLineForDevice(ctx context.Context, deviceID string) (*models.Line, error) {
	var l models.Line
	err := s.db.WithContext(ctx).
		Where("device = ? AND endpoint_sccp_id IS NOT NULL", deviceID).
		Order("position asc").
		First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *LineStore) MainUserLine(ctx context.Context, lineID uint) (*models.UserLine, error) {
	var ul models.UserLine
	err := s.db.WithContext(ctx).
		Where("line_id = ? AND main_user = ?", lineID, true).
		First(&ul).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ul, nil
}

func (s *LineStore) MainExtension(ctx context.Context, lineID uint) (*models.Extension, error) {
	var e models.Extension
	err := s.db.WithContext(ctx).
		Joins("JOIN line_extension ON line_extension.extension_id = extensions.id").
		Where("line_extension.line_id = ? AND line_extension.main_extension = ?", lineID, true).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
