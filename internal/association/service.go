// Package association attaches lines to devices and keeps provd in step:
// a device with lines runs its generated config, a device without lines goes
// back to autoprovisioning.
package association

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"confd/internal/logs"
	"confd/internal/models"
	"confd/internal/provd"
	"confd/internal/repo"
)

var (
	ErrMissingAssociation = errors.New("line is missing an association")
	ErrPositionTaken      = errors.New("Cannot associate 2 lines with same position")
	ErrAlreadyAssociated  = errors.New("Line is associated with a Device")
)

// Association is a line attached to a device.
type Association struct {
	LineID   uint   `json:"line_id"`
	DeviceID string `json:"device_id"`
}

type Lines interface {
	Get(ctx context.Context, id uint) (*models.Line, error)
	LinesForDevice(ctx context.Context, deviceID string) ([]models.Line, error)
	MainUserLine(ctx context.Context, lineID uint) (*models.UserLine, error)
	MainExtension(ctx context.Context, lineID uint) (*models.Extension, error)
	SetDevice(ctx context.Context, lineID uint, deviceID *string) error
}

type Devices interface {
	Get(ctx context.Context, id string) (*models.Device, error)
	ClearConfig(ctx context.Context, id string) error
}

type Reconciler interface {
	Reconcile(ctx context.Context, deviceID string) (checksum string, updated bool, err error)
}

// Provisioner is the provd side of an association.
type Provisioner interface {
	SetDeviceConfig(ctx context.Context, deviceID, configID string) error
	ResetAutoprov(ctx context.Context, deviceID string) error
	DeleteConfig(ctx context.Context, id string) error
}

type Service struct {
	lines   Lines
	devices Devices
	rec     Reconciler
	prov    Provisioner
}

func NewService(l Lines, d Devices, rec Reconciler, p Provisioner) *Service {
	return &Service{lines: l, devices: d, rec: rec, prov: p}
}

// Associate attaches the line to the device, pushes the resulting config and
// points the provd device at it. Associating twice is a no-op. Any failure
// leaves the line detached.
func (s *Service) Associate(ctx context.Context, lineID uint, deviceID string) error {
	line, dev, err := s.load(ctx, lineID, deviceID)
	if err != nil {
		return err
	}
	if line.Device != nil {
		if *line.Device == dev.ID {
			return nil
		}
		return fmt.Errorf("line %d: %w", lineID, ErrAlreadyAssociated)
	}
	others, err := s.lines.LinesForDevice(ctx, dev.ID)
	if err != nil {
		return err
	}
	for _, o := range others {
		if o.Position == line.Position {
			return ErrPositionTaken
		}
	}
	if err := s.validateLine(ctx, line); err != nil {
		return err
	}
	if err := checkProtocol(line, others); err != nil {
		return fmt.Errorf("line %d, device %s: %w", lineID, dev.ID, err)
	}

	if err := s.lines.SetDevice(ctx, line.ID, &dev.ID); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return ErrPositionTaken
		}
		return err
	}
	if _, _, err := s.rec.Reconcile(ctx, dev.ID); err != nil {
		s.detach(ctx, line.ID)
		return err
	}
	if err := s.prov.SetDeviceConfig(ctx, dev.ID, dev.ID); err != nil {
		s.detach(ctx, line.ID)
		s.restore(ctx, dev.ID, len(others) > 0)
		return err
	}
	logs.Logger.WithFields(logrus.Fields{"line_id": line.ID, "device_id": dev.ID}).Info("line associated")
	return nil
}

// checkProtocol allows several SIP lines on a device, but an SCCP line only
// alone and never next to another protocol.
func checkProtocol(line *models.Line, others []models.Line) error {
	proto := line.Protocol()
	for _, o := range others {
		if o.Protocol() != proto || proto == models.ProtocolSCCP {
			return fmt.Errorf("device holds a %s line: %w", o.Protocol(), ErrAlreadyAssociated)
		}
	}
	return nil
}

func (s *Service) detach(ctx context.Context, lineID uint) {
	if err := s.lines.SetDevice(ctx, lineID, nil); err != nil {
		logs.Logger.WithFields(logrus.Fields{"line_id": lineID, "error": err}).Error("rollback of line association failed")
	}
}

// restore brings provd back to the device's remaining lines after a failed
// association already pushed a config.
func (s *Service) restore(ctx context.Context, deviceID string, hasLines bool) {
	var err error
	if hasLines {
		_, _, err = s.rec.Reconcile(ctx, deviceID)
	} else if err = s.prov.DeleteConfig(ctx, deviceID); err == nil {
		err = s.devices.ClearConfig(ctx, deviceID)
	}
	if err != nil {
		logs.Logger.WithFields(logrus.Fields{"device_id": deviceID, "error": err}).Error("restore of device config failed")
	}
}

// Dissociate detaches the line. The device is reconciled when other lines
// remain, otherwise it is reset to autoprov and its config removed. A line
// that is not on the device is left alone.
func (s *Service) Dissociate(ctx context.Context, lineID uint, deviceID string) error {
	line, dev, err := s.load(ctx, lineID, deviceID)
	if err != nil {
		return err
	}
	if line.Device == nil || *line.Device != dev.ID {
		return nil
	}
	if err := s.lines.SetDevice(ctx, line.ID, nil); err != nil {
		return err
	}

	remaining, err := s.lines.LinesForDevice(ctx, dev.ID)
	if err != nil {
		return err
	}
	if len(remaining) > 0 {
		_, _, err = s.rec.Reconcile(ctx, dev.ID)
		return err
	}

	if err := s.prov.ResetAutoprov(ctx, dev.ID); err != nil && !errors.Is(err, provd.ErrNotFound) {
		return err
	}
	if err := s.prov.DeleteConfig(ctx, dev.ID); err != nil {
		return err
	}
	if err := s.devices.ClearConfig(ctx, dev.ID); err != nil {
		return err
	}
	logs.Logger.WithFields(logrus.Fields{"line_id": line.ID, "device_id": dev.ID}).Info("line dissociated, device back to autoprov")
	return nil
}

// DeviceForLine returns nil when the line has no device.
func (s *Service) DeviceForLine(ctx context.Context, lineID uint) (*Association, error) {
	line, err := s.lines.Get(ctx, lineID)
	if err != nil {
		return nil, err
	}
	if line == nil {
		return nil, fmt.Errorf("line %d: %w", lineID, repo.ErrNotFound)
	}
	if line.Device == nil {
		return nil, nil
	}
	return &Association{LineID: line.ID, DeviceID: *line.Device}, nil
}

func (s *Service) LinesForDevice(ctx context.Context, deviceID string) ([]Association, error) {
	dev, err := s.devices.Get(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if dev == nil {
		return nil, fmt.Errorf("device %s: %w", deviceID, repo.ErrNotFound)
	}
	lines, err := s.lines.LinesForDevice(ctx, dev.ID)
	if err != nil {
		return nil, err
	}
	out := make([]Association, 0, len(lines))
	for _, l := range lines {
		out = append(out, Association{LineID: l.ID, DeviceID: dev.ID})
	}
	return out, nil
}

func (s *Service) load(ctx context.Context, lineID uint, deviceID string) (*models.Line, *models.Device, error) {
	line, err := s.lines.Get(ctx, lineID)
	if err != nil {
		return nil, nil, err
	}
	if line == nil {
		return nil, nil, fmt.Errorf("line %d: %w", lineID, repo.ErrNotFound)
	}
	dev, err := s.devices.Get(ctx, deviceID)
	if err != nil {
		return nil, nil, err
	}
	if dev == nil {
		return nil, nil, fmt.Errorf("device %s: %w", deviceID, repo.ErrNotFound)
	}
	return line, dev, nil
}

// validateLine checks the line can be provisioned: it needs an endpoint, a
// main extension and a main user.
func (s *Service) validateLine(ctx context.Context, line *models.Line) error {
	if !line.HasEndpoint() {
		return fmt.Errorf("line %d has no endpoint: %w", line.ID, ErrMissingAssociation)
	}
	ext, err := s.lines.MainExtension(ctx, line.ID)
	if err != nil {
		return err
	}
	if ext == nil {
		return fmt.Errorf("line %d has no extension: %w", line.ID, ErrMissingAssociation)
	}
	ul, err := s.lines.MainUserLine(ctx, line.ID)
	if err != nil {
		return err
	}
	if ul == nil {
		return fmt.Errorf("line %d has no user: %w", line.ID, ErrMissingAssociation)
	}
	return nil
}
