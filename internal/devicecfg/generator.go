// Package devicecfg builds the provd configuration document of a device from
// its lines, endpoints, extensions, registrar and user.
package devicecfg

import (
	"context"
	"errors"
	"fmt"

	"confd/internal/funckey"
	"confd/internal/models"
)

// ErrInconsistent marks data that cannot produce a valid config for a device,
// e.g. a line pointing at a deleted registrar.
var ErrInconsistent = errors.New("inconsistent device configuration")

// ErrRegistrarNotFound is wrapped together with ErrInconsistent.
var ErrRegistrarNotFound = errors.New("registrar not found")

// Section generates one aspect of the raw config. A nil or empty map means the
// section is absent for this device.
type Section interface {
	Name() string
	Generate(ctx context.Context, dev *models.Device) (map[string]any, error)
}

// Envelope is the document stored in provd for a device.
type Envelope struct {
	ID           string         `json:"id"`
	ConfigDevice string         `json:"configdevice"`
	ParentIDs    []string       `json:"parent_ids"`
	Deletable    bool           `json:"deletable"`
	RawConfig    map[string]any `json:"raw_config"`
}

// RawGenerator runs sections in order on top of the fixed base fields.
type RawGenerator struct {
	sections []Section
}

func NewRawGenerator(sections ...Section) *RawGenerator {
	return &RawGenerator{sections: sections}
}

func (g *RawGenerator) Generate(ctx context.Context, dev *models.Device) (map[string]any, error) {
	sources := make([]Source, 0, len(g.sections)+1)
	sources = append(sources, Source{Name: "base", JSON: map[string]any{
		"X_key":          "",
		"config_version": 1,
	}})
	for _, s := range g.sections {
		part, err := s.Generate(ctx, dev)
		if err != nil {
			return nil, fmt.Errorf("%s section: %w", s.Name(), err)
		}
		sources = append(sources, Source{Name: s.Name(), JSON: part})
	}
	return Merge(sources...)
}

// Generator wraps the raw config into the provd envelope.
type Generator struct {
	raw *RawGenerator
}

func NewGenerator(raw *RawGenerator) *Generator {
	return &Generator{raw: raw}
}

func (g *Generator) Generate(ctx context.Context, dev *models.Device) (*Envelope, error) {
	raw, err := g.raw.Generate(ctx, dev)
	if err != nil {
		return nil, fmt.Errorf("device %s: %w", dev.ID, err)
	}
	configdevice := dev.ConfigDevice()
	return &Envelope{
		ID:           dev.ID,
		ConfigDevice: configdevice,
		ParentIDs:    []string{"base", configdevice},
		Deletable:    true,
		RawConfig:    raw,
	}, nil
}

// Deps are the read accessors the sections need.
type Deps struct {
	Profiles   ProfileReader
	Features   FeatureFinder
	Lines      LineReader
	Registrars RegistrarReader
	Users      UserReader
	Templates  TemplateReader
	FuncKeys   FuncKeyConverter
}

// New assembles the standard pipeline: profile, feature extensions, SIP and
// SCCP lines, function keys.
func New(d Deps) *Generator {
	return NewGenerator(NewRawGenerator(
		NewProfileSection(d.Profiles),
		NewExtensionSection(d.Features),
		NewSIPSection(d.Lines, d.Registrars),
		NewSCCPSection(d.Lines, d.Registrars),
		NewFuncKeySection(d.Lines, d.Users, d.Templates, d.FuncKeys),
	))
}

type ProfileReader interface {
	ProfileForDevice(ctx context.Context, deviceID string) (*models.DeviceProfile, error)
}

type FeatureFinder interface {
	FindFeature(ctx context.Context, typeval string) (*models.Extension, error)
}

type LineReader interface {
	LinesForDevice(ctx context.Context, deviceID string) ([]models.Line, error)
	SIPLinesForDevice(ctx context.Context, deviceID string) ([]models.SIPLineRow, error)
	FindSCCPLineForDevice(ctx context.Context, deviceID string) (*models.Line, error)
	MainUserLine(ctx context.Context, lineID uint) (*models.UserLine, error)
}

type RegistrarReader interface {
	GetRegistrar(ctx context.Context, id string) (*models.Registrar, error)
}

type UserReader interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
}

type TemplateReader interface {
	GetTemplate(ctx context.Context, id uint) (*funckey.Template, error)
}

type FuncKeyConverter interface {
	Convert(ctx context.Context, line *models.Line, tpl funckey.Template) (map[string]any, error)
}

func registrarForLine(ctx context.Context, r RegistrarReader, line *models.Line) (*models.Registrar, error) {
	reg, err := r.GetRegistrar(ctx, line.Registrar())
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return nil, fmt.Errorf("%w: %w: line %d references %q", ErrInconsistent, ErrRegistrarNotFound, line.ID, line.Registrar())
	}
	return reg, nil
}
