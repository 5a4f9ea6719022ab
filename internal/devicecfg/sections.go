package devicecfg

import (
	"context"
	"errors"
	"fmt"

	"confd/internal/funckey"
	"confd/internal/models"
)

// ---- profile ----

type ProfileSection struct {
	profiles ProfileReader
}

func NewProfileSection(p ProfileReader) *ProfileSection { return &ProfileSection{profiles: p} }

func (s *ProfileSection) Name() string { return "profile" }

func (s *ProfileSection) Generate(ctx context.Context, dev *models.Device) (map[string]any, error) {
	p, err := s.profiles.ProfileForDevice(ctx, dev.ID)
	if err != nil || p == nil {
		return nil, err
	}
	return map[string]any{
		"X_xivo_user_uuid":         p.UUID,
		"X_xivo_phonebook_profile": p.Context,
	}, nil
}

// ---- feature extensions ----

// featureKeys maps raw config keys to feature extension typevals.
var featureKeys = []struct{ key, typeval string }{
	{"exten_dnd", "enablednd"},
	{"exten_fwd_unconditional", "fwdunc"},
	{"exten_fwd_no_answer", "fwdrna"},
	{"exten_fwd_busy", "fwdbusy"},
	{"exten_fwd_disable_all", "fwdundoall"},
	{"exten_park", "parkext"},
	{"exten_pickup_group", "pickupexten"},
	{"exten_pickup_call", "pickup"},
	{"exten_voicemail", "vmusermsg"},
}

type ExtensionSection struct {
	features FeatureFinder
}

func NewExtensionSection(f FeatureFinder) *ExtensionSection { return &ExtensionSection{features: f} }

func (s *ExtensionSection) Name() string { return "extensions" }

// Generate always emits every key; unconfigured features are null.
func (s *ExtensionSection) Generate(ctx context.Context, _ *models.Device) (map[string]any, error) {
	out := make(map[string]any, len(featureKeys))
	for _, fk := range featureKeys {
		ext, err := s.features.FindFeature(ctx, fk.typeval)
		if err != nil {
			return nil, fmt.Errorf("feature %s: %w", fk.typeval, err)
		}
		if ext == nil {
			out[fk.key] = nil
			continue
		}
		out[fk.key] = ext.CleanExten()
	}
	return out, nil
}

// ---- SIP ----

type SIPSection struct {
	lines      LineReader
	registrars RegistrarReader
}

func NewSIPSection(l LineReader, r RegistrarReader) *SIPSection {
	return &SIPSection{lines: l, registrars: r}
}

func (s *SIPSection) Name() string { return "sip" }

func (s *SIPSection) Generate(ctx context.Context, dev *models.Device) (map[string]any, error) {
	rows, err := s.lines.SIPLinesForDevice(ctx, dev.ID)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	lines := make(map[string]any, len(rows))
	for i := range rows {
		row := &rows[i]
		reg, err := registrarForLine(ctx, s.registrars, &row.Line)
		if err != nil {
			return nil, err
		}
		lines[row.Line.PositionKey()] = sipLine(row, reg)
	}
	return map[string]any{
		"protocol":  "SIP",
		"sip_lines": lines,
	}, nil
}

func sipLine(row *models.SIPLineRow, reg *models.Registrar) map[string]any {
	username, _ := row.Endpoint.AuthOption("username")
	password, _ := row.Endpoint.AuthOption("password")

	cfg := map[string]any{
		"auth_username": username,
		"username":      username,
		"password":      password,
		"display_name":  row.Line.CallerIDName,
		"number":        row.Extension.Exten,
		"registrar_ip":  reg.MainHost,
		"proxy_ip":      reg.ProxyMainHost,
	}

	setHost(cfg, "backup_proxy_ip", reg.ProxyBackupHost)
	setHost(cfg, "backup_registrar_ip", reg.BackupHost)
	setHost(cfg, "outbound_proxy_ip", reg.OutboundProxyHost)
	setPort(cfg, "registrar_port", reg.MainPort)
	setPort(cfg, "proxy_port", reg.ProxyMainPort)
	setPort(cfg, "backup_proxy_port", reg.ProxyBackupPort)
	setPort(cfg, "backup_registrar_port", reg.BackupPort)
	setPort(cfg, "outbound_proxy_port", reg.OutboundProxyPort)
	return cfg
}

func setHost(cfg map[string]any, key, v string) {
	if v != "" {
		cfg[key] = v
	}
}

func setPort(cfg map[string]any, key string, v *int) {
	if v != nil && *v != 0 {
		cfg[key] = *v
	}
}

// ---- SCCP ----

type SCCPSection struct {
	lines      LineReader
	registrars RegistrarReader
}

func NewSCCPSection(l LineReader, r RegistrarReader) *SCCPSection {
	return &SCCPSection{lines: l, registrars: r}
}

func (s *SCCPSection) Name() string { return "sccp" }

func (s *SCCPSection) Generate(ctx context.Context, dev *models.Device) (map[string]any, error) {
	line, err := s.lines.FindSCCPLineForDevice(ctx, dev.ID)
	if err != nil || line == nil {
		return nil, err
	}
	reg, err := registrarForLine(ctx, s.registrars, line)
	if err != nil {
		return nil, err
	}
	managers := map[string]any{
		"1": map[string]any{"ip": reg.ProxyMainHost},
	}
	if reg.ProxyBackupHost != "" {
		managers["2"] = map[string]any{"ip": reg.ProxyBackupHost}
	}
	return map[string]any{
		"protocol":           "SCCP",
		"sccp_call_managers": managers,
	}, nil
}

// ---- function keys ----

type FuncKeySection struct {
	lines     LineReader
	users     UserReader
	templates TemplateReader
	converter FuncKeyConverter
}

func NewFuncKeySection(l LineReader, u UserReader, t TemplateReader, c FuncKeyConverter) *FuncKeySection {
	return &FuncKeySection{lines: l, users: u, templates: t, converter: c}
}

func (s *FuncKeySection) Name() string { return "funckeys" }

func (s *FuncKeySection) Generate(ctx context.Context, dev *models.Device) (map[string]any, error) {
	user, line, err := s.userLineForDevice(ctx, dev.ID)
	if err != nil || user == nil {
		return nil, err
	}
	tpl, err := s.effectiveTemplate(ctx, user)
	if err != nil {
		return nil, err
	}
	keys, err := s.converter.Convert(ctx, line, tpl)
	if err != nil {
		if errors.Is(err, funckey.ErrUnknownDestination) {
			return nil, fmt.Errorf("%w: user %s: %w", ErrInconsistent, user.UUID, err)
		}
		return nil, err
	}
	return map[string]any{"funckeys": keys}, nil
}

// userLineForDevice returns the main user of the lowest positioned line.
func (s *FuncKeySection) userLineForDevice(ctx context.Context, deviceID string) (*models.User, *models.Line, error) {
	lines, err := s.lines.LinesForDevice(ctx, deviceID)
	if err != nil || len(lines) == 0 {
		return nil, nil, err
	}
	line := lines[0]
	for _, l := range lines[1:] {
		if l.Position < line.Position {
			line = l
		}
	}
	ul, err := s.lines.MainUserLine(ctx, line.ID)
	if err != nil || ul == nil {
		return nil, nil, err
	}
	user, err := s.users.GetUser(ctx, ul.UserID)
	if err != nil || user == nil {
		return nil, nil, err
	}
	return user, &line, nil
}

func (s *FuncKeySection) effectiveTemplate(ctx context.Context, user *models.User) (funckey.Template, error) {
	private, err := s.templates.GetTemplate(ctx, user.PrivateTemplateID)
	if err != nil {
		return funckey.Template{}, err
	}
	tpl := funckey.Template{ID: user.PrivateTemplateID, Private: true}
	if private != nil {
		tpl = *private
	}
	if user.FuncKeyTemplateID == nil {
		return tpl, nil
	}
	public, err := s.templates.GetTemplate(ctx, *user.FuncKeyTemplateID)
	if err != nil || public == nil {
		return tpl, err
	}
	return funckey.Merge(*public, tpl), nil
}
