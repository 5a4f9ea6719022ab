package models

import "strconv"

const (
	ProtocolSIP    = "sip"
	ProtocolSCCP   = "sccp"
	ProtocolCustom = "custom"

	DefaultRegistrar = "default"
)

type Line struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	Position        int    `gorm:"not null;default:1;uniqueIndex:line_device_position,priority:2" json:"position"`
	Context         string `gorm:"size:79;not null" json:"context"`
	CallerIDName    string `gorm:"column:caller_id_name;size:160" json:"caller_id_name"`
	ConfigRegistrar string `gorm:"column:configregistrar;size:128;default:default" json:"registrar"`

	// A device holds at most one line per position.
	Device *string `gorm:"size:64;uniqueIndex:line_device_position,priority:1" json:"device_id"`

	EndpointSIPUUID  *string `gorm:"column:endpoint_sip_uuid;size:36" json:"-"`
	EndpointSCCPID   *uint   `gorm:"column:endpoint_sccp_id" json:"-"`
	EndpointCustomID *uint   `gorm:"column:endpoint_custom_id" json:"-"`
}

func (Line) TableName() string { return "line_features" }

// Protocol reports which endpoint backs the line, or "" when none is set.
func (l *Line) Protocol() string {
	switch {
	case l.EndpointSIPUUID != nil:
		return ProtocolSIP
	case l.EndpointSCCPID != nil:
		return ProtocolSCCP
	case l.EndpointCustomID != nil:
		return ProtocolCustom
	default:
		return ""
	}
}

func (l *Line) HasEndpoint() bool { return l.Protocol() != "" }

// Registrar returns the registrar id referenced by the line.
func (l *Line) Registrar() string {
	if l.ConfigRegistrar == "" {
		return DefaultRegistrar
	}
	return l.ConfigRegistrar
}

// PositionKey is the position as used in provd section keys.
func (l *Line) PositionKey() string { return strconv.Itoa(l.Position) }

type UserLine struct {
	UserID   uint `gorm:"primaryKey" json:"user_id"`
	LineID   uint `gorm:"primaryKey" json:"line_id"`
	MainUser bool `gorm:"not null;default:false" json:"main_user"`
	MainLine bool `gorm:"not null;default:false" json:"main_line"`
}

func (UserLine) TableName() string { return "user_line" }

type LineExtension struct {
	LineID        uint `gorm:"primaryKey" json:"line_id"`
	ExtensionID   uint `gorm:"primaryKey" json:"extension_id"`
	MainExtension bool `gorm:"not null;default:false" json:"main_extension"`
}

func (LineExtension) TableName() string { return "line_extension" }
