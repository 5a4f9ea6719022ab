package models

import (
	"time"
)

// DefaultConfigDevice is the provd template used when a device has none assigned.
const DefaultConfigDevice = "defaultconfigdevice"

type Device struct {
	ID         string  `gorm:"primaryKey;size:64" json:"id"`
	MAC        string  `gorm:"size:64;index" json:"mac"`
	Vendor     string  `gorm:"size:255" json:"vendor"`
	Model      string  `gorm:"size:255" json:"model"`
	Plugin     string  `gorm:"size:255" json:"plugin"`
	TemplateID *string `gorm:"size:128" json:"template_id"`

	// last config pushed to provd
	Config          string     `gorm:"size:128" json:"config"`
	ConfigChecksum  string     `gorm:"size:128" json:"-"`
	ConfigVersion   int        `json:"-"`
	ConfigUpdatedAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConfigDevice returns the provd template id the device inherits from.
func (d *Device) ConfigDevice() string {
	if d.TemplateID == nil || *d.TemplateID == "" {
		return DefaultConfigDevice
	}
	return *d.TemplateID
}
