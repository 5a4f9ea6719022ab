package models

type User struct {
	ID                uint   `gorm:"primaryKey" json:"id"`
	UUID              string `gorm:"size:36;uniqueIndex;not null" json:"uuid"`
	Firstname         string `gorm:"size:128" json:"firstname"`
	Lastname          string `gorm:"size:128" json:"lastname"`
	PrivateTemplateID uint   `gorm:"not null" json:"private_template_id"`
	FuncKeyTemplateID *uint  `json:"func_key_template_id"`
}

func (User) TableName() string { return "userfeatures" }

// DeviceProfile is the user identity attached to a device through its lines.
type DeviceProfile struct {
	UUID    string
	Context string
}

// SIPLineRow is one line of a device joined with its SIP endpoint and main extension.
type SIPLineRow struct {
	Line      Line
	Endpoint  EndpointSIP
	Extension Extension
}
