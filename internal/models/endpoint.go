package models

import (
	"encoding/json"

	"gorm.io/datatypes"
)

type EndpointSIP struct {
	UUID string `gorm:"primaryKey;size:36" json:"uuid"`
	Name string `gorm:"size:128;uniqueIndex" json:"name"`
	// ordered [key, value] pairs, e.g. [["username","u1"],["password","p1"]]
	AuthSection datatypes.JSON `gorm:"column:auth_section" json:"auth_section"`
}

func (EndpointSIP) TableName() string { return "endpoint_sip" }

// AuthOption returns the first value set for key in the auth section.
func (e *EndpointSIP) AuthOption(key string) (string, bool) {
	if len(e.AuthSection) == 0 {
		return "", false
	}
	var pairs [][]string
	if err := json.Unmarshal(e.AuthSection, &pairs); err != nil {
		return "", false
	}
	for _, p := range pairs {
		if len(p) == 2 && p[0] == key {
			return p[1], true
		}
	}
	return "", false
}

type EndpointSCCP struct {
	ID uint `gorm:"primaryKey" json:"id"`
}

func (EndpointSCCP) TableName() string { return "sccpline" }

type EndpointCustom struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Interface string `gorm:"size:128" json:"interface"`
}

func (EndpointCustom) TableName() string { return "usercustom" }
