package models

import "strings"

const ExtensionTypeFeatures = "extenfeatures"

type Extension struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Exten     string `gorm:"size:40;not null" json:"exten"`
	Context   string `gorm:"size:79;not null" json:"context"`
	Type      string `gorm:"size:64;index:ext_type" json:"type"`
	TypeVal   string `gorm:"column:typeval;size:255;index:ext_type" json:"typeval"`
	Commented int    `gorm:"not null;default:0" json:"-"`
}

func (Extension) TableName() string { return "extensions" }

// CleanExten strips dialplan pattern markers: "_*21." becomes "*21".
func (e *Extension) CleanExten() string {
	return CleanExten(e.Exten)
}

func CleanExten(exten string) string {
	return strings.TrimRight(strings.TrimLeft(exten, "_"), ".")
}
