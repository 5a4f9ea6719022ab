package models

import "gorm.io/datatypes"

type FuncKeyTemplate struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"size:128" json:"name"`
	Private bool   `gorm:"not null;default:false" json:"private"`

	Mappings []FuncKeyMapping `gorm:"foreignKey:TemplateID" json:"-"`
}

func (FuncKeyTemplate) TableName() string { return "func_key_template" }

type FuncKeyMapping struct {
	TemplateID      uint           `gorm:"primaryKey" json:"template_id"`
	Position        int            `gorm:"primaryKey" json:"position"`
	Label           string         `gorm:"size:128" json:"label"`
	BLF             bool           `gorm:"column:blf;not null;default:true" json:"blf"`
	DestinationType string         `gorm:"size:64;not null" json:"destination_type"`
	Destination     datatypes.JSON `json:"destination"`
}

func (FuncKeyMapping) TableName() string { return "func_key_mapping" }
