package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/photomarathon/pipeline/internal/types"
)

type RuleConfig struct {
	RuleKey    string         `gorm:"not null"`
	Severity   types.Severity `gorm:"not null"`
	Params     datatypes.JSON `gorm:"type:jsonb"`
	MarathonID uuid.UUID      `gorm:"not null"`
	Enabled    bool           `gorm:"not null"`
	Model
}

func (RuleConfig) TableName() string {
	return "rule_config"
}
