package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/photomarathon/pipeline/internal/exif"
	"github.com/photomarathon/pipeline/internal/types"
)

type Submission struct {
	Exif          *exif.Data `gorm:"type:jsonb;serializer:json"`
	TopicID       *uuid.UUID
	Key           string                 `gorm:"not null;uniqueIndex"`
	Status        types.SubmissionStatus `gorm:"not null"`
	MimeType      datatypes.Null[string]
	ThumbnailKey  datatypes.Null[string]
	PreviewKey    datatypes.Null[string]
	Size          datatypes.Null[int64]
	ParticipantID uuid.UUID `gorm:"not null"`
	MarathonID    uuid.UUID `gorm:"not null"`
	Model
}

func (Submission) TableName() string {
	return "submission"
}

// Outcome of one rule, either for one file or for the participant as a whole
type ValidationResult struct {
	FileName      datatypes.Null[string]
	RuleKey       types.RuleKey  `gorm:"not null"`
	Severity      types.Severity `gorm:"not null"`
	Outcome       types.Outcome  `gorm:"not null"`
	Message       string         `gorm:"not null"`
	ParticipantID uuid.UUID      `gorm:"not null"`
	Overruled     bool           `gorm:"not null"`
	Model
}

func (ValidationResult) TableName() string {
	return "validation_result"
}

// A failure recorded against the object key that caused it
type SubmissionError struct {
	Context       map[string]string `gorm:"type:jsonb;serializer:json"`
	SubmissionKey string            `gorm:"not null"`
	Code          string            `gorm:"not null"`
	Message       string            `gorm:"not null"`
	Severity      string            `gorm:"not null"`
	Description   string            `gorm:"not null"`
	Model
}

func (SubmissionError) TableName() string {
	return "submission_error"
}
