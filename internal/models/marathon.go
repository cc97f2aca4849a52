package models

import (
	"github.com/google/uuid"
)

type Marathon struct {
	Domain string `gorm:"not null;uniqueIndex"`
	Name   string `gorm:"not null"`
	Model
}

func (Marathon) TableName() string {
	return "marathon"
}

// The number of photos a participant must submit
type CompetitionClass struct {
	Name           string    `gorm:"not null"`
	NumberOfPhotos int       `gorm:"not null"`
	MarathonID     uuid.UUID `gorm:"not null"`
	Model
}

func (CompetitionClass) TableName() string {
	return "competition_class"
}

type Participant struct {
	CompetitionClass   *CompetitionClass
	Reference          string `gorm:"not null"`
	Marathon           Marathon
	MarathonID         uuid.UUID `gorm:"not null"`
	CompetitionClassID *uuid.UUID
	Model
}

func (Participant) TableName() string {
	return "participant"
}

// Topic matches a photo by its order index within the marathon
type Topic struct {
	Name       string    `gorm:"not null"`
	MarathonID uuid.UUID `gorm:"not null"`
	OrderIndex int       `gorm:"not null"`
	Model
}

func (Topic) TableName() string {
	return "topic"
}
