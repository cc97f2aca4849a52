package audit

import (
	"github.com/google/uuid"

	"github.com/photomarathon/pipeline/internal/types"
)

var schemaVersion = "1.0.0"
var logContext = "audit"

type Disposition string

const (
	DispositionNeutral Disposition = "neutral"
	DispositionGood    Disposition = "good"
	DispositionBad     Disposition = "bad"
)

type EventType string

const (
	EvtSubmissionCompleted   EventType = "submission_completed"
	EvtSubmissionFailed      EventType = "submission_failed"
	EvtValidationEvaluated   EventType = "validation_evaluated"
	EvtParticipantFinalized  EventType = "participant_finalized"
	EvtSubmissionKeyRejected EventType = "submission_key_rejected"
)

type Message struct {
	ParticipantID *uuid.UUID  `json:"participant_id"`
	LogContext    string      `json:"log_context"    validate:"required"`
	SchemaVersion string      `json:"version"        validate:"required"`
	Domain        string      `json:"domain"`
	Disposition   Disposition `json:"disposition"    validate:"required"`
	Type          EventType   `json:"event_type"     validate:"required"`
	Timestamp     int64       `json:"timestamp"      validate:"required"`
}

type SubmissionCompletedEvent struct {
	Key          string `json:"key"           validate:"required"`
	MimeType     string `json:"mime_type"`
	ThumbnailKey string `json:"thumbnail_key" validate:"required"`
	PreviewKey   string `json:"preview_key"   validate:"required"`
	Size         int64  `json:"size"`
}

type SubmissionCompleted struct {
	Event SubmissionCompletedEvent `json:"event" validate:"required"`
	Message
}

type SubmissionFailedEvent struct {
	Key     string            `json:"key"     validate:"required"`
	Codes   []string          `json:"codes"   validate:"required"`
	Context map[string]string `json:"context"`
	Claimed bool              `json:"claimed"`
}

type SubmissionFailed struct {
	Event SubmissionFailedEvent `json:"event" validate:"required"`
	Message
}

type ValidationEvaluatedEvent struct {
	Outcomes map[types.Outcome]int `json:"outcomes"`
	// rule keys with at least one failed result at error severity
	FailedErrors []types.RuleKey `json:"failed_errors"`
	Inputs       int             `json:"inputs"`
}

type ValidationEvaluated struct {
	Event ValidationEvaluatedEvent `json:"event" validate:"required"`
	Message
}

type ParticipantFinalizedEvent struct {
	Reference string `json:"reference" validate:"required"`
	Photos    int64  `json:"photos"`
}

type ParticipantFinalized struct {
	Event ParticipantFinalizedEvent `json:"event" validate:"required"`
	Message
}

type SubmissionKeyRejectedEvent struct {
	Key string `json:"key"`
}

type SubmissionKeyRejected struct {
	Event SubmissionKeyRejectedEvent `json:"event" validate:"required"`
	Message
}
