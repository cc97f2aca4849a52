package events

import (
	"context"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("github.com/photomarathon/pipeline/internal/events")

const (
	Source              = "photomarathon.pipeline"
	DetailTypeFinalized = "participant.submissions.finalized"
)

// Published once every photo of a participant has been processed
type Finalized struct {
	Domain    string `json:"domain"`
	Reference string `json:"reference"`
}

type Envelope struct {
	Source     string    `json:"source"`
	DetailType string    `json:"detail-type"`
	Detail     Finalized `json:"detail"`
}

func NewEnvelope(detail Finalized) Envelope {
	return Envelope{
		Source:     Source,
		DetailType: DetailTypeFinalized,
		Detail:     detail,
	}
}

//go:generate mockgen -destination ./mock/mock.go -package mock . Publisher

// Delivery is at least once, consumers must tolerate duplicates
type Publisher interface {
	PublishFinalized(ctx context.Context, event Finalized) error
}
