package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/photomarathon/pipeline/internal/logger"
	"github.com/photomarathon/pipeline/internal/rules"
	"github.com/photomarathon/pipeline/internal/types"
)

type Context struct {
	ParticipantID *uuid.UUID
	Domain        string
}

var (
	outMu sync.Mutex
	out   io.Writer = os.Stdout
)

// SetOutput redirects audit lines, e.g. to keep stdout free for command output
func SetOutput(w io.Writer) {
	outMu.Lock()
	defer outMu.Unlock()
	out = w
}

func newMessage(c Context, typ EventType, disposition Disposition) Message {
	return Message{
		ParticipantID: c.ParticipantID,
		LogContext:    logContext,
		SchemaVersion: schemaVersion,
		Domain:        c.Domain,
		Disposition:   disposition,
		Type:          typ,
		Timestamp:     time.Now().UTC().UnixMilli(),
	}
}

func emit(typ EventType, event any) {
	evtStr, err := json.Marshal(event)
	if err != nil {
		logger.Logger.Error("could not serialize audit event", "eventType", typ, "error", err)
		return
	}

	outMu.Lock()
	defer outMu.Unlock()
	if _, err := fmt.Fprintln(out, string(evtStr)); err != nil {
		logger.Logger.Error("could not write audit event", "eventType", typ, "error", err)
	}
}

func LogSubmissionCompleted(c Context, key string, mimeType string, thumbnailKey string, previewKey string, size int64) {
	event := SubmissionCompleted{}
	event.Message = newMessage(c, EvtSubmissionCompleted, DispositionGood)
	event.Event.Key = key
	event.Event.MimeType = mimeType
	event.Event.ThumbnailKey = thumbnailKey
	event.Event.PreviewKey = previewKey
	event.Event.Size = size

	emit(EvtSubmissionCompleted, event)
}

func LogSubmissionFailed(c Context, key string, codes []string, errContext map[string]string, claimed bool) {
	event := SubmissionFailed{}
	event.Message = newMessage(c, EvtSubmissionFailed, DispositionBad)
	event.Event.Key = key
	event.Event.Codes = codes
	event.Event.Context = errContext
	event.Event.Claimed = claimed

	emit(EvtSubmissionFailed, event)
}

// LogValidationEvaluated summarizes one rules run for a participant
func LogValidationEvaluated(c Context, inputs int, results []rules.Result) {
	event := ValidationEvaluated{}

	event.Event.Inputs = inputs
	event.Event.Outcomes = map[types.Outcome]int{}
	event.Event.FailedErrors = []types.RuleKey{}
	for _, r := range results {
		event.Event.Outcomes[r.Outcome]++
		if r.Outcome == types.OutcomeFailed && r.Severity == types.SeverityError &&
			!slices.Contains(event.Event.FailedErrors, r.RuleKey) {
			event.Event.FailedErrors = append(event.Event.FailedErrors, r.RuleKey)
		}
	}

	disposition := DispositionGood
	switch {
	case len(event.Event.FailedErrors) > 0:
		disposition = DispositionBad
	case event.Event.Outcomes[types.OutcomeFailed] > 0:
		disposition = DispositionNeutral
	}
	event.Message = newMessage(c, EvtValidationEvaluated, disposition)

	emit(EvtValidationEvaluated, event)
}

func LogParticipantFinalized(c Context, reference string, photos int64) {
	event := ParticipantFinalized{}
	event.Message = newMessage(c, EvtParticipantFinalized, DispositionGood)
	event.Event.Reference = reference
	event.Event.Photos = photos

	emit(EvtParticipantFinalized, event)
}

func LogSubmissionKeyRejected(key string) {
	event := SubmissionKeyRejected{}
	event.Message = newMessage(Context{}, EvtSubmissionKeyRejected, DispositionBad)
	event.Event.Key = key

	emit(EvtSubmissionKeyRejected, event)
}
