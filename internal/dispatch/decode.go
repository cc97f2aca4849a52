package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

var ErrNoRecords = errors.New("event carries no object records")

// Decode extracts the raw object keys from an object store notification body. Keys are returned still URL encoded.
// Records for anything other than object creation are dropped.
func Decode(body []byte) ([]string, error) {
	var ev events.S3Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("failed to decode object event: %w", err)
	}

	if len(ev.Records) == 0 {
		return nil, ErrNoRecords
	}

	keys := make([]string, 0, len(ev.Records))
	for _, rec := range ev.Records {
		if rec.EventName != "" && !strings.HasPrefix(rec.EventName, "ObjectCreated:") {
			continue
		}
		keys = append(keys, rec.S3.Object.Key)
	}

	return keys, nil
}
