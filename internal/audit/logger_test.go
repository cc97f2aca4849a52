package audit

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photomarathon/pipeline/internal/rules"
	"github.com/photomarathon/pipeline/internal/types"
)

func ptr[T any](v T) *T {
	return &v
}

func capture(t *testing.T, fn func()) string {
	t.Helper()

	buf := &bytes.Buffer{}
	SetOutput(buf)
	t.Cleanup(func() { SetOutput(bytes.NewBuffer(nil)) })

	fn()
	return buf.String()
}

var participantID = uuid.MustParse("0190b6c4-6f7e-7a2c-9d3e-5f4a3b2c1d0e")

func TestLogSubmissionCompleted(t *testing.T) {
	ctx := Context{ParticipantID: &participantID, Domain: "stockholm"}
	got := capture(t, func() {
		LogSubmissionCompleted(ctx, "stockholm/originals/07/1/a.jpg", "image/jpeg",
			"stockholm/thumbnails/07/1/a.jpg", "stockholm/previews/07/1/a.jpg", 2048)
	})

	expect := regexp.MustCompile(
		`{"event":{"key":"stockholm/originals/07/1/a.jpg","mime_type":"image/jpeg","thumbnail_key":"stockholm/thumbnails/07/1/a.jpg","preview_key":"stockholm/previews/07/1/a.jpg","size":2048},"participant_id":"0190b6c4-6f7e-7a2c-9d3e-5f4a3b2c1d0e","log_context":"audit","version":"\d\.\d\.\d","domain":"stockholm","disposition":"good","event_type":"submission_completed","timestamp":\d+}`,
	)
	assert.Regexp(t, expect, got)
}

func TestLogSubmissionFailed(t *testing.T) {
	got := capture(t, func() {
		LogSubmissionFailed(Context{Domain: "stockholm"}, "stockholm/originals/07/1/a.jpg",
			[]string{"FETCH_FAILURE"}, map[string]string{"key": "stockholm/originals/07/1/a.jpg"}, true)
	})

	expect := regexp.MustCompile(
		`{"event":{"key":"stockholm/originals/07/1/a.jpg","codes":\["FETCH_FAILURE"\],"context":{"key":"stockholm/originals/07/1/a.jpg"},"claimed":true},"participant_id":null,"log_context":"audit","version":"\d\.\d\.\d","domain":"stockholm","disposition":"bad","event_type":"submission_failed","timestamp":\d+}`,
	)
	assert.Regexp(t, expect, got)
}

func TestLogValidationEvaluated(t *testing.T) {
	ctx := Context{ParticipantID: &participantID, Domain: "stockholm"}

	tests := map[string]struct {
		results     []rules.Result
		disposition string
		failed      string
	}{
		"AllPassed": {
			results: []rules.Result{
				{RuleKey: types.RuleKeyMaxFileSize, Severity: types.SeverityError, Outcome: types.OutcomePassed},
			},
			disposition: "good",
			failed:      `\[\]`,
		},
		"WarningFailed": {
			results: []rules.Result{
				{RuleKey: types.RuleKeySameDevice, Severity: types.SeverityWarning, Outcome: types.OutcomeFailed},
			},
			disposition: "neutral",
			failed:      `\[\]`,
		},
		"ErrorFailed": {
			results: []rules.Result{
				{FileName: ptr("a.jpg"), RuleKey: types.RuleKeyMaxFileSize, Severity: types.SeverityError, Outcome: types.OutcomeFailed},
				{FileName: ptr("b.jpg"), RuleKey: types.RuleKeyMaxFileSize, Severity: types.SeverityError, Outcome: types.OutcomeFailed},
			},
			disposition: "bad",
			failed:      `\["max_file_size"\]`,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := capture(t, func() {
				LogValidationEvaluated(ctx, 2, tt.results)
			})

			assert.Regexp(t, regexp.MustCompile(`"failed_errors":`+tt.failed), got)
			assert.Regexp(t, regexp.MustCompile(`"disposition":"`+tt.disposition+`"`), got)
			assert.Contains(t, got, `"event_type":"validation_evaluated"`)
			assert.Contains(t, got, `"inputs":2`)
		})
	}
}

func TestLogParticipantFinalized(t *testing.T) {
	ctx := Context{ParticipantID: &participantID, Domain: "stockholm"}
	got := capture(t, func() {
		LogParticipantFinalized(ctx, "07", 24)
	})

	expect := regexp.MustCompile(
		`{"event":{"reference":"07","photos":24},"participant_id":"0190b6c4-6f7e-7a2c-9d3e-5f4a3b2c1d0e","log_context":"audit","version":"\d\.\d\.\d","domain":"stockholm","disposition":"good","event_type":"participant_finalized","timestamp":\d+}`,
	)
	assert.Regexp(t, expect, got)
}

func TestLogSubmissionKeyRejected(t *testing.T) {
	got := capture(t, func() {
		LogSubmissionKeyRejected("not/a/key")
	})

	require.NotEmpty(t, got)
	assert.Contains(t, got, `"event":{"key":"not/a/key"}`)
	assert.Contains(t, got, `"event_type":"submission_key_rejected"`)
	assert.Contains(t, got, `"disposition":"bad"`)
}
