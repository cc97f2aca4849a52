package workererrors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	workererrors "github.com/photomarathon/pipeline/internal/worker_errors"
)

func TestLookup(t *testing.T) {
	for _, code := range workererrors.Codes() {
		entry := workererrors.Lookup(code)
		assert.Equal(t, code, entry.Code, "entry should carry its code")
		assert.NotEmpty(t, entry.Message)
		assert.NotEmpty(t, entry.Description)
	}

	assert.Equal(t, workererrors.CodeUnknown, workererrors.Lookup("NOPE").Code)
}

func TestClassify(t *testing.T) {
	t.Run("Wrapped", func(t *testing.T) {
		cause := errors.New("connection reset by peer")
		err := fmt.Errorf("processing: %w", workererrors.Wrap(
			workererrors.CodeFetchFailure, cause, "key", "a/original/01/02/01_02.jpg",
		))

		codes, ctx := workererrors.Classify(err)
		assert.Equal(t, []workererrors.Code{workererrors.CodeFetchFailure}, codes)
		assert.Equal(t, map[string]string{"key": "a/original/01/02/01_02.jpg"}, ctx)
		require.ErrorIs(t, err, cause)
	})

	t.Run("Unknown", func(t *testing.T) {
		codes, ctx := workererrors.Classify(errors.New("boom"))
		assert.Equal(t, []workererrors.Code{workererrors.CodeUnknown}, codes)
		assert.Empty(t, ctx)
	})
}

func TestRetryable(t *testing.T) {
	assert.True(t, workererrors.Retryable([]workererrors.Code{workererrors.CodeFetchFailure}))
	assert.True(t, workererrors.Retryable([]workererrors.Code{workererrors.CodeUnknown}))
	assert.False(t, workererrors.Retryable([]workererrors.Code{workererrors.CodeMissingMetadata}))
	assert.False(t, workererrors.Retryable([]workererrors.Code{workererrors.CodeInvalidKeyFormat}))
	assert.True(t, workererrors.Retryable([]workererrors.Code{
		workererrors.CodeVariantGenerationFailure,
		workererrors.CodeSubmissionPersistenceFailure,
	}))
}

func TestIsRetryable(t *testing.T) {
	cause := errors.New("submission not found")

	assert.False(t, workererrors.IsRetryable(nil))
	assert.True(t, workererrors.IsRetryable(errors.New("boom")))
	assert.True(t, workererrors.IsRetryable(
		workererrors.Wrap(workererrors.CodeSubmissionPersistenceFailure, cause),
	))

	err := fmt.Errorf("claim: %w", workererrors.WrapTerminal(
		workererrors.CodeSubmissionPersistenceFailure, cause, "step", "claim",
	))
	assert.False(t, workererrors.IsRetryable(err))
	require.ErrorIs(t, err, cause)

	codes, ctx := workererrors.Classify(err)
	assert.Equal(t, []workererrors.Code{workererrors.CodeSubmissionPersistenceFailure}, codes)
	assert.Equal(t, map[string]string{"step": "claim"}, ctx)
}

func TestExitError(t *testing.T) {
	err := workererrors.ExitErrorWrap(2, errors.New("partial"))

	var exit workererrors.ExitError
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 2, exit.Code)
	assert.Equal(t, "2: partial", err.Error())
}
