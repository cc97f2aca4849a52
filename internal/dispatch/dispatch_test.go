package dispatch_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/photomarathon/pipeline/internal/dispatch"
	"github.com/photomarathon/pipeline/internal/dispatch/mock"
	"github.com/photomarathon/pipeline/internal/keys"
	"github.com/photomarathon/pipeline/internal/models"
	"github.com/photomarathon/pipeline/internal/queue"
	workererrors "github.com/photomarathon/pipeline/internal/worker_errors"
)

func s3Body(t *testing.T, keys ...string) []byte {
	ev := events.S3Event{}
	for _, k := range keys {
		rec := events.S3EventRecord{EventName: "ObjectCreated:Put"}
		rec.S3.Object.Key = k
		ev.Records = append(ev.Records, rec)
	}
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	return b
}

func original(idx int) string {
	return keys.Generate("stockholm", 7, idx, "jpg").String()
}

func TestDecode(t *testing.T) {
	t.Run("Records", func(t *testing.T) {
		got, err := dispatch.Decode(s3Body(t, original(1), "stockholm/original/07/02/07_02+copy.jpg"))
		require.NoError(t, err)
		assert.Equal(t, []string{original(1), "stockholm/original/07/02/07_02+copy.jpg"}, got)
	})

	t.Run("DropsRemovals", func(t *testing.T) {
		body := []byte(`{"Records": [
			{"eventName": "ObjectRemoved:Delete", "s3": {"object": {"key": "a/original/01/01/x.jpg"}}},
			{"eventName": "ObjectCreated:CompleteMultipartUpload", "s3": {"object": {"key": "a/original/01/02/y.jpg"}}}
		]}`)
		got, err := dispatch.Decode(body)
		require.NoError(t, err)
		assert.Equal(t, []string{"a/original/01/02/y.jpg"}, got)
	})

	t.Run("NoRecords", func(t *testing.T) {
		_, err := dispatch.Decode([]byte(`{"Records": []}`))
		require.ErrorIs(t, err, dispatch.ErrNoRecords)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := dispatch.Decode([]byte(`not json`))
		require.Error(t, err)
	})
}

func TestDispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("MalformedKeyIsIsolated", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		proc := mock.NewMockProcessor(ctrl)
		rec := mock.NewMockErrorRecorder(ctrl)

		batch := []string{original(1), original(2), "stockholm/original/07/07_03.jpg", original(4), original(5)}

		for _, i := range []int{1, 2, 4, 5} {
			proc.EXPECT().Process(gomock.Any(), keys.Generate("stockholm", 7, i, "jpg")).Return(nil)
		}
		rec.EXPECT().RecordErrors(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, rows []models.SubmissionError) error {
				require.Len(t, rows, 1)
				assert.Equal(t, "INVALID_KEY_FORMAT", rows[0].Code)
				assert.Equal(t, batch[2], rows[0].SubmissionKey)
				return nil
			})

		report := dispatch.NewDispatcher(proc, rec, 2).Dispatch(ctx, batch)

		assert.Equal(t, 4, report.Succeeded)
		assert.Equal(t, 1, report.Failed)
		assert.Equal(t, 0, report.Skipped)
		require.Len(t, report.Items, 5)
		assert.Error(t, report.Items[2].Err)
		assert.False(t, report.Items[2].Retryable())
		assert.Empty(t, report.Retryable())
	})

	t.Run("SkipsVariants", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		proc := mock.NewMockProcessor(ctrl)
		rec := mock.NewMockErrorRecorder(ctrl)

		k := keys.Generate("stockholm", 7, 1, "jpg")
		report := dispatch.NewDispatcher(proc, rec, 4).Dispatch(ctx, []string{
			k.Variant(keys.CategoryThumbnail).String(),
			k.Variant(keys.CategoryPreview).String(),
		})

		assert.Equal(t, 2, report.Skipped)
		assert.Equal(t, 0, report.Succeeded)
	})

	t.Run("DecodesEventKeys", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		proc := mock.NewMockProcessor(ctrl)
		rec := mock.NewMockErrorRecorder(ctrl)

		proc.EXPECT().Process(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, k keys.Key) error {
				assert.Equal(t, "07_02 copy.jpg", k.FileName)
				return nil
			})

		report := dispatch.NewDispatcher(proc, rec, 1).
			Dispatch(ctx, []string{"stockholm/original/07/02/07_02+copy.jpg"})
		assert.Equal(t, 1, report.Succeeded)
	})

	t.Run("PanicIsContained", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		proc := mock.NewMockProcessor(ctrl)
		rec := mock.NewMockErrorRecorder(ctrl)

		proc.EXPECT().Process(gomock.Any(), keys.Generate("stockholm", 7, 1, "jpg")).
			DoAndReturn(func(context.Context, keys.Key) error { panic("nil map") })
		proc.EXPECT().Process(gomock.Any(), keys.Generate("stockholm", 7, 2, "jpg")).Return(nil)

		report := dispatch.NewDispatcher(proc, rec, 2).Dispatch(ctx, []string{original(1), original(2)})

		assert.Equal(t, 1, report.Succeeded)
		assert.Equal(t, 1, report.Failed)
		codes, _ := workererrors.Classify(report.Items[0].Err)
		assert.Equal(t, []workererrors.Code{workererrors.CodeUnknown}, codes)
	})

	t.Run("BoundedConcurrency", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		proc := mock.NewMockProcessor(ctrl)
		rec := mock.NewMockErrorRecorder(ctrl)

		var running, peak atomic.Int32
		var mu sync.Mutex
		seen := map[int]bool{}
		proc.EXPECT().Process(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, k keys.Key) error {
				n := running.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				running.Add(-1)

				mu.Lock()
				seen[k.OrderIndex] = true
				mu.Unlock()
				return nil
			}).
			Times(12)

		batch := make([]string, 0, 12)
		for i := range 12 {
			batch = append(batch, original(i+1))
		}

		report := dispatch.NewDispatcher(proc, rec, 3).Dispatch(ctx, batch)

		assert.Equal(t, 12, report.Succeeded)
		assert.LessOrEqual(t, peak.Load(), int32(3))
		assert.Len(t, seen, 12)
	})
}

func TestHandle(t *testing.T) {
	ctx := context.Background()

	t.Run("Poison", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		d := dispatch.NewDispatcher(mock.NewMockProcessor(ctrl), mock.NewMockErrorRecorder(ctrl), 1)

		err := d.Handle(ctx, []byte(`{`))
		var poison *queue.PoisonError
		require.ErrorAs(t, err, &poison)
	})

	t.Run("TerminalFailuresAreAcknowledged", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		proc := mock.NewMockProcessor(ctrl)
		rec := mock.NewMockErrorRecorder(ctrl)

		proc.EXPECT().Process(gomock.Any(), gomock.Any()).
			Return(workererrors.Wrap(workererrors.CodeMissingMetadata, errors.New("no exif")))

		err := dispatch.NewDispatcher(proc, rec, 1).Handle(ctx, s3Body(t, original(1)))
		require.NoError(t, err)
	})

	t.Run("MissingSubmissionIsAcknowledged", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		proc := mock.NewMockProcessor(ctrl)
		rec := mock.NewMockErrorRecorder(ctrl)

		proc.EXPECT().Process(gomock.Any(), gomock.Any()).
			Return(workererrors.WrapTerminal(workererrors.CodeSubmissionPersistenceFailure,
				errors.New("submission not found"), "step", "claim"))

		err := dispatch.NewDispatcher(proc, rec, 1).Handle(ctx, s3Body(t, original(1)))
		require.NoError(t, err)
	})

	t.Run("RetryableFailureRequeues", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		proc := mock.NewMockProcessor(ctrl)
		rec := mock.NewMockErrorRecorder(ctrl)

		fetchErr := workererrors.Wrap(workererrors.CodeFetchFailure, errors.New("timeout"))
		proc.EXPECT().Process(gomock.Any(), keys.Generate("stockholm", 7, 1, "jpg")).Return(fetchErr)
		proc.EXPECT().Process(gomock.Any(), keys.Generate("stockholm", 7, 2, "jpg")).Return(nil)

		err := dispatch.NewDispatcher(proc, rec, 2).Handle(ctx, s3Body(t, original(1), original(2)))
		require.Error(t, err)
		require.ErrorIs(t, err, fetchErr)

		var poison *queue.PoisonError
		assert.False(t, errors.As(err, &poison))
	})
}
