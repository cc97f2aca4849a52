package queue_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/azure/azurite"
	"go.uber.org/mock/gomock"

	"github.com/photomarathon/pipeline/internal/queue"
	mockqueue "github.com/photomarathon/pipeline/internal/queue/mock"
)

var queueName = "uploads"

type message struct {
	Foo string `json:"foo"`
}

func TestAzure(t *testing.T) {
	ctx := t.Context()

	azuriteContainer, err := azurite.Run(
		ctx,
		"mcr.microsoft.com/azure-storage/azurite:latest",
		azurite.WithInMemoryPersistence(256),
	)
	require.NoError(t, err, "failed to make azurite container")
	defer func() {
		require.NoError(t, testcontainers.TerminateContainer(azuriteContainer))
	}()

	cred, err := azqueue.NewSharedKeyCredential(azurite.AccountName, azurite.AccountKey)
	require.NoError(t, err, "failed to get creds")

	serviceURL, err := azuriteContainer.QueueServiceURL(ctx)
	require.NoError(t, err, "failed to get serviceURL")
	serviceURL = fmt.Sprintf("%s/%s", serviceURL, azurite.AccountName)

	azclient, err := azqueue.NewServiceClientWithSharedKeyCredential(
		serviceURL,
		cred,
		nil,
	)
	require.NoError(t, err, "failed to make azure queue client")

	queueclient := azclient.NewQueueClient(queueName)
	_, err = queueclient.Create(ctx, nil)
	require.NoError(t, err, "failed to make queue")

	queuer, err := queue.NewAzureQueuer(
		azurite.AccountName,
		azurite.AccountKey,
		serviceURL,
		queueName,
	)
	require.NoError(t, err, "failed to construct queuer")
	queuer = queuer.WithBatchSize(4).WithPollInterval(100 * time.Millisecond)

	countMessages := func(t *testing.T) int {
		props, err := queueclient.GetProperties(ctx, nil)
		require.NoError(t, err, "failed to get queue properties")
		require.NotNil(t, props.ApproximateMessagesCount)
		return int(*props.ApproximateMessagesCount)
	}

	t.Run("Enqueue", func(t *testing.T) {
		expected := message{Foo: "foo"}
		require.NoError(t, queuer.Enqueue(ctx, expected), "failed to queue message")

		dequeued, dqErr := queueclient.DequeueMessage(
			ctx,
			nil,
		)
		require.NoError(t, dqErr, "failed to dequeue message")

		assert.Len(t, dequeued.Messages, 1, "should remove 1 message")

		rawMessage := *dequeued.Messages[0].MessageText
		actual := message{}
		err = json.Unmarshal([]byte(rawMessage), &actual)
		require.NoError(t, err, "failed to unmarshal message")

		assert.Equal(t, expected, actual, "messages should match")

		_, err = queueclient.DeleteMessage(ctx, *dequeued.Messages[0].MessageID, *dequeued.Messages[0].PopReceipt, nil)
		require.NoError(t, err, "failed to clean up message")
	})

	t.Run("Dequeue", func(t *testing.T) {
		t.Run("Empty", func(t *testing.T) {
			// Should not find something to dequeue before the context cancels
			ctrl := gomock.NewController(t)
			handler := mockqueue.NewMockMessageHandler(ctrl)

			handler.EXPECT().Handle(gomock.Any(), gomock.Any()).Times(0)

			cctx, cancel := context.WithTimeout(ctx, time.Second)
			defer cancel()

			require.Error(
				t,
				queuer.Dequeue(cctx, time.Minute, handler),
				"failed to handle a dequeue",
			)
		})

		t.Run("Batch", func(t *testing.T) {
			ctrl := gomock.NewController(t)
			handler := mockqueue.NewMockMessageHandler(ctrl)

			for _, msg := range []string{"a", "b", "c"} {
				_, err := queueclient.EnqueueMessage(ctx, msg, nil)
				require.NoError(t, err, "enqueing message")
			}

			handler.EXPECT().Handle(gomock.Any(), gomock.Any()).Return(nil).Times(3)

			err := queuer.Dequeue(ctx, time.Minute, handler)
			require.NoError(t, err, "failed to dequeue messages")

			assert.Equal(t, 0, countMessages(t), "handled messages should be deleted")
		})

		t.Run("Poison", func(t *testing.T) {
			ctrl := gomock.NewController(t)
			handler := mockqueue.NewMockMessageHandler(ctrl)

			_, err := queueclient.EnqueueMessage(ctx, "not json", nil)
			require.NoError(t, err, "enqueing message")

			handler.EXPECT().
				Handle(gomock.Any(), gomock.Eq([]byte("not json"))).
				Return(queue.WrapPoisonError(errors.New("bad body"))).
				Times(1)

			err = queuer.Dequeue(ctx, time.Minute, handler)
			require.NoError(t, err, "failed to dequeue message")

			assert.Equal(t, 0, countMessages(t), "poisoned message should be deleted")
		})

		t.Run("Retry", func(t *testing.T) {
			ctrl := gomock.NewController(t)
			handler := mockqueue.NewMockMessageHandler(ctrl)

			_, err := queueclient.EnqueueMessage(ctx, "later", nil)
			require.NoError(t, err, "enqueing message")

			handler.EXPECT().
				Handle(gomock.Any(), gomock.Eq([]byte("later"))).
				Return(errors.New("transient")).
				Times(1)

			err = queuer.Dequeue(ctx, time.Minute, handler)
			require.NoError(t, err, "failed to dequeue message")

			assert.Equal(t, 1, countMessages(t), "failed message should stay on the queue")
		})
	})

	t.Run("MaxDeliveries", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		handler := mockqueue.NewMockMessageHandler(ctrl)

		retryClient := azclient.NewQueueClient("uploads-retry")
		_, err := retryClient.Create(ctx, nil)
		require.NoError(t, err, "failed to make queue")

		retrying, err := queue.NewAzureQueuer(azurite.AccountName, azurite.AccountKey, serviceURL, "uploads-retry")
		require.NoError(t, err, "failed to construct queuer")
		retrying = retrying.WithPollInterval(100 * time.Millisecond).WithMaxDeliveries(1)

		_, err = retryClient.EnqueueMessage(ctx, "stuck", nil)
		require.NoError(t, err, "enqueing message")

		// only the first delivery reaches the handler
		handler.EXPECT().
			Handle(gomock.Any(), gomock.Eq([]byte("stuck"))).
			Return(errors.New("transient")).
			Times(1)

		require.NoError(t, retrying.Dequeue(ctx, time.Second, handler), "failed first delivery")

		// the message comes back once its visibility timeout lapses
		cctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		require.NoError(t, retrying.Dequeue(cctx, time.Second, handler), "failed second delivery")

		props, err := retryClient.GetProperties(ctx, nil)
		require.NoError(t, err, "failed to get queue properties")
		assert.Equal(t, int32(0), *props.ApproximateMessagesCount, "exhausted message should be deleted")
	})
}
