package finalize_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/photomarathon/pipeline/internal/events"
	mockevents "github.com/photomarathon/pipeline/internal/events/mock"
	"github.com/photomarathon/pipeline/internal/finalize"
	"github.com/photomarathon/pipeline/internal/finalize/mock"
	"github.com/photomarathon/pipeline/internal/models"
)

func participant(id uuid.UUID, required int) *models.Participant {
	p := &models.Participant{
		Model:     models.Model{ID: id},
		Reference: "07",
		Marathon:  models.Marathon{Domain: "stockholm"},
	}
	if required > 0 {
		p.CompetitionClass = &models.CompetitionClass{NumberOfPhotos: required}
	}
	return p
}

func TestCheck(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name      string
		required  int
		finished  int64
		published bool
	}{
		{name: "Complete", required: 8, finished: 8, published: true},
		{name: "Incomplete", required: 8, finished: 7},
		{name: "OverCount", required: 8, finished: 9},
		{name: "NoSubmissions", required: 24, finished: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := mock.NewMockStore(ctrl)
			pub := mockevents.NewMockPublisher(ctrl)

			store.EXPECT().LoadParticipant(gomock.Any(), id).Return(participant(id, tt.required), nil)
			store.EXPECT().CountFinishedSubmissions(gomock.Any(), id).Return(tt.finished, nil)
			if tt.published {
				pub.EXPECT().
					PublishFinalized(gomock.Any(), events.Finalized{Domain: "stockholm", Reference: "07"}).
					Return(nil)
			}

			published, err := finalize.NewFinalizer(store, pub).Check(t.Context(), id)
			require.NoError(t, err)
			assert.Equal(t, tt.published, published)
		})
	}

	t.Run("NoCompetitionClass", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mock.NewMockStore(ctrl)
		pub := mockevents.NewMockPublisher(ctrl)

		store.EXPECT().LoadParticipant(gomock.Any(), id).Return(participant(id, 0), nil)

		published, err := finalize.NewFinalizer(store, pub).Check(t.Context(), id)
		require.NoError(t, err)
		assert.False(t, published)
	})

	t.Run("PublishFails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mock.NewMockStore(ctrl)
		pub := mockevents.NewMockPublisher(ctrl)
		boom := errors.New("stream unavailable")

		store.EXPECT().LoadParticipant(gomock.Any(), id).Return(participant(id, 2), nil)
		store.EXPECT().CountFinishedSubmissions(gomock.Any(), id).Return(int64(2), nil)
		pub.EXPECT().PublishFinalized(gomock.Any(), gomock.Any()).Return(boom)

		published, err := finalize.NewFinalizer(store, pub).Check(t.Context(), id)
		require.ErrorIs(t, err, boom)
		assert.False(t, published)
	})

	t.Run("LoadFails", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mock.NewMockStore(ctrl)
		pub := mockevents.NewMockPublisher(ctrl)
		boom := errors.New("connection refused")

		store.EXPECT().LoadParticipant(gomock.Any(), id).Return(nil, boom)

		_, err := finalize.NewFinalizer(store, pub).Check(t.Context(), id)
		require.ErrorIs(t, err, boom)
	})
}
