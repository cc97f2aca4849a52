package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	sloggorm "github.com/imdatngo/slog-gorm/v2"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/datatypes"
	gormpg "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/photomarathon/pipeline/internal/exif"
	"github.com/photomarathon/pipeline/internal/migrations"
	"github.com/photomarathon/pipeline/internal/models"
	"github.com/photomarathon/pipeline/internal/types"
)

type StoreTestSuite struct {
	suite.Suite

	pgContainer *postgres.PostgresContainer
	db          *gorm.DB
	tx          *gorm.DB
	store       *Store

	marathon    models.Marathon
	class       models.CompetitionClass
	participant models.Participant
}

func (s *StoreTestSuite) SetupSuite() {
	ct, err := postgres.Run(s.T().Context(),
		"postgres:16.4-alpine",
		postgres.WithDatabase("photopipeline"),
		postgres.WithUsername("photopipeline"),
		postgres.WithPassword("photopipeline"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	s.Require().NoError(err)
	s.pgContainer = ct

	connStr, err := s.pgContainer.ConnectionString(s.T().Context())
	s.Require().NoError(err)

	db, err := gorm.Open(gormpg.Open(connStr), &gorm.Config{
		Logger: sloggorm.New(),
	})
	s.Require().NoError(err)
	s.db = db

	s.Require().NoError(migrations.Up(s.T().Context(), s.db))
}

func (s *StoreTestSuite) SetupTest() {
	s.tx = s.db.Begin()
	s.store = New(s.tx)

	s.marathon = models.Marathon{Domain: "stockholm", Name: "Stockholm Fotomaraton"}
	s.Require().NoError(s.tx.Create(&s.marathon).Error)

	s.class = models.CompetitionClass{MarathonID: s.marathon.ID, Name: "8 photos", NumberOfPhotos: 2}
	s.Require().NoError(s.tx.Create(&s.class).Error)

	s.participant = models.Participant{
		MarathonID:         s.marathon.ID,
		CompetitionClassID: &s.class.ID,
		Reference:          "07",
	}
	s.Require().NoError(s.tx.Create(&s.participant).Error)
}

func (s *StoreTestSuite) TearDownTest() {
	s.tx.Rollback()
}

func (s *StoreTestSuite) TearDownSuite() {
	s.Require().NoError(testcontainers.TerminateContainer(s.pgContainer))
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (s *StoreTestSuite) createSubmission(key string, status types.SubmissionStatus) models.Submission {
	sub := models.Submission{
		Key:           key,
		Status:        status,
		ParticipantID: s.participant.ID,
		MarathonID:    s.marathon.ID,
	}
	s.Require().NoError(s.tx.Create(&sub).Error)
	return sub
}

func (s *StoreTestSuite) statusOf(key string) types.SubmissionStatus {
	var sub models.Submission
	s.Require().NoError(s.tx.First(&sub, "key = ?", key).Error)
	return sub.Status
}

// revalidate stores results as the participant's evaluation
func (s *StoreTestSuite) revalidate(results []models.ValidationResult) {
	s.Require().NoError(s.store.RevalidateParticipant(s.T().Context(), s.participant.ID,
		func(context.Context, []models.Submission) []models.ValidationResult {
			return results
		}))
}

// one passed max_file_size row per finished submission
func perFile(_ context.Context, finished []models.Submission) []models.ValidationResult {
	rows := make([]models.ValidationResult, 0, len(finished))
	for _, sub := range finished {
		rows = append(rows, models.ValidationResult{
			FileName: models.NewNullFromData(sub.Key),
			RuleKey:  types.RuleKeyMaxFileSize,
			Severity: types.SeverityError,
			Outcome:  types.OutcomePassed,
			Message:  "within the limit",
		})
	}
	return rows
}

func resultFiles(results []models.ValidationResult) []string {
	files := make([]string, 0, len(results))
	for _, r := range results {
		files = append(files, r.FileName.V)
	}
	return files
}

func (s *StoreTestSuite) Test_ClaimSubmission_Initialized() {
	key := "stockholm/original/07/01/07_01.jpg"
	s.createSubmission(key, types.SubmissionStatusInitialized)

	sub, err := s.store.ClaimSubmission(s.T().Context(), key)
	s.Require().NoError(err)
	s.Require().NotNil(sub)

	s.Equal(key, sub.Key)
	s.Equal(types.SubmissionStatusProcessing, sub.Status)
	s.Equal(s.participant.ID, sub.ParticipantID)
	s.Equal(types.SubmissionStatusProcessing, s.statusOf(key))
}

func (s *StoreTestSuite) Test_ClaimSubmission_FailedIsReclaimable() {
	key := "stockholm/original/07/01/07_01.jpg"
	s.createSubmission(key, types.SubmissionStatusFailed)

	sub, err := s.store.ClaimSubmission(s.T().Context(), key)
	s.Require().NoError(err)
	s.NotNil(sub)
}

func (s *StoreTestSuite) Test_ClaimSubmission_DuplicateDelivery() {
	for _, status := range []types.SubmissionStatus{
		types.SubmissionStatusProcessing,
		types.SubmissionStatusCompleted,
		types.SubmissionStatusVerified,
	} {
		key := "stockholm/original/07/01/07_01_" + string(status) + ".jpg"
		s.createSubmission(key, status)

		sub, err := s.store.ClaimSubmission(s.T().Context(), key)
		s.Require().NoError(err, status)
		s.Nil(sub, status)
		s.Equal(status, s.statusOf(key))
	}
}

func (s *StoreTestSuite) Test_ClaimSubmission_Missing() {
	sub, err := s.store.ClaimSubmission(s.T().Context(), "stockholm/original/07/01/07_01.jpg")
	s.Require().ErrorIs(err, ErrSubmissionNotFound)
	s.Nil(sub)
}

func (s *StoreTestSuite) Test_CompleteSubmission() {
	sibling := "stockholm/original/07/01/07_01.jpg"
	key := "stockholm/original/07/02/07_02.jpg"
	s.createSubmission(sibling, types.SubmissionStatusCompleted)
	s.createSubmission(key, types.SubmissionStatusProcessing)

	data := &exif.Data{Make: "Canon", Model: "EOS R6", DateTimeOriginal: "2024:06:01 10:00:00"}

	var seen []models.Submission
	err := s.store.CompleteSubmission(s.T().Context(), key, Completion{
		Exif:          data,
		MimeType:      "image/jpeg",
		ThumbnailKey:  "stockholm/thumbnail/07/02/thumbnail_07_02.jpg",
		PreviewKey:    "stockholm/preview/07/02/preview_07_02.jpg",
		Size:          2048,
		ParticipantID: s.participant.ID,
	}, func(ctx context.Context, finished []models.Submission) []models.ValidationResult {
		seen = finished
		return perFile(ctx, finished)
	})
	s.Require().NoError(err)

	var sub models.Submission
	s.Require().NoError(s.tx.First(&sub, "key = ?", key).Error)

	s.Equal(types.SubmissionStatusCompleted, sub.Status)
	s.Equal(data, sub.Exif)
	s.Equal(datatypes.NewNull(int64(2048)), sub.Size)
	s.Equal("image/jpeg", *models.PtrFromNull(sub.MimeType))
	s.Equal("stockholm/thumbnail/07/02/thumbnail_07_02.jpg", sub.ThumbnailKey.V)
	s.Equal("stockholm/preview/07/02/preview_07_02.jpg", sub.PreviewKey.V)

	// the evaluation sees the row it just completed
	s.Require().Len(seen, 2)
	s.Equal(sibling, seen[0].Key)
	s.Equal(key, seen[1].Key)
	s.Equal(data, seen[1].Exif)

	got, err := s.store.ListValidationResults(s.T().Context(), s.participant.ID)
	s.Require().NoError(err)
	s.Equal([]string{sibling, key}, resultFiles(got))
}

func (s *StoreTestSuite) Test_CompleteSubmission_NotClaimed() {
	key := "stockholm/original/07/01/07_01.jpg"
	s.createSubmission(key, types.SubmissionStatusInitialized)

	err := s.store.CompleteSubmission(s.T().Context(), key, Completion{Size: 1, ParticipantID: s.participant.ID},
		func(context.Context, []models.Submission) []models.ValidationResult {
			s.Fail("evaluated without a claim")
			return nil
		})
	s.Require().ErrorIs(err, ErrClaimLost)
	s.Equal(types.SubmissionStatusInitialized, s.statusOf(key))
}

func (s *StoreTestSuite) Test_CompleteSubmission_UnknownParticipant() {
	key := "stockholm/original/07/01/07_01.jpg"
	s.createSubmission(key, types.SubmissionStatusProcessing)

	err := s.store.CompleteSubmission(s.T().Context(), key, Completion{Size: 1, ParticipantID: uuid.New()}, perFile)
	s.Require().ErrorIs(err, ErrParticipantNotFound)
	s.Equal(types.SubmissionStatusProcessing, s.statusOf(key))
}

func (s *StoreTestSuite) Test_CompleteSubmission_SequentialSiblings() {
	first := "stockholm/original/07/01/07_01.jpg"
	second := "stockholm/original/07/02/07_02.jpg"
	s.createSubmission(first, types.SubmissionStatusProcessing)
	s.createSubmission(second, types.SubmissionStatusProcessing)

	for _, key := range []string{second, first} {
		s.Require().NoError(s.store.CompleteSubmission(s.T().Context(), key,
			Completion{Size: 1, ParticipantID: s.participant.ID}, perFile))
	}

	got, err := s.store.ListValidationResults(s.T().Context(), s.participant.ID)
	s.Require().NoError(err)
	s.Equal([]string{first, second}, resultFiles(got))
}

// Runs outside the per test transaction so the two completions hold separate connections
func (s *StoreTestSuite) Test_CompleteSubmission_ConcurrentSiblings() {
	ctx := s.T().Context()

	marathon := models.Marathon{Domain: "concurrent-" + uuid.NewString(), Name: "Concurrent"}
	s.Require().NoError(s.db.Create(&marathon).Error)
	participant := models.Participant{MarathonID: marathon.ID, Reference: "07"}
	s.Require().NoError(s.db.Create(&participant).Error)

	keyList := []string{
		marathon.Domain + "/original/07/01/07_01.jpg",
		marathon.Domain + "/original/07/02/07_02.jpg",
	}
	for _, key := range keyList {
		s.Require().NoError(s.db.Create(&models.Submission{
			Key:           key,
			Status:        types.SubmissionStatusProcessing,
			ParticipantID: participant.ID,
			MarathonID:    marathon.ID,
		}).Error)
	}

	s.T().Cleanup(func() {
		s.db.Where("participant_id = ?", participant.ID).Delete(&models.ValidationResult{})
		s.db.Where("participant_id = ?", participant.ID).Delete(&models.Submission{})
		s.db.Delete(&participant)
		s.db.Delete(&marathon)
	})

	shared := New(s.db)

	// the first evaluation stalls so the other completion arrives while it holds the lock
	var once sync.Once
	slow := func(ctx context.Context, finished []models.Submission) []models.ValidationResult {
		once.Do(func() { time.Sleep(300 * time.Millisecond) })
		return perFile(ctx, finished)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(keyList))
	for i, key := range keyList {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = shared.CompleteSubmission(ctx, key,
				Completion{Size: 1, ParticipantID: participant.ID}, slow)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		s.Require().NoError(err)
	}

	got, err := shared.ListValidationResults(ctx, participant.ID)
	s.Require().NoError(err)
	s.Equal(keyList, resultFiles(got))
}

func (s *StoreTestSuite) Test_RevalidateParticipant_UnknownParticipant() {
	err := s.store.RevalidateParticipant(s.T().Context(), uuid.New(), perFile)
	s.Require().ErrorIs(err, ErrParticipantNotFound)
}

func (s *StoreTestSuite) Test_FailSubmission() {
	key := "stockholm/original/07/01/07_01.jpg"
	s.createSubmission(key, types.SubmissionStatusProcessing)

	s.Require().NoError(s.store.FailSubmission(s.T().Context(), key))
	s.Equal(types.SubmissionStatusFailed, s.statusOf(key))
}

func (s *StoreTestSuite) Test_FailSubmission_LeavesCompletedAlone() {
	key := "stockholm/original/07/01/07_01.jpg"
	s.createSubmission(key, types.SubmissionStatusCompleted)

	s.Require().NoError(s.store.FailSubmission(s.T().Context(), key))
	s.Equal(types.SubmissionStatusCompleted, s.statusOf(key))
}

func (s *StoreTestSuite) Test_RecordErrors() {
	key := "stockholm/original/07/01/07_01.jpg"
	err := s.store.RecordErrors(s.T().Context(), []models.SubmissionError{
		{
			SubmissionKey: key,
			Code:          "FETCH_FAILURE",
			Message:       "Could not fetch the uploaded photo",
			Severity:      "error",
			Description:   "The object could not be read from storage",
			Context:       map[string]string{"key": key},
		},
	})
	s.Require().NoError(err)

	rows, err := s.store.ListSubmissionErrors(s.T().Context(), key)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal("FETCH_FAILURE", rows[0].Code)
	s.Equal(map[string]string{"key": key}, rows[0].Context)

	s.Require().NoError(s.store.RecordErrors(s.T().Context(), nil))
}

func (s *StoreTestSuite) Test_LoadParticipant() {
	participant, err := s.store.LoadParticipant(s.T().Context(), s.participant.ID)
	s.Require().NoError(err)

	s.Equal("07", participant.Reference)
	s.Equal("stockholm", participant.Marathon.Domain)
	s.Require().NotNil(participant.CompetitionClass)
	s.Equal(2, participant.CompetitionClass.NumberOfPhotos)
}

func (s *StoreTestSuite) Test_LoadParticipant_Missing() {
	_, err := s.store.LoadParticipant(s.T().Context(), uuid.New())
	s.Require().ErrorIs(err, ErrParticipantNotFound)
}

func (s *StoreTestSuite) Test_ListRuleConfigs() {
	other := models.Marathon{Domain: "gothenburg", Name: "Göteborg"}
	s.Require().NoError(s.tx.Create(&other).Error)

	configs := []models.RuleConfig{
		{
			MarathonID: s.marathon.ID,
			RuleKey:    string(types.RuleKeyMaxFileSize),
			Enabled:    true,
			Severity:   types.SeverityError,
			Params:     datatypes.JSON(`{"maxBytes": 1024}`),
		},
		{
			MarathonID: s.marathon.ID,
			RuleKey:    string(types.RuleKeySameDevice),
			Severity:   types.SeverityWarning,
			Params:     datatypes.JSON(`{}`),
		},
		{
			MarathonID: other.ID,
			RuleKey:    string(types.RuleKeyModified),
			Enabled:    true,
			Severity:   types.SeverityWarning,
			Params:     datatypes.JSON(`{}`),
		},
	}
	s.Require().NoError(s.tx.Create(&configs).Error)

	got, err := s.store.ListRuleConfigs(s.T().Context(), s.marathon.ID)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(string(types.RuleKeyMaxFileSize), got[0].RuleKey)
	s.JSONEq(`{"maxBytes": 1024}`, string(got[0].Params))
	s.Equal(string(types.RuleKeySameDevice), got[1].RuleKey)
	s.False(got[1].Enabled)
}

func (s *StoreTestSuite) Test_FinishedSubmissions() {
	s.createSubmission("stockholm/original/07/02/07_02.jpg", types.SubmissionStatusVerified)
	s.createSubmission("stockholm/original/07/01/07_01.jpg", types.SubmissionStatusCompleted)
	s.createSubmission("stockholm/original/07/03/07_03.jpg", types.SubmissionStatusFailed)
	s.createSubmission("stockholm/original/07/04/07_04.jpg", types.SubmissionStatusProcessing)

	var subs []models.Submission
	s.Require().NoError(s.store.RevalidateParticipant(s.T().Context(), s.participant.ID,
		func(_ context.Context, finished []models.Submission) []models.ValidationResult {
			subs = finished
			return nil
		}))
	s.Require().Len(subs, 2)
	s.Equal("stockholm/original/07/01/07_01.jpg", subs[0].Key)
	s.Equal("stockholm/original/07/02/07_02.jpg", subs[1].Key)

	count, err := s.store.CountFinishedSubmissions(s.T().Context(), s.participant.ID)
	s.Require().NoError(err)
	s.Equal(int64(2), count)
}

func (s *StoreTestSuite) Test_RevalidateParticipant_KeepsOverruled() {
	file := models.NewNullFromData("07_01.jpg")
	first := []models.ValidationResult{
		{
			FileName: file,
			RuleKey:  types.RuleKeyModified,
			Severity: types.SeverityWarning,
			Outcome:  types.OutcomeFailed,
			Message:  "Editing software detected: Adobe Photoshop",
		},
		{
			RuleKey:  types.RuleKeySameDevice,
			Severity: types.SeverityError,
			Outcome:  types.OutcomePassed,
			Message:  "All photos were taken with Canon EOS R6",
		},
	}
	s.revalidate(first)

	// staff overrule the modified failure
	s.Require().NoError(s.tx.Model(&models.ValidationResult{}).
		Where("participant_id = ? AND rule_key = ?", s.participant.ID, types.RuleKeyModified).
		Update("overruled", true).Error)

	second := []models.ValidationResult{
		{
			FileName: file,
			RuleKey:  types.RuleKeyModified,
			Severity: types.SeverityWarning,
			Outcome:  types.OutcomeFailed,
			Message:  "Editing software detected: Adobe Photoshop",
		},
		{
			FileName: models.NewNullFromData("07_02.jpg"),
			RuleKey:  types.RuleKeyModified,
			Severity: types.SeverityWarning,
			Outcome:  types.OutcomeFailed,
			Message:  "Editing software detected: GIMP",
		},
	}
	s.revalidate(second)

	got, err := s.store.ListValidationResults(s.T().Context(), s.participant.ID)
	s.Require().NoError(err)
	s.Require().Len(got, 2)

	s.Equal("07_01.jpg", got[0].FileName.V)
	s.True(got[0].Overruled)
	s.Equal(types.OutcomeFailed, got[0].Outcome)

	s.Equal("07_02.jpg", got[1].FileName.V)
	s.False(got[1].Overruled)
}

func (s *StoreTestSuite) Test_RevalidateParticipant_OutcomeChangeDropsOverrule() {
	file := models.NewNullFromData("07_01.jpg")
	s.revalidate([]models.ValidationResult{{
		FileName: file,
		RuleKey:  types.RuleKeyMaxFileSize,
		Severity: types.SeverityError,
		Outcome:  types.OutcomeFailed,
		Message:  "File size 2048 bytes exceeds the limit of 1024 bytes",
	}})
	s.Require().NoError(s.tx.Model(&models.ValidationResult{}).
		Where("participant_id = ?", s.participant.ID).
		Update("overruled", true).Error)

	s.revalidate([]models.ValidationResult{{
		FileName: file,
		RuleKey:  types.RuleKeyMaxFileSize,
		Severity: types.SeverityError,
		Outcome:  types.OutcomePassed,
		Message:  "File size 512 bytes is within the limit of 1024 bytes",
	}})

	got, err := s.store.ListValidationResults(s.T().Context(), s.participant.ID)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.False(got[0].Overruled)
}

func (s *StoreTestSuite) Test_RevalidateParticipant_Empty() {
	s.revalidate([]models.ValidationResult{{
		RuleKey:  types.RuleKeySameDevice,
		Severity: types.SeverityError,
		Outcome:  types.OutcomeSkipped,
		Message:  "No device information available",
	}})
	s.revalidate(nil)

	got, err := s.store.ListValidationResults(s.T().Context(), s.participant.ID)
	s.Require().NoError(err)
	s.Empty(got)
}
