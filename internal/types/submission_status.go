package types

type SubmissionStatus string

const (
	SubmissionStatusInitialized SubmissionStatus = "initialized" // Upload initialized, object not yet processed
	SubmissionStatusProcessing  SubmissionStatus = "processing"  // Claimed by a worker
	SubmissionStatusCompleted   SubmissionStatus = "completed"   // Metadata and variants persisted
	SubmissionStatusFailed      SubmissionStatus = "failed"      // Processing failed, errors cataloged
	SubmissionStatusVerified    SubmissionStatus = "verified"    // Verified by staff after completion
)

// Statuses a worker may move into processing. Failed submissions are reclaimable so queue redelivery can retry them.
var ClaimableStatuses = []SubmissionStatus{
	SubmissionStatusInitialized,
	SubmissionStatusFailed,
}

const (
	ExitNormal  int = 0
	ExitErrored int = 1
	// Some items of a batch could not be processed
	ExitPartialFailure int = 2
	ExitInvalidInput   int = 3
)
