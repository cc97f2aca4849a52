package workererrors

type Code string

const (
	CodeInvalidKeyFormat             Code = "INVALID_KEY_FORMAT"
	CodeFetchFailure                 Code = "FETCH_FAILURE"
	CodeMissingMetadata              Code = "MISSING_METADATA"
	CodeSubmissionPersistenceFailure Code = "SUBMISSION_PERSISTENCE_FAILURE"
	CodeVariantGenerationFailure     Code = "VARIANT_GENERATION_FAILURE"
	CodeUnknown                      Code = "UNKNOWN_ERROR"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Entry is the stable catalog description of a code. Persisted failure rows are built from entries, never from error
// text.
type Entry struct {
	Code        Code     `json:"code"`
	Message     string   `json:"message"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Retryable   bool     `json:"-"`
}

var catalog = map[Code]Entry{
	CodeInvalidKeyFormat: {
		Code:        CodeInvalidKeyFormat,
		Message:     "Invalid key format",
		Severity:    SeverityError,
		Description: "The object key does not match {domain}/{category}/{participantRef}/{orderIndex}/{fileName}.",
	},
	CodeFetchFailure: {
		Code:        CodeFetchFailure,
		Message:     "Failed to fetch the photo",
		Severity:    SeverityError,
		Description: "The original photo could not be read from the object store.",
		Retryable:   true,
	},
	CodeMissingMetadata: {
		Code:        CodeMissingMetadata,
		Message:     "Photo has no metadata",
		Severity:    SeverityError,
		Description: "The photo carries no EXIF block, so it cannot be validated against the competition rules.",
	},
	CodeSubmissionPersistenceFailure: {
		Code:        CodeSubmissionPersistenceFailure,
		Message:     "Failed to persist the submission",
		Severity:    SeverityError,
		Description: "The submission record could not be read or updated.",
		Retryable:   true,
	},
	CodeVariantGenerationFailure: {
		Code:        CodeVariantGenerationFailure,
		Message:     "Failed to generate image variants",
		Severity:    SeverityError,
		Description: "The thumbnail and preview could not both be generated and stored.",
	},
	CodeUnknown: {
		Code:        CodeUnknown,
		Message:     "Unknown error",
		Severity:    SeverityError,
		Description: "An unexpected error occurred while processing the photo.",
		Retryable:   true,
	},
}

// Lookup returns the catalog entry of code. Unknown codes resolve to the UNKNOWN_ERROR entry.
func Lookup(code Code) Entry {
	if e, ok := catalog[code]; ok {
		return e
	}
	return catalog[CodeUnknown]
}

// Codes lists every code in the catalog
func Codes() []Code {
	return []Code{
		CodeInvalidKeyFormat,
		CodeFetchFailure,
		CodeMissingMetadata,
		CodeSubmissionPersistenceFailure,
		CodeVariantGenerationFailure,
		CodeUnknown,
	}
}
