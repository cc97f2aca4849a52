package types

import "fmt"

type RuleKey string

const (
	RuleKeyMaxFileSize             RuleKey = "max_file_size"
	RuleKeyAllowedFileTypes        RuleKey = "allowed_file_types"
	RuleKeyWithinTimerange         RuleKey = "within_timerange"
	RuleKeySameDevice              RuleKey = "same_device"
	RuleKeyModified                RuleKey = "modified"
	RuleKeyStrictTimestampOrdering RuleKey = "strict_timestamp_ordering"
)

var RuleKeys = []RuleKey{
	RuleKeyMaxFileSize,
	RuleKeyAllowedFileTypes,
	RuleKeyWithinTimerange,
	RuleKeySameDevice,
	RuleKeyModified,
	RuleKeyStrictTimestampOrdering,
}

func ParseRuleKey(s string) (RuleKey, error) {
	for _, k := range RuleKeys {
		if string(k) == s {
			return k, nil
		}
	}

	return "", fmt.Errorf("unknown rule key: %q", s)
}

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

func (s Severity) Valid() bool {
	return s == SeverityError || s == SeverityWarning
}

type Outcome string

const (
	OutcomePassed  Outcome = "passed"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped" // rule could not be evaluated for the input
)
