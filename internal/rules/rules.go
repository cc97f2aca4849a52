package rules

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/photomarathon/pipeline/internal/exif"
	"github.com/photomarathon/pipeline/internal/types"
	"github.com/photomarathon/pipeline/internal/validator"
)

var ErrInvalidConfig = errors.New("invalid rule config")

// Params is the closed set of rule parameter shapes, one struct per rule kind.
type Params interface {
	RuleKey() types.RuleKey
}

type MaxFileSizeParams struct {
	MaxBytes int64 `json:"maxBytes" validate:"gte=0"`
}

type AllowedFileTypesParams struct {
	AllowedFileTypes []string `json:"allowedFileTypes" validate:"required,min=1,dive,required"`
}

// Start and End are ISO 8601 timestamps compared as wall clock time
type WithinTimerangeParams struct {
	Start string `json:"start" validate:"required,timestamp"`
	End   string `json:"end"   validate:"required,timestamp"`
}

type SameDeviceParams struct{}

type ModifiedParams struct{}

type StrictTimestampOrderingParams struct{}

func (MaxFileSizeParams) RuleKey() types.RuleKey      { return types.RuleKeyMaxFileSize }
func (AllowedFileTypesParams) RuleKey() types.RuleKey { return types.RuleKeyAllowedFileTypes }
func (WithinTimerangeParams) RuleKey() types.RuleKey  { return types.RuleKeyWithinTimerange }
func (SameDeviceParams) RuleKey() types.RuleKey       { return types.RuleKeySameDevice }
func (ModifiedParams) RuleKey() types.RuleKey         { return types.RuleKeyModified }
func (StrictTimestampOrderingParams) RuleKey() types.RuleKey {
	return types.RuleKeyStrictTimestampOrdering
}

func (p WithinTimerangeParams) validate() error {
	start, end, err := p.window()
	if err != nil {
		return err
	}
	if end.Before(start) {
		return fmt.Errorf("end %s is before start %s", p.End, p.Start)
	}
	return nil
}

// Config is a marathon's policy for one rule kind. The rule kind is carried by Params.
type Config struct {
	Params   Params
	Severity types.Severity
	Enabled  bool
}

func (c Config) Key() types.RuleKey {
	if c.Params == nil {
		return ""
	}
	return c.Params.RuleKey()
}

// Input holds the facts about one photo that rules read
type Input struct {
	Exif          *exif.Data
	FileName      string
	MimeType      string
	FileSize      int64
	OrderIndex    int
	ParticipantID uuid.UUID
}

// Result of one rule check. A nil FileName marks a participant level result.
type Result struct {
	FileName      *string
	RuleKey       types.RuleKey
	Severity      types.Severity
	Outcome       types.Outcome
	Message       string
	ParticipantID uuid.UUID
}

type rule struct {
	schema *jsonschema.Schema
	decode func(raw []byte) (Params, error)
	check  func(p Params, inputs []Input) []Result
}

var registry = map[types.RuleKey]rule{}

func register[P Params](key types.RuleKey, schema string, check func(P, []Input) []Result) {
	registry[key] = rule{
		schema: jsonschema.MustCompileString(string(key)+".schema.json", schema),
		decode: func(raw []byte) (Params, error) {
			var p P
			if err := json.Unmarshal(raw, &p); err != nil {
				return nil, err
			}
			return p, nil
		},
		check: func(p Params, inputs []Input) []Result {
			typed, ok := p.(P)
			if !ok {
				return nil
			}
			return check(typed, inputs)
		},
	}
}

const emptyObjectSchema = `{"type": "object", "additionalProperties": false}`

func init() {
	register(types.RuleKeyMaxFileSize, `{
		"type": "object",
		"required": ["maxBytes"],
		"properties": {"maxBytes": {"type": "integer", "minimum": 0}}
	}`, checkMaxFileSize)
	register(types.RuleKeyAllowedFileTypes, `{
		"type": "object",
		"required": ["allowedFileTypes"],
		"properties": {
			"allowedFileTypes": {"type": "array", "minItems": 1, "items": {"type": "string", "minLength": 1}}
		}
	}`, checkAllowedFileTypes)
	register(types.RuleKeyWithinTimerange, `{
		"type": "object",
		"required": ["start", "end"],
		"properties": {
			"start": {"type": "string", "minLength": 1},
			"end": {"type": "string", "minLength": 1}
		}
	}`, checkWithinTimerange)
	register(types.RuleKeySameDevice, emptyObjectSchema, checkSameDevice)
	register(types.RuleKeyModified, emptyObjectSchema, checkModified)
	register(types.RuleKeyStrictTimestampOrdering, emptyObjectSchema, checkStrictTimestampOrdering)
}

// ParseConfig builds a Config from its stored representation, rejecting unknown rule keys, bad severities and params
// that do not match the rule's schema.
func ParseConfig(key string, enabled bool, severity string, raw []byte) (Config, error) {
	ruleKey, err := types.ParseRuleKey(key)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	sev := types.Severity(strings.ToLower(strings.TrimSpace(severity)))
	if !sev.Valid() {
		return Config{}, fmt.Errorf("%w: %s: unknown severity %q", ErrInvalidConfig, key, severity)
	}

	params, err := ParseParams(ruleKey, raw)
	if err != nil {
		return Config{}, err
	}

	return Config{Params: params, Severity: sev, Enabled: enabled}, nil
}

// ParseParams decodes and validates the params payload of a rule kind. An empty payload is treated as {}.
func ParseParams(key types.RuleKey, raw []byte) (Params, error) {
	r, ok := registry[key]
	if !ok {
		return nil, fmt.Errorf("%w: unknown rule key %q", ErrInvalidConfig, key)
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = []byte("{}")
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, key, err)
	}
	if err := r.schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, key, err)
	}

	params, err := r.decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, key, err)
	}

	valid := validator.Create()
	if err := valid.Validate(params); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, key, err)
	}

	if v, ok := params.(interface{ validate() error }); ok {
		if err := v.validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, key, err)
		}
	}

	return params, nil
}
