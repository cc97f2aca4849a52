package cmds

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/photomarathon/pipeline/internal/exif"
	"github.com/photomarathon/pipeline/internal/rules"
	"github.com/photomarathon/pipeline/internal/types"
	workererrors "github.com/photomarathon/pipeline/internal/worker_errors"
)

// ruleFileEntry is one rule of a marathon policy file, e.g.
//
//	- rule_key: max_file_size
//	  severity: error
//	  enabled: true
//	  params:
//	    maxBytes: 10485760
type ruleFileEntry struct {
	Params   map[string]any `yaml:"params"`
	RuleKey  string         `yaml:"rule_key"`
	Severity string         `yaml:"severity"`
	Enabled  *bool          `yaml:"enabled"`
}

type ruleCheckReport struct {
	Rules   []string       `json:"rules"`
	Results []rules.Result `json:"results,omitempty"`
	Errors  []string       `json:"errors,omitempty"`
}

// yaml.v2 decodes nested maps with interface keys which encoding/json refuses
func jsonCompatible(v any) any {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = jsonCompatible(val)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = jsonCompatible(val)
		}
		return out
	case []interface{}:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = jsonCompatible(val)
		}
		return out
	default:
		return v
	}
}

func loadRuleFile(path string) ([]rules.Config, []error, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- operator supplied path
	if err != nil {
		return nil, nil, err
	}

	var entries []ruleFileEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}

	configs := make([]rules.Config, 0, len(entries))
	var invalid []error
	for i, entry := range entries {
		params, err := json.Marshal(jsonCompatible(entry.Params))
		if err != nil {
			invalid = append(invalid, fmt.Errorf("rule %d: %w", i, err))
			continue
		}

		enabled := entry.Enabled == nil || *entry.Enabled
		c, err := rules.ParseConfig(entry.RuleKey, enabled, entry.Severity, params)
		if err != nil {
			invalid = append(invalid, fmt.Errorf("rule %d: %w", i, err))
			continue
		}
		configs = append(configs, c)
	}

	return configs, invalid, nil
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Work with marathon rule policies",
}

var rulesPhotos []string

var rulesCheckCmd = &cobra.Command{
	Use:   "check <policy.yaml>",
	Short: "Validate a rule policy file and optionally run it against local photos",
	Long: `
Parses every rule of the policy file and prints a JSON report on stdout.
Photos given with --photo are run through the rules in flag order, as one participant.
- Exits with 0 if every rule is valid.
- Exits with 3 if the file or any rule is invalid.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, span := tracer.Start(cmd.Context(), "rulesCheckCmd")
		defer span.End()

		configs, invalid, err := loadRuleFile(args[0])
		if err != nil {
			return workererrors.ExitErrorWrap(types.ExitInvalidInput, err)
		}

		report := ruleCheckReport{Rules: make([]string, 0, len(configs))}
		for _, c := range configs {
			report.Rules = append(report.Rules, string(c.Key()))
		}
		for _, e := range invalid {
			report.Errors = append(report.Errors, e.Error())
		}

		if len(rulesPhotos) > 0 {
			participantID := uuid.New()
			inputs := make([]rules.Input, 0, len(rulesPhotos))
			for i, path := range rulesPhotos {
				body, err := os.ReadFile(path) // #nosec G304 -- operator supplied path
				if err != nil {
					return workererrors.ExitErrorWrap(types.ExitInvalidInput, err)
				}

				data, err := exif.ExtractBytes(ctx, body)
				if err != nil && !errors.Is(err, exif.ErrNoExif) {
					report.Errors = append(report.Errors, fmt.Sprintf("%s: %s", path, err))
				}

				inputs = append(inputs, rules.Input{
					Exif:          data,
					FileName:      filepath.Base(path),
					MimeType:      mimetype.Detect(body).String(),
					FileSize:      int64(len(body)),
					OrderIndex:    i,
					ParticipantID: participantID,
				})
			}
			report.Results = rules.Run(configs, inputs)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return workererrors.ExitErrorWrap(types.ExitErrored, err)
		}

		if len(invalid) > 0 {
			return workererrors.ExitErrorWrap(types.ExitInvalidInput, errors.Join(invalid...))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesCheckCmd)

	rulesCheckCmd.Flags().StringArrayVar(&rulesPhotos, "photo", nil, "Local photo to check, repeatable")
}
