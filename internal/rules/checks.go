package rules

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/photomarathon/pipeline/internal/exif"
	"github.com/photomarathon/pipeline/internal/types"
)

// CreateDate and ModifyDate further apart than this signal post capture editing
const ModifiedTolerance = 60 * time.Second

// Lowercase fragments of Software tags written by editing tools
var EditingSoftware = []string{
	"adobe photoshop",
	"photoshop",
	"lightroom",
	"gimp",
	"snapseed",
	"vsco",
	"affinity",
	"capture one",
	"luminar",
	"pixelmator",
	"darktable",
	"rawtherapee",
	"picsart",
	"facetune",
	"canva",
}

func fileResult(in Input, outcome types.Outcome, format string, args ...any) Result {
	name := in.FileName
	return Result{
		FileName:      &name,
		Outcome:       outcome,
		Message:       fmt.Sprintf(format, args...),
		ParticipantID: in.ParticipantID,
	}
}

func participantResult(id uuid.UUID, outcome types.Outcome, format string, args ...any) Result {
	return Result{
		Outcome:       outcome,
		Message:       fmt.Sprintf(format, args...),
		ParticipantID: id,
	}
}

// groups inputs by participant in first appearance order
func byParticipant(inputs []Input) ([]uuid.UUID, map[uuid.UUID][]Input) {
	order := []uuid.UUID{}
	groups := map[uuid.UUID][]Input{}
	for _, in := range inputs {
		if _, ok := groups[in.ParticipantID]; !ok {
			order = append(order, in.ParticipantID)
		}
		groups[in.ParticipantID] = append(groups[in.ParticipantID], in)
	}
	return order, groups
}

func checkMaxFileSize(p MaxFileSizeParams, inputs []Input) []Result {
	results := make([]Result, 0, len(inputs))
	for _, in := range inputs {
		if in.FileSize > p.MaxBytes {
			results = append(results, fileResult(in, types.OutcomeFailed,
				"File size %d bytes exceeds the limit of %d bytes", in.FileSize, p.MaxBytes))
			continue
		}
		results = append(results, fileResult(in, types.OutcomePassed,
			"File size %d bytes is within the limit of %d bytes", in.FileSize, p.MaxBytes))
	}
	return results
}

func checkAllowedFileTypes(p AllowedFileTypesParams, inputs []Input) []Result {
	exts, mimes := allowedSets(p.AllowedFileTypes)
	extList := strings.Join(exts, ", ")
	mimeList := strings.Join(mimes, ", ")

	results := make([]Result, 0, 2*len(inputs))
	for _, in := range inputs {
		ext := Extension(in.FileName)
		switch {
		case ext == "":
			results = append(results, fileResult(in, types.OutcomeFailed,
				"File has no extension, allowed: %s", extList))
		case slices.Contains(exts, ext):
			results = append(results, fileResult(in, types.OutcomePassed,
				"File extension .%s is allowed", ext))
		default:
			results = append(results, fileResult(in, types.OutcomeFailed,
				"File extension .%s is not allowed, allowed: %s", ext, extList))
		}

		mime := normalizeMimeType(in.MimeType)
		switch {
		case mime == "":
			results = append(results, fileResult(in, types.OutcomeFailed,
				"MIME type is unknown, allowed: %s", mimeList))
		case slices.Contains(mimes, mime):
			results = append(results, fileResult(in, types.OutcomePassed,
				"MIME type %s is allowed", mime))
		default:
			results = append(results, fileResult(in, types.OutcomeFailed,
				"MIME type %s is not allowed, allowed: %s", mime, mimeList))
		}
	}
	return results
}

func (p WithinTimerangeParams) window() (time.Time, time.Time, error) {
	start, err := exif.ParseTimestamp(p.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start: %w", err)
	}
	end, err := exif.ParseTimestamp(p.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end: %w", err)
	}
	// a bare end date covers that whole day
	if exif.IsDateOnly(p.End) {
		end = end.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return start, end, nil
}

func checkWithinTimerange(p WithinTimerangeParams, inputs []Input) []Result {
	results := make([]Result, 0, len(inputs))

	start, end, windowErr := p.window()

	for _, in := range inputs {
		raw, field, ok := in.Exif.CaptureTime()
		if !ok {
			results = append(results, fileResult(in, types.OutcomeSkipped,
				"No capture timestamp found in EXIF"))
			continue
		}

		if windowErr != nil {
			results = append(results, fileResult(in, types.OutcomeFailed,
				"Allowed time window %q to %q could not be parsed", p.Start, p.End))
			continue
		}

		taken, err := exif.ParseTimestamp(raw)
		if err != nil {
			results = append(results, fileResult(in, types.OutcomeFailed,
				"Capture timestamp %q in %s could not be parsed", raw, field))
			continue
		}

		window := fmt.Sprintf("%s to %s",
			start.Format(exif.TimestampLayout), end.Format(exif.TimestampLayout))
		if taken.Before(start) || taken.After(end) {
			results = append(results, fileResult(in, types.OutcomeFailed,
				"Photo taken at %s is outside the allowed window %s",
				taken.Format(exif.TimestampLayout), window))
			continue
		}

		results = append(results, fileResult(in, types.OutcomePassed,
			"Photo taken at %s is within the allowed window %s",
			taken.Format(exif.TimestampLayout), window))
	}
	return results
}

func checkSameDevice(_ SameDeviceParams, inputs []Input) []Result {
	order, groups := byParticipant(inputs)

	results := make([]Result, 0, len(order))
	for _, id := range order {
		seen := map[string]bool{}
		devices := []string{}
		for _, in := range groups[id] {
			device, ok := in.Exif.Device()
			if !ok || seen[device] {
				continue
			}
			seen[device] = true
			devices = append(devices, device)
		}
		sort.Strings(devices)

		switch len(devices) {
		case 0:
			results = append(results, participantResult(id, types.OutcomeSkipped,
				"No device information found in EXIF"))
		case 1:
			results = append(results, participantResult(id, types.OutcomePassed,
				"All photos were taken with %s", devices[0]))
		default:
			results = append(results, participantResult(id, types.OutcomeFailed,
				"Photos were taken with multiple devices: %s", strings.Join(devices, ", ")))
		}
	}
	return results
}

func editingSoftware(software string) (string, bool) {
	lower := strings.ToLower(software)
	for _, sig := range EditingSoftware {
		if strings.Contains(lower, sig) {
			return sig, true
		}
	}
	return "", false
}

func checkModified(_ ModifiedParams, inputs []Input) []Result {
	results := make([]Result, 0, len(inputs))
	for _, in := range inputs {
		if in.Exif.Empty() {
			results = append(results, fileResult(in, types.OutcomeSkipped, "No EXIF data available"))
			continue
		}

		if software, ok := in.Exif.Lookup(exif.FieldSoftware); ok {
			if _, edited := editingSoftware(software); edited {
				results = append(results, fileResult(in, types.OutcomeFailed,
					"Editing software detected: %s", software))
				continue
			}
		}

		created, hasCreated := in.Exif.Lookup(exif.FieldCreateDate)
		modified, hasModified := in.Exif.Lookup(exif.FieldModifyDate)
		if hasCreated && hasModified {
			createdAt, cerr := exif.ParseTimestamp(created)
			modifiedAt, merr := exif.ParseTimestamp(modified)
			if cerr == nil && merr == nil {
				diff := modifiedAt.Sub(createdAt)
				if diff < 0 {
					diff = -diff
				}
				if diff > ModifiedTolerance {
					results = append(results, fileResult(in, types.OutcomeFailed,
						"Modify date %s differs from create date %s by %s",
						modifiedAt.Format(exif.TimestampLayout),
						createdAt.Format(exif.TimestampLayout),
						diff))
					continue
				}
			}
		}

		results = append(results, fileResult(in, types.OutcomePassed, "No signs of editing detected"))
	}
	return results
}

func checkStrictTimestampOrdering(_ StrictTimestampOrderingParams, inputs []Input) []Result {
	order, groups := byParticipant(inputs)

	type stamped struct {
		in    Input
		taken time.Time
	}

	results := make([]Result, 0, len(order))
	for _, id := range order {
		group := slices.Clone(groups[id])
		slices.SortStableFunc(group, func(a, b Input) int { return a.OrderIndex - b.OrderIndex })

		var (
			timeline []stamped
			failure  *Result
		)
		for _, in := range group {
			raw, _, ok := in.Exif.CaptureTime()
			if !ok {
				continue
			}
			taken, err := exif.ParseTimestamp(raw)
			if err != nil {
				r := participantResult(id, types.OutcomeFailed,
					"Capture timestamp %q of %s could not be parsed", raw, in.FileName)
				failure = &r
				break
			}
			timeline = append(timeline, stamped{in: in, taken: taken})
		}

		if failure != nil {
			results = append(results, *failure)
			continue
		}

		if len(timeline) < 2 {
			results = append(results, participantResult(id, types.OutcomeSkipped,
				"Fewer than two photos carry a capture timestamp"))
			continue
		}

		for i := 1; i < len(timeline); i++ {
			prev, cur := timeline[i-1], timeline[i]
			if cur.taken.Before(prev.taken) {
				r := participantResult(id, types.OutcomeFailed,
					"Photo %s (#%d) taken at %s precedes photo %s (#%d) taken at %s",
					cur.in.FileName, cur.in.OrderIndex, cur.taken.Format(exif.TimestampLayout),
					prev.in.FileName, prev.in.OrderIndex, prev.taken.Format(exif.TimestampLayout))
				failure = &r
				break
			}
		}

		if failure != nil {
			results = append(results, *failure)
			continue
		}

		results = append(results, participantResult(id, types.OutcomePassed,
			"Capture timestamps follow submission order"))
	}
	return results
}
