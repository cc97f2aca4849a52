package exif

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	goexif "github.com/rwcarlsen/goexif/exif"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/photomarathon/pipeline/internal/exif")

// Returned by Extract when the image carries no EXIF block at all
var ErrNoExif = errors.New("no exif block")

type Field string

const (
	FieldMake              Field = "Make"
	FieldModel             Field = "Model"
	FieldLensModel         Field = "LensModel"
	FieldSoftware          Field = "Software"
	FieldDateTimeOriginal  Field = "DateTimeOriginal"
	FieldDateTimeDigitized Field = "DateTimeDigitized"
	FieldCreateDate        Field = "CreateDate"
	FieldModifyDate        Field = "ModifyDate"
)

// Capture timestamp fields in resolution order
var CaptureTimeFields = []Field{
	FieldDateTimeOriginal,
	FieldDateTimeDigitized,
	FieldCreateDate,
}

// Subset of EXIF the rules read. Empty strings mean the field is absent, use Lookup rather than reading fields
// directly.
type Data struct {
	Make              string `json:"Make,omitempty"`
	Model             string `json:"Model,omitempty"`
	LensModel         string `json:"LensModel,omitempty"`
	Software          string `json:"Software,omitempty"`
	DateTimeOriginal  string `json:"DateTimeOriginal,omitempty"`
	DateTimeDigitized string `json:"DateTimeDigitized,omitempty"`
	CreateDate        string `json:"CreateDate,omitempty"`
	ModifyDate        string `json:"ModifyDate,omitempty"`
}

// Lookup returns the trimmed value of a field and whether it is present. Safe on a nil receiver.
func (d *Data) Lookup(f Field) (string, bool) {
	if d == nil {
		return "", false
	}

	var v string
	switch f {
	case FieldMake:
		v = d.Make
	case FieldModel:
		v = d.Model
	case FieldLensModel:
		v = d.LensModel
	case FieldSoftware:
		v = d.Software
	case FieldDateTimeOriginal:
		v = d.DateTimeOriginal
	case FieldDateTimeDigitized:
		v = d.DateTimeDigitized
	case FieldCreateDate:
		v = d.CreateDate
	case FieldModifyDate:
		v = d.ModifyDate
	}

	v = strings.TrimSpace(v)
	return v, v != ""
}

// CaptureTime resolves the raw capture timestamp by priority, reporting which field it came from.
func (d *Data) CaptureTime() (string, Field, bool) {
	for _, f := range CaptureTimeFields {
		if v, ok := d.Lookup(f); ok {
			return v, f, true
		}
	}

	return "", "", false
}

// Device is "Make Model" with whichever parts are present.
func (d *Data) Device() (string, bool) {
	mk, hasMake := d.Lookup(FieldMake)
	model, hasModel := d.Lookup(FieldModel)

	switch {
	case hasMake && hasModel:
		return mk + " " + model, true
	case hasModel:
		return model, true
	case hasMake:
		return mk, true
	default:
		return "", false
	}
}

// Empty reports whether no field at all is present
func (d *Data) Empty() bool {
	if d == nil {
		return true
	}
	return *d == Data{}
}

var layouts = []string{
	"2006:01:02 15:04:05",
	"2006:01:02 15:04:05-07:00",
	"2006:01:02 15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15:04Z07:00",
	time.DateOnly,
	"2006:01:02",
}

// Display layout for timestamps in rule messages
const TimestampLayout = "2006-01-02T15:04:05"

// ParseTimestamp parses EXIF and ISO 8601 timestamps as naive wall clock time. Any zone or offset is dropped, the
// returned time is the written wall clock in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}

		return time.Date(
			t.Year(), t.Month(), t.Day(),
			t.Hour(), t.Minute(), t.Second(), t.Nanosecond(),
			time.UTC,
		), nil
	}

	return time.Time{}, fmt.Errorf("unparseable timestamp: %q", s)
}

// IsDateOnly reports whether s names a calendar day with no time of day
func IsDateOnly(s string) bool {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.DateOnly, "2006:01:02"} {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

var tagFields = []struct {
	name  goexif.FieldName
	apply func(*Data, string)
}{
	{goexif.Make, func(d *Data, v string) { d.Make = v }},
	{goexif.Model, func(d *Data, v string) { d.Model = v }},
	{goexif.LensModel, func(d *Data, v string) { d.LensModel = v }},
	{goexif.Software, func(d *Data, v string) { d.Software = v }},
	{goexif.DateTimeOriginal, func(d *Data, v string) { d.DateTimeOriginal = v }},
	// 0x9004 is reported both as DateTimeDigitized and CreateDate
	{goexif.DateTimeDigitized, func(d *Data, v string) {
		d.DateTimeDigitized = v
		d.CreateDate = v
	}},
	{goexif.DateTime, func(d *Data, v string) { d.ModifyDate = v }},
}

// Extract decodes the EXIF block of a JPEG or TIFF image.
//
// Returns ErrNoExif when the image has no EXIF block. A block carrying none of the known fields is still returned as
// an empty Data.
func Extract(ctx context.Context, r io.Reader) (*Data, error) {
	_, span := tracer.Start(ctx, "Extract")
	defer span.End()

	x, err := goexif.Decode(r)
	if x == nil {
		if err != nil {
			err = fmt.Errorf("%w: %w", ErrNoExif, err)
		} else {
			err = ErrNoExif
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "no exif block")
		return nil, err
	}
	if err != nil && goexif.IsCriticalError(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode exif")
		return nil, fmt.Errorf("%w: %w", ErrNoExif, err)
	}

	data := &Data{}
	for _, f := range tagFields {
		tag, err := x.Get(f.name)
		if err != nil {
			continue
		}

		v, err := tag.StringVal()
		if err != nil {
			continue
		}

		v = strings.TrimSpace(strings.Trim(v, "\x00"))
		if v != "" {
			f.apply(data, v)
		}
	}

	span.AddEvent("extracted", trace.WithAttributes(
		attribute.String("make", data.Make),
		attribute.String("model", data.Model),
		attribute.String("software", data.Software),
	))

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "extracted exif")
	return data, nil
}

// ExtractBytes is Extract over an in memory image
func ExtractBytes(ctx context.Context, b []byte) (*Data, error) {
	return Extract(ctx, bytes.NewReader(b))
}
