package keys

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

var ErrInvalidKeyFormat = errors.New("invalid key format")

type Category string

const (
	CategoryOriginal  Category = "original"
	CategoryThumbnail Category = "thumbnail"
	CategoryPreview   Category = "preview"
)

func (c Category) valid() bool {
	return c == CategoryOriginal || c == CategoryThumbnail || c == CategoryPreview
}

const segments = 5

// Key addresses one object: {domain}/{category}/{participantRef}/{orderIndex}/{fileName}
type Key struct {
	Domain         string
	Category       Category
	FileName       string
	ParticipantRef int
	OrderIndex     int
}

func pad(n int) string {
	return fmt.Sprintf("%02d", n)
}

// Generate builds the original key for a participant's photo. The file name is derived from the reference and order
// index so the same inputs always produce the same key.
func Generate(domain string, participantRef, orderIndex int, ext string) Key {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	return Key{
		Domain:         domain,
		Category:       CategoryOriginal,
		ParticipantRef: participantRef,
		OrderIndex:     orderIndex,
		FileName:       fmt.Sprintf("%s_%s.%s", pad(participantRef), pad(orderIndex), ext),
	}
}

func (k Key) String() string {
	return strings.Join([]string{
		k.Domain,
		string(k.Category),
		pad(k.ParticipantRef),
		pad(k.OrderIndex),
		k.FileName,
	}, "/")
}

// Reference is the zero padded participant reference as written in the key
func (k Key) Reference() string {
	return pad(k.ParticipantRef)
}

// Variant derives the key of a variant of the same photo. The original file name is kept behind a category prefix,
// e.g. 07_03.jpg becomes thumbnail_07_03.jpg.
func (k Key) Variant(category Category) Key {
	v := k
	v.Category = category
	if category != CategoryOriginal {
		v.FileName = string(category) + "_" + k.OriginalFileName()
	} else {
		v.FileName = k.OriginalFileName()
	}
	return v
}

// OriginalFileName strips a variant prefix from the file name
func (k Key) OriginalFileName() string {
	if k.Category == CategoryOriginal {
		return k.FileName
	}
	return strings.TrimPrefix(k.FileName, string(k.Category)+"_")
}

func parseIndex(s string) (int, bool) {
	if len(s) < 2 {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Parse is the strict inverse of Key.String. Anything that is not exactly five non empty segments with a known
// category and numeric, zero padded indices is rejected with ErrInvalidKeyFormat.
func Parse(s string) (Key, error) {
	parts := strings.Split(s, "/")
	if len(parts) != segments {
		return Key{}, fmt.Errorf("%w: %q: expected %d segments, got %d", ErrInvalidKeyFormat, s, segments, len(parts))
	}

	for i, p := range parts {
		if p == "" {
			return Key{}, fmt.Errorf("%w: %q: empty segment %d", ErrInvalidKeyFormat, s, i)
		}
	}

	category := Category(parts[1])
	if !category.valid() {
		return Key{}, fmt.Errorf("%w: %q: unknown category %q", ErrInvalidKeyFormat, s, parts[1])
	}

	ref, ok := parseIndex(parts[2])
	if !ok {
		return Key{}, fmt.Errorf("%w: %q: bad participant reference %q", ErrInvalidKeyFormat, s, parts[2])
	}

	idx, ok := parseIndex(parts[3])
	if !ok {
		return Key{}, fmt.Errorf("%w: %q: bad order index %q", ErrInvalidKeyFormat, s, parts[3])
	}

	// indices must round trip to the same text
	if pad(ref) != parts[2] || pad(idx) != parts[3] {
		return Key{}, fmt.Errorf("%w: %q: indices are not canonically padded", ErrInvalidKeyFormat, s)
	}

	return Key{
		Domain:         parts[0],
		Category:       category,
		ParticipantRef: ref,
		OrderIndex:     idx,
		FileName:       parts[4],
	}, nil
}

// FromEventKey parses a key as delivered in object store notifications, where keys are URL encoded.
func FromEventKey(raw string) (Key, error) {
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return Key{}, fmt.Errorf("%w: %q: %w", ErrInvalidKeyFormat, raw, err)
	}
	return Parse(decoded)
}
