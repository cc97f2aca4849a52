package keys_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photomarathon/pipeline/internal/keys"
)

func TestGenerate(t *testing.T) {
	k := keys.Generate("summer-2023", 7, 3, ".JPG")

	assert.Equal(t, "summer-2023/original/07/03/07_03.jpg", k.String())
	assert.Equal(t, "07", k.Reference())
}

func TestRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		domain string
		ref    int
		idx    int
	}{
		{"summer-2023", 0, 0},
		{"summer-2023", 7, 3},
		{"city.example.org", 42, 24},
		{"x", 123, 99},
	} {
		generated := keys.Generate(tc.domain, tc.ref, tc.idx, "jpg")

		parsed, err := keys.Parse(generated.String())
		require.NoError(t, err, "failed to parse %s", generated)

		assert.Equal(t, generated, parsed, "key should round trip")
		assert.Equal(t, tc.domain, parsed.Domain)
		assert.Equal(t, tc.ref, parsed.ParticipantRef)
		assert.Equal(t, tc.idx, parsed.OrderIndex)
	}
}

func TestParseRejects(t *testing.T) {
	for _, s := range []string{
		"",
		"summer-2023",
		"summer-2023/original/07/03",
		"summer-2023/original/07/03/07_03.jpg/extra",
		"/original/07/03/07_03.jpg",
		"summer-2023/raw/07/03/07_03.jpg",
		"summer-2023/original/7/03/07_03.jpg",
		"summer-2023/original/ab/03/07_03.jpg",
		"summer-2023/original/07/-3/07_03.jpg",
		"summer-2023/original/007/03/07_03.jpg",
		"summer-2023/original/07/03/",
	} {
		t.Run(s, func(t *testing.T) {
			k, err := keys.Parse(s)
			require.ErrorIs(t, err, keys.ErrInvalidKeyFormat)
			assert.Equal(t, keys.Key{}, k, "should not return a partial key")
		})
	}
}

func TestVariant(t *testing.T) {
	original := keys.Generate("summer-2023", 7, 3, "jpg")

	thumb := original.Variant(keys.CategoryThumbnail)
	preview := original.Variant(keys.CategoryPreview)

	assert.Equal(t, "summer-2023/thumbnail/07/03/thumbnail_07_03.jpg", thumb.String())
	assert.Equal(t, "summer-2023/preview/07/03/preview_07_03.jpg", preview.String())

	t.Run("MutuallyDerivable", func(t *testing.T) {
		parsed, err := keys.Parse(thumb.String())
		require.NoError(t, err)

		assert.Equal(t, original, parsed.Variant(keys.CategoryOriginal))
		assert.Equal(t, preview, parsed.Variant(keys.CategoryPreview))
	})
}

func TestFromEventKey(t *testing.T) {
	k, err := keys.FromEventKey("my+marathon/original/07/03/07_03.jpg")
	require.NoError(t, err)
	assert.Equal(t, "my marathon", k.Domain)

	_, err = keys.FromEventKey("summer%2/original/07/03/07_03.jpg")
	require.ErrorIs(t, err, keys.ErrInvalidKeyFormat)
}
