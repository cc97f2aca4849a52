package common

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/photomarathon/pipeline/internal/types"
)

func TestStrings(t *testing.T) {
	keys := []types.RuleKey{types.RuleKeyMaxFileSize, types.RuleKeyModified}
	assert.Equal(t, []string{"max_file_size", "modified"}, Strings(keys))
	assert.Empty(t, Strings([]types.RuleKey{}))
}
