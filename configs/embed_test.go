package configs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValidJSON(t *testing.T) {
	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(DefaultConfig(), &raw))
	assert.Contains(t, raw, "prover")
	assert.Contains(t, raw, "txstore")

	// 返回副本，调用方修改不影响模板
	b := DefaultConfig()
	b[0] = 'x'
	assert.Equal(t, byte('{'), DefaultConfig()[0])
}
