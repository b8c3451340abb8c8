package idempotency

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateKey(t *testing.T) {
	g := NewGenerator()
	params := map[string]interface{}{
		"contract_id":   "ctr_1",
		"contractor_id": "ctrr_1",
		"provider":      "native",
		"nonce":         "abc",
	}

	key := g.GenerateKey(ScopeSignatureRecord, params)
	assert.True(t, strings.HasPrefix(key, "signature-"))
	assert.LessOrEqual(t, len(key), 64)
	assert.Equal(t, key, g.GenerateKey(ScopeSignatureRecord, map[string]interface{}{
		"nonce":         "abc",
		"provider":      "native",
		"contractor_id": "ctrr_1",
		"contract_id":   "ctr_1",
	}))
	assert.True(t, g.ValidateKey(ScopeSignatureRecord, params, key))

	params["nonce"] = "def"
	assert.NotEqual(t, key, g.GenerateKey(ScopeSignatureRecord, params))
	assert.NotEqual(t, key, g.GenerateKey(ScopeProviderEvent, params))
}
