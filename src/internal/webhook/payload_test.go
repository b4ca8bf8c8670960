package webhook

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternMatches(t *testing.T) {
	tests := []struct {
		name      string
		pattern   string
		eventType string
		want      bool
	}{
		{"exact match", "invoice.created", "invoice.created", true},
		{"exact mismatch", "invoice.created", "invoice.updated", false},
		{"universal wildcard", "*", "anything.at.all", true},
		{"prefix wildcard matches child", "quotation.*", "quotation.created", true},
		{"prefix wildcard matches nested", "quotation.*", "quotation.email.sent", true},
		{"prefix wildcard rejects other family", "quotation.*", "invoice.created", false},
		{"prefix wildcard rejects empty", "quotation.*", "", false},
		{"plain pattern is not a prefix", "quotation", "quotation.created", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PatternMatches(tt.pattern, tt.eventType))
		})
	}
}

func TestPayloadSign(t *testing.T) {
	t.Run("Deterministic", func(t *testing.T) {
		a := NewPayload("quotation.created", "ABC123", map[string]interface{}{"quotationId": 7})
		b := NewPayload("quotation.created", "ABC123", map[string]interface{}{"quotationId": 7})
		b.Timestamp = a.Timestamp

		require.NoError(t, a.Sign("secret"))
		require.NoError(t, b.Sign("secret"))
		assert.Equal(t, a.Signature, b.Signature)
	})

	t.Run("ChangesWithPayload", func(t *testing.T) {
		a := NewPayload("quotation.created", "ABC123", map[string]interface{}{"quotationId": 7})
		b := NewPayload("quotation.created", "ABC123", map[string]interface{}{"quotationId": 8})
		b.Timestamp = a.Timestamp

		require.NoError(t, a.Sign("secret"))
		require.NoError(t, b.Sign("secret"))
		assert.NotEqual(t, a.Signature, b.Signature)
	})

	t.Run("ChangesWithSecret", func(t *testing.T) {
		a := NewPayload("quotation.created", "ABC123", nil)
		b := NewPayload("quotation.created", "ABC123", nil)
		b.Timestamp = a.Timestamp

		require.NoError(t, a.Sign("secret-one"))
		require.NoError(t, b.Sign("secret-two"))
		assert.NotEqual(t, a.Signature, b.Signature)
	})

	t.Run("VerifiesAgainstUnsignedBytes", func(t *testing.T) {
		p := NewPayload("invoice.created", "ABC123", map[string]interface{}{"invoiceId": 42})
		require.NoError(t, p.Sign("secret"))

		signature := p.Signature
		p.Signature = ""
		unsigned, err := json.Marshal(p)
		require.NoError(t, err)

		assert.True(t, VerifySignature(unsigned, "secret", signature))
		assert.False(t, VerifySignature(unsigned, "wrong", signature))
	})

	t.Run("WireFormat", func(t *testing.T) {
		p := NewPayload("invoice.created", "ABC123", map[string]interface{}{"invoiceId": 42})
		require.NoError(t, p.Sign("secret"))

		encoded, err := p.Encode()
		require.NoError(t, err)

		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(encoded, &decoded))
		assert.Equal(t, "invoice.created", decoded["eventType"])
		assert.Equal(t, "ABC123", decoded["clientCode"])
		assert.NotEmpty(t, decoded["timestamp"])
		assert.NotEmpty(t, decoded["signature"])
		assert.Contains(t, string(encoded), `"invoiceId":42`)
	})

	t.Run("SignatureOmittedWithoutSecret", func(t *testing.T) {
		p := NewPayload("invoice.created", "ABC123", nil)
		encoded, err := p.Encode()
		require.NoError(t, err)
		assert.NotContains(t, string(encoded), "signature")
	})
}
