package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Payload is the wire structure POSTed to subscriber URLs. The signature,
// when present, is computed over the JSON serialization of the payload
// without the signature field, then embedded and re-serialized. The stored
// payload therefore includes the signature, so retries replay bytes
// identical to the original attempt.
type Payload struct {
	EventType  string      `json:"eventType"`
	ClientCode string      `json:"clientCode"`
	Timestamp  time.Time   `json:"timestamp"`
	Data       interface{} `json:"data"`
	Signature  string      `json:"signature,omitempty"`
}

// NewPayload builds a wire payload for an event
func NewPayload(eventType, clientCode string, data interface{}) *Payload {
	return &Payload{
		EventType:  eventType,
		ClientCode: clientCode,
		Timestamp:  time.Now().UTC(),
		Data:       data,
	}
}

// Sign computes the HMAC-SHA256 signature over the serialized payload and
// embeds it. Must be called before Encode when the target has a secret.
func (p *Payload) Sign(secret string) error {
	p.Signature = ""
	unsigned, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for signing: %w", err)
	}
	p.Signature = ComputeSignature(unsigned, secret)
	return nil
}

// Encode serializes the payload, including the signature if set
func (p *Payload) Encode() ([]byte, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return b, nil
}

// ComputeSignature returns the base64 HMAC-SHA256 of the given bytes
func ComputeSignature(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a signature against payload bytes in constant time
func VerifySignature(payload []byte, secret, signature string) bool {
	expected := ComputeSignature(payload, secret)
	return hmac.Equal([]byte(signature), []byte(expected))
}

// PatternMatches reports whether a subscription pattern matches an event
// type. A pattern matches when it equals the event type exactly, is the
// universal wildcard "*", or ends with ".*" and the event type starts with
// the pattern's prefix (the pattern minus the trailing ".*").
func PatternMatches(pattern, eventType string) bool {
	if pattern == eventType {
		return true
	}
	if pattern == "*" {
		return true
	}
	if strings.HasSuffix(pattern, ".*") {
		prefix := strings.TrimSuffix(pattern, ".*")
		return strings.HasPrefix(eventType, prefix)
	}
	return false
}
