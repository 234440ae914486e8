// Package processing turns validated requests into upstream calls and
// shapes the upstream answers into response payloads.
package processing

import (
	"bytes"
	"encoding/json"
	"strings"
)

// TriageRequest is the body accepted by the triage endpoint.
type TriageRequest struct {
	Symptoms Text `json:"symptoms" validate:"required"`
	Age      Text `json:"age" validate:"required"`
	History  Text `json:"history"`
}

// Normalize trims surrounding whitespace from every field.
func (r *TriageRequest) Normalize() {
	r.Symptoms = Text(strings.TrimSpace(string(r.Symptoms)))
	r.Age = Text(strings.TrimSpace(string(r.Age)))
	r.History = Text(strings.TrimSpace(string(r.History)))
}

// TriageResponse wraps the model reply.
type TriageResponse struct {
	TriageResult string `json:"triage_result"`
}

// Hospital is one entry of the hospital lookup response. Coordinates are
// rendered as null when unknown.
type Hospital struct {
	Name      string   `json:"name"`
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// HospitalsResponse is the hospital lookup response body.
type HospitalsResponse struct {
	Hospitals []Hospital `json:"hospitals"`
}

// Text is a string field that also accepts JSON numbers, so {"age": 45}
// and {"age": "45"} decode the same way. null decodes as empty.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*t = Text(n.String())
	return nil
}
