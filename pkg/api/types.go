package api

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Bind   string
	Port   int
	APIKey string
}

// Addr returns the listen address
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}

// Word is a 32-bit value accepted as a JSON number or a "0x" hex string and
// rendered as hex
type Word uint32

// MarshalJSON implements json.Marshaler
func (w Word) MarshalJSON() ([]byte, error) {
	return json.Marshal(fmt.Sprintf("0x%08X", uint32(w)))
}

// UnmarshalJSON implements json.Unmarshaler
func (w *Word) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		s = string(data)
	}
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return fmt.Errorf("invalid word %s: %w", data, err)
	}
	*w = Word(v)
	return nil
}

// StepRequest is the body of PUT /record/steps/{step}
type StepRequest struct {
	Value *Word `json:"value"`
}

// RecordResponse describes the record as read from flash
type RecordResponse struct {
	BaseAddress Word   `json:"base_address"`
	Data        []Word `json:"data"`
	Checksum    Word   `json:"checksum"`
	Computed    Word   `json:"computed"`
	Valid       bool   `json:"valid"`
	State       string `json:"state"`
	NextStep    *int   `json:"next_step,omitempty"`
	Result      string `json:"result"`
	Raw         string `json:"raw"`
}

// OperationResponse reports the outcome of an erase or step write
type OperationResponse struct {
	Result string `json:"result"`
	State  string `json:"state,omitempty"`
}
