package types

import (
	"encoding/json"
	"fmt"
)

// TransmissionStatus represents the lifecycle state of an outbound data
// movement. Transitions are monotonic along the success path, with a
// failure path reachable from any non-terminal state.
type TransmissionStatus string

const (
	StatusPending     TransmissionStatus = "pending"
	StatusValidated   TransmissionStatus = "validated"
	StatusEncrypted   TransmissionStatus = "encrypted"
	StatusTransmitted TransmissionStatus = "transmitted"
	StatusLogged      TransmissionStatus = "logged"
	StatusFailed      TransmissionStatus = "failed"
)

// statusTransitions is the legal transition table for the success path.
// The failure path is handled separately: failed is reachable from any
// non-terminal state.
var statusTransitions = map[TransmissionStatus]TransmissionStatus{
	StatusPending:     StatusValidated,
	StatusValidated:   StatusEncrypted,
	StatusEncrypted:   StatusTransmitted,
	StatusTransmitted: StatusLogged,
}

// statusOrder assigns each status a position on the success path, used
// to compare how far a record has progressed. Failed sits outside the
// ordering and is handled explicitly.
var statusOrder = map[TransmissionStatus]int{
	StatusPending:     0,
	StatusValidated:   1,
	StatusEncrypted:   2,
	StatusTransmitted: 3,
	StatusLogged:      4,
}

// String returns the string representation of TransmissionStatus
func (s TransmissionStatus) String() string {
	return string(s)
}

// IsValid checks if the TransmissionStatus is a valid value
func (s TransmissionStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusValidated, StatusEncrypted,
		StatusTransmitted, StatusLogged, StatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status admits no further transitions.
func (s TransmissionStatus) IsTerminal() bool {
	return s == StatusLogged || s == StatusFailed
}

// CanTransitionTo reports whether moving from s to next is a legal
// transition. Failure is reachable from any non-terminal state; the
// success path never skips a required predecessor.
func (s TransmissionStatus) CanTransitionTo(next TransmissionStatus) bool {
	if !s.IsValid() || !next.IsValid() {
		return false
	}
	if next == StatusFailed {
		return !s.IsTerminal()
	}
	return statusTransitions[s] == next
}

// AtLeast reports whether s has progressed at least as far as other on
// the success path. A failed record is considered terminal and compares
// at-least-as-advanced against every state.
func (s TransmissionStatus) AtLeast(other TransmissionStatus) bool {
	if s == StatusFailed {
		return true
	}
	si, ok := statusOrder[s]
	if !ok {
		return false
	}
	oi, ok := statusOrder[other]
	if !ok {
		return false
	}
	return si >= oi
}

// MarshalJSON implements json.Marshaler
func (s TransmissionStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// UnmarshalJSON implements json.Unmarshaler
func (s *TransmissionStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	status := TransmissionStatus(str)
	if !status.IsValid() {
		return fmt.Errorf("invalid transmission status: %s", str)
	}

	*s = status
	return nil
}
