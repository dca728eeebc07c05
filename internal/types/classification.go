package types

import (
	"encoding/json"
	"fmt"
)

// DataClassification represents the sensitivity label governing whether
// data may leave the origin network. The enumeration is closed: any value
// outside the four constants below is invalid and must fail closed.
type DataClassification string

const (
	ClassificationPublic       DataClassification = "PUBLIC"
	ClassificationSensitive    DataClassification = "SENSITIVE"
	ClassificationConfidential DataClassification = "CONFIDENTIAL"
	ClassificationSovereign    DataClassification = "SOVEREIGN"
)

// String returns the string representation of DataClassification
func (c DataClassification) String() string {
	return string(c)
}

// IsValid checks if the DataClassification is a valid value
func (c DataClassification) IsValid() bool {
	switch c {
	case ClassificationPublic, ClassificationSensitive,
		ClassificationConfidential, ClassificationSovereign:
		return true
	default:
		return false
	}
}

// MarshalJSON implements json.Marshaler
func (c DataClassification) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(c))
}

// UnmarshalJSON implements json.Unmarshaler
func (c *DataClassification) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	classification := DataClassification(str)
	if !classification.IsValid() {
		return fmt.Errorf("invalid data classification: %s", str)
	}

	*c = classification
	return nil
}
