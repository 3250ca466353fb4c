package jsonutil

import (
	"encoding/json"
	"fmt"
)

// FlexibleString converts a json.RawMessage to a string, handling remote
// payloads that encode the same field as a string, number or boolean
// depending on the endpoint. Returns empty string for null/empty.
func FlexibleString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return fmt.Sprintf("%d", int64(numVal))
		}
		return fmt.Sprintf("%g", numVal)
	}

	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return fmt.Sprintf("%t", boolVal)
	}

	return string(raw)
}

// FlexibleBool converts a json.RawMessage to a bool. Accepts booleans,
// "true"/"false" strings and 0/1 numbers. Defaults to false.
func FlexibleBool(raw json.RawMessage) bool {
	if len(raw) == 0 || string(raw) == "null" {
		return false
	}

	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return boolVal
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal == "true" || strVal == "1"
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		return numVal != 0
	}

	return false
}

// FlexibleInt converts a json.RawMessage to an int. Accepts numbers and
// numeric strings. Defaults to zero.
func FlexibleInt(raw json.RawMessage) int {
	if len(raw) == 0 || string(raw) == "null" {
		return 0
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		return int(numVal)
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		var n int
		if _, err := fmt.Sscanf(strVal, "%d", &n); err == nil {
			return n
		}
	}

	return 0
}
