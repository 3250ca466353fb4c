package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/apperrors"
	"github.com/AgileSoftDev-2025/Story-Canvas-web-sub002/pkg/jsonutil"
)

// encodeSnake converts a local (camelCase) value into the remote snake_case
// representation, recursing through nested objects and ordered lists.
func encodeSnake(v interface{}) (interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: encode outbound record: %v", apperrors.ErrValidation, err)
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("%w: encode outbound record: %v", apperrors.ErrValidation, err)
	}
	return jsonutil.KeysToSnake(generic), nil
}

// decodeCamel converts raw remote (snake_case) JSON into out, translating
// every key to camelCase on the way in.
func decodeCamel(raw json.RawMessage, out interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("%w: malformed remote payload: %v", apperrors.ErrValidation, err)
	}
	local, err := json.Marshal(jsonutil.KeysToCamel(generic))
	if err != nil {
		return fmt.Errorf("%w: translate remote payload: %v", apperrors.ErrValidation, err)
	}
	if err := json.Unmarshal(local, out); err != nil {
		return fmt.Errorf("%w: decode remote payload: %v", apperrors.ErrValidation, err)
	}
	return nil
}
