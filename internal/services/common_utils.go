package services

import (
	"encoding/json"

	"linkhub/integrator/internal/logging"
)

// decodeCached copies a cached value into dst. The in-process cache returns
// the stored Go value; Redis returns generic JSON that is re-decoded.
func decodeCached[T any](val any, dst *T) bool {
	switch v := val.(type) {
	case T:
		*dst = v
		return true
	case *T:
		if v == nil {
			return false
		}
		*dst = *v
		return true
	}

	data, err := json.Marshal(val)
	if err != nil {
		logging.Warn("Cached value not encodable", "error", err.Error())
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		logging.Warn("Cached value not decodable", "error", err.Error())
		return false
	}
	return true
}
