package patch

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/jsonc"
)

// Parse decodes a patch. It accepts either a bare array of operations or an
// object with a "patch" array, and tolerates comments and trailing commas.
// Unknown operations are kept; Apply reports them as skipped.
func Parse(data []byte) ([]Operation, error) {
	stripped := jsonc.ToJSON(data)

	var ops []Operation
	if err := json.Unmarshal(stripped, &ops); err == nil {
		return ops, nil
	}

	var wrapped struct {
		Patch []Operation `json:"patch"`
	}
	if err := json.Unmarshal(stripped, &wrapped); err != nil {
		return nil, fmt.Errorf("parsing patch: %w", err)
	}
	if wrapped.Patch == nil {
		return nil, fmt.Errorf("parsing patch: no operations")
	}
	return wrapped.Patch, nil
}
