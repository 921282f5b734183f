package segmentation

import (
	"strings"
)

// resolvePath walks a dot path ("cashback_info.current_balance") through
// nested maps in a contact record. A missing key at any depth reports
// found=false; it is never an error. An explicit null resolves to
// (nil, true), which is distinct from an unresolved path for the
// operators that care.
func resolvePath(record map[string]any, path string) (any, bool) {
	if record == nil || path == "" {
		return nil, false
	}

	segments := strings.Split(path, ".")
	var current any = record
	for _, seg := range segments {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[seg]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
