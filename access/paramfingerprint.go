package access

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
)

// Fingerprint computes a deterministic hash of an
// additional_request_fields-style map: keys sorted, nested maps
// recursively fingerprinted, lists hashed in order, primitives by
// value. Two maps equal by deep value but differing in insertion order
// produce the same fingerprint.
func Fingerprint(params map[string]any) string {
	h := sha256.New()
	writeFingerprint(h, params)
	return hex.EncodeToString(h.Sum(nil))
}

func writeFingerprint(h io.Writer, v any) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprint(h, "{")
		for _, k := range keys {
			fmt.Fprintf(h, "%q:", k)
			writeFingerprint(h, val[k])
			fmt.Fprint(h, ",")
		}
		fmt.Fprint(h, "}")
	case []any:
		fmt.Fprint(h, "[")
		for _, item := range val {
			writeFingerprint(h, item)
			fmt.Fprint(h, ",")
		}
		fmt.Fprint(h, "]")
	default:
		fmt.Fprintf(h, "%v:%T;", val, val)
	}
}
