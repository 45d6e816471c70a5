package output

import (
	"bytes"
	"encoding/json"
)

// SnapshotExcludeFields lists time-varying fields stripped before
// comparing two encoded results.
var SnapshotExcludeFields = []string{
	"meta.generatedAt",
}

// NormalizeForSnapshot strips excluded fields and re-encodes
// deterministically.
func NormalizeForSnapshot(data []byte) ([]byte, error) {
	var parsed map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, err
	}
	for _, field := range SnapshotExcludeFields {
		removeNestedField(parsed, field)
	}
	return DeterministicEncode(parsed)
}

// CompareSnapshots reports whether two encoded results are identical once
// time-varying fields are ignored.
func CompareSnapshots(a, b []byte) (bool, string) {
	na, err := NormalizeForSnapshot(a)
	if err != nil {
		return false, "normalizing first snapshot: " + err.Error()
	}
	nb, err := NormalizeForSnapshot(b)
	if err != nil {
		return false, "normalizing second snapshot: " + err.Error()
	}
	if !bytes.Equal(na, nb) {
		return false, "snapshots differ"
	}
	return true, ""
}

// removeNestedField deletes a dot-separated path from the parsed object.
func removeNestedField(data map[string]interface{}, path string) {
	cur := data
	for {
		head, rest, more := cutPath(path)
		if !more {
			delete(cur, head)
			return
		}
		next, ok := cur[head].(map[string]interface{})
		if !ok {
			return
		}
		cur = next
		path = rest
	}
}

func cutPath(path string) (head, rest string, more bool) {
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			return path[:i], path[i+1:], true
		}
	}
	return path, "", false
}
