package output

import "testing"

func TestCompareSnapshots(t *testing.T) {
	t.Run("identical except excluded field", func(t *testing.T) {
		a := []byte(`{"meta":{"generatedAt":"2026-01-01T00:00:00Z","tool":"x"},"entries":{"1":{"uid":1}}}`)
		b := []byte(`{"meta":{"generatedAt":"2026-02-02T00:00:00Z","tool":"x"},"entries":{"1":{"uid":1}}}`)
		if ok, msg := CompareSnapshots(a, b); !ok {
			t.Errorf("snapshots should match: %s", msg)
		}
	})

	t.Run("real difference detected", func(t *testing.T) {
		a := []byte(`{"entries":{"1":{"uid":1}}}`)
		b := []byte(`{"entries":{"1":{"uid":2}}}`)
		if ok, _ := CompareSnapshots(a, b); ok {
			t.Error("differing snapshots compared equal")
		}
	})

	t.Run("invalid json reported", func(t *testing.T) {
		if ok, msg := CompareSnapshots([]byte("{"), []byte("{}")); ok || msg == "" {
			t.Errorf("got ok=%v msg=%q", ok, msg)
		}
	})
}

func TestRemoveNestedField(t *testing.T) {
	data := map[string]interface{}{
		"meta": map[string]interface{}{"generatedAt": "x", "tool": "y"},
	}
	removeNestedField(data, "meta.generatedAt")
	meta := data["meta"].(map[string]interface{})
	if _, ok := meta["generatedAt"]; ok {
		t.Error("field not removed")
	}
	if meta["tool"] != "y" {
		t.Error("sibling field lost")
	}

	// Missing paths are a no-op.
	removeNestedField(data, "absent.deep.path")
}
