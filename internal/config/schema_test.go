package config

import (
	"encoding/json"
	"testing"
)

func TestJSONSchemaProducesValidJSON(t *testing.T) {
	doc, err := JSONSchema()
	if err != nil {
		t.Fatalf("JSONSchema failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(doc, &decoded); err != nil {
		t.Fatalf("expected valid JSON, got decode error: %v", err)
	}
	if _, ok := decoded["properties"]; !ok {
		t.Errorf("expected a properties field describing Config, got %v", decoded)
	}
}
