package timex

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDuration_UnmarshalString(t *testing.T) {
	var d Duration
	if err := json.Unmarshal([]byte(`"15m"`), &d); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if d.Duration != 15*time.Minute {
		t.Errorf("expected 15m, got %v", d.Duration)
	}
}

func TestDuration_UnmarshalNanoseconds(t *testing.T) {
	var d Duration
	if err := json.Unmarshal([]byte(`1000000000`), &d); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if d.Duration != time.Second {
		t.Errorf("expected 1s, got %v", d.Duration)
	}
}

func TestDuration_UnmarshalInvalid(t *testing.T) {
	var d Duration
	if err := json.Unmarshal([]byte(`"not a duration"`), &d); err == nil {
		t.Errorf("expected error for invalid string")
	}
	if err := json.Unmarshal([]byte(`true`), &d); err == nil {
		t.Errorf("expected error for bool")
	}
}
