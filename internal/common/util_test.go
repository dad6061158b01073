package common

import (
	"bytes"
	"testing"
)

func TestGenerateRandByteArray(t *testing.T) {
	size := 32
	data1 := GenerateRandByteArray(size)
	data2 := GenerateRandByteArray(size)

	if len(data1) != size || len(data2) != size {
		t.Fatalf("expected %d bytes, got %d and %d", size, len(data1), len(data2))
	}
	if bytes.Equal(data1, data2) {
		t.Errorf("expected different outputs for consecutive calls")
	}
}
