package cli

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
)

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	reader := bufio.NewReader(strings.NewReader("  hello world  \n"))

	got, err := GetSimpleText(reader, "Say something", &out)
	if err != nil {
		t.Fatalf("GetSimpleText error: %v", err)
	}
	if got != "hello world" {
		t.Errorf("expected trimmed input, got %q", got)
	}
	if !strings.Contains(out.String(), "Say something") {
		t.Errorf("prompt not written: %q", out.String())
	}
}

func TestGetSimpleText_EOFWithPartialLine(t *testing.T) {
	var out bytes.Buffer
	reader := bufio.NewReader(strings.NewReader("partial"))

	got, err := GetSimpleText(reader, "p", &out)
	if err != nil {
		t.Fatalf("GetSimpleText error: %v", err)
	}
	if got != "partial" {
		t.Errorf("expected partial line, got %q", got)
	}
}

func TestGetSimpleText_EmptyEOF(t *testing.T) {
	var out bytes.Buffer
	reader := bufio.NewReader(strings.NewReader(""))

	if _, err := GetSimpleText(reader, "p", &out); err == nil {
		t.Error("expected error on empty EOF")
	}
}
