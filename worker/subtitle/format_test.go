package subtitle

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

var testSegments = []Segment{
	{Start: 0.0, End: 5.0, Text: "Hello"},
	{Start: 5.5, End: 10.0, Text: "World"},
}

func TestWrite_SRT(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, testSegments, FormatSRT); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	expected := "1\n00:00:00,000 --> 00:00:05,000\nHello\n\n2\n00:00:05,500 --> 00:00:10,000\nWorld\n\n"
	if buf.String() != expected {
		t.Errorf("Unexpected srt output:\ngot:  %q\nwant: %q", buf.String(), expected)
	}
}

func TestWrite_VTT(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, testSegments, FormatVTT); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	expected := "WEBVTT\n\n1\n00:00:00.000 --> 00:00:05.000\nHello\n\n2\n00:00:05.500 --> 00:00:10.000\nWorld\n\n"
	if buf.String() != expected {
		t.Errorf("Unexpected vtt output:\ngot:  %q\nwant: %q", buf.String(), expected)
	}
}

func TestWrite_TXT(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, testSegments, FormatTXT); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	expected := "Hello\nWorld\n"
	if buf.String() != expected {
		t.Errorf("Unexpected txt output:\ngot:  %q\nwant: %q", buf.String(), expected)
	}
}

func TestWrite_TrimsSegmentText(t *testing.T) {
	var buf bytes.Buffer
	segments := []Segment{{Start: 0, End: 1, Text: "  padded  "}}

	if err := Write(&buf, segments, FormatTXT); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if buf.String() != "padded\n" {
		t.Errorf("Expected trimmed text, got %q", buf.String())
	}
}

func TestWrite_UnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, testSegments, "ass")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestFormatTimestamp(t *testing.T) {
	cases := []struct {
		seconds  float64
		sep      string
		expected string
	}{
		{0, ",", "00:00:00,000"},
		{5.5, ",", "00:00:05,500"},
		{3661.25, ",", "01:01:01,250"},
		{3661.25, ".", "01:01:01.250"},
		{59.9995, ",", "00:01:00,000"},
	}

	for _, tc := range cases {
		if got := formatTimestamp(tc.seconds, tc.sep); got != tc.expected {
			t.Errorf("formatTimestamp(%v, %q) = %q, want %q", tc.seconds, tc.sep, got, tc.expected)
		}
	}
}

func TestSave_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.srt")

	if err := Save(path, testSegments, FormatSRT); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read saved file: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("1\n00:00:00,000")) {
		t.Errorf("Unexpected file contents: %q", data)
	}
}

func TestSave_UnsupportedFormatLeavesNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ass")

	if err := Save(path, testSegments, "ass"); err == nil {
		t.Fatal("Expected error for unsupported format")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected no file to be left behind")
	}
}
