package subtitle

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
)

const (
	FormatSRT = "srt"
	FormatVTT = "vtt"
	FormatTXT = "txt"
)

// Write serializes segments in the given format. srt and vtt carry
// 1-based cue indices and blank-line separated entries; txt is bare
// text lines with no timing.
func Write(w io.Writer, segments []Segment, format string) error {
	bw := bufio.NewWriter(w)

	switch format {
	case FormatSRT:
		writeCues(bw, segments, ",")
	case FormatVTT:
		fmt.Fprint(bw, "WEBVTT\n\n")
		writeCues(bw, segments, ".")
	case FormatTXT:
		for _, seg := range segments {
			fmt.Fprintf(bw, "%s\n", strings.TrimSpace(seg.Text))
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	return bw.Flush()
}

// Save writes segments to a file at path in the given format.
func Save(path string, segments []Segment, format string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := Write(file, segments, format); err != nil {
		file.Close()
		os.Remove(path)
		return err
	}

	return file.Close()
}

func writeCues(w io.Writer, segments []Segment, sep string) {
	for i, seg := range segments {
		fmt.Fprintf(w, "%d\n", i+1)
		fmt.Fprintf(w, "%s --> %s\n", formatTimestamp(seg.Start, sep), formatTimestamp(seg.End, sep))
		fmt.Fprintf(w, "%s\n\n", strings.TrimSpace(seg.Text))
	}
}

// formatTimestamp renders seconds as HH:MM:SS,mmm (srt) or
// HH:MM:SS.mmm (vtt).
func formatTimestamp(seconds float64, sep string) string {
	ms := int64(math.Round(seconds * 1000))
	if ms < 0 {
		ms = 0
	}

	h := ms / 3600000
	m := (ms % 3600000) / 60000
	s := (ms % 60000) / 1000

	return fmt.Sprintf("%02d:%02d:%02d%s%03d", h, m, s, sep, ms%1000)
}
