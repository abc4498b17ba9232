package subtitles

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// cueSpan is the timing line of one SRT cue.
type cueSpan struct {
	start, end time.Duration
}

// scanSpans walks data and returns the number of non-blank cue blocks and
// every timing line that parsed.
func scanSpans(data []byte) (int, []cueSpan) {
	var (
		blocks  int
		inBlock bool
		spans   []cueSpan
	)
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			inBlock = false
			continue
		}
		if !inBlock {
			blocks++
			inBlock = true
		}
		left, right, ok := strings.Cut(line, "-->")
		if !ok {
			continue
		}
		start, errStart := parseTimestamp(left)
		end, errEnd := parseTimestamp(right)
		if errStart != nil || errEnd != nil {
			continue
		}
		spans = append(spans, cueSpan{start: start, end: end})
	}
	return blocks, spans
}

// parseTimestamp reads HH:MM:SS,mmm. A period separator is accepted too.
func parseTimestamp(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if fields := strings.Fields(value); len(fields) > 0 {
		value = fields[0]
	}
	clock, frac, ok := strings.Cut(strings.Replace(value, ".", ",", 1), ",")
	if !ok {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	parts := strings.Split(clock, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	var units [4]int
	for i, text := range append(parts, frac) {
		n, err := strconv.Atoi(text)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid timestamp %q", value)
		}
		units[i] = n
	}
	return time.Duration(units[0])*time.Hour +
		time.Duration(units[1])*time.Minute +
		time.Duration(units[2])*time.Second +
		time.Duration(units[3])*time.Millisecond, nil
}

// ValidateSRT checks a subtitle file produced by extraction. It returns the
// problems found; an empty slice means the file is usable.
func ValidateSRT(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return []string{fmt.Sprintf("read_error: %v", err)}
	}
	blocks, spans := scanSpans(data)
	if blocks == 0 {
		return []string{"empty_subtitle_file"}
	}
	var latest time.Duration
	for _, span := range spans {
		latest = max(latest, span.end, span.start)
	}
	if latest == 0 {
		return []string{"no_valid_timestamps"}
	}
	return nil
}
