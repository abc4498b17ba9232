package subtitles

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var adPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)opensubtitles`),
	regexp.MustCompile(`(?i)subtitles? by`),
	regexp.MustCompile(`(?i)synced? and corrected`),
	regexp.MustCompile(`(?i)advertise (your|yours?) product`),
	regexp.MustCompile(`(?i)http(s)?://`),
	regexp.MustCompile(`(?i)\bwww\.`),
	regexp.MustCompile(`(?i)\bsubscene\b`),
	regexp.MustCompile(`(?i)\byts\b`),
	regexp.MustCompile(`(?i)\byify\b`),
}

// CleanStats reports the effects of subtitle cleanup operations.
type CleanStats struct {
	RemovedCues  int
	ChangedLines int
}

// CleanSRT removes advertisement cues and normalizes spacing in SRT subtitles.
func CleanSRT(raw []byte) ([]byte, CleanStats) {
	normalized := strings.ReplaceAll(string(raw), "\r\n", "\n")
	blocks := splitBlocks(normalized)
	cleaned := make([]string, 0, len(blocks))
	var stats CleanStats
	for _, block := range blocks {
		if blockIsAdvertisement(block) {
			stats.RemovedCues++
			continue
		}
		cleaned = append(cleaned, normalizeBlock(block))
	}
	output := strings.Join(cleaned, "\n\n")
	if !strings.HasSuffix(output, "\n") {
		output += "\n"
	}
	return []byte(output), stats
}

var (
	invisibleChars = strings.NewReplacer("\u200b", "", "\ufeff", "")
	glyphFixes     = strings.NewReplacer(
		"\ufb01", "fi", "\ufb02", "fl",
		"\u201c", `"`, "\u201d", `"`, "\u201e", `"`, "\u00bb", `"`, "\u00ab", `"`,
		"\u2018", "'", "\u2019", "'",
		"\u2026", "...",
		"\u2014", "-", "\u2013", "-",
	)

	dashLeadingI   = regexp.MustCompile(`^(\s*-\s*)[l1|](\s|')`)
	lineLeadingBar = regexp.MustCompile(`^(\s*)\|(\s)`)
	standaloneI    = regexp.MustCompile(`(\s)[l|](\s|')`)
	barBeforeWord  = regexp.MustCompile(`(\s)\|([A-Za-z])`)
	trailingQ      = regexp.MustCompile(`([a-z])q([\s.,!?;:'")\]]|$)`)
	wordPattern    = regexp.MustCompile(`[A-Za-z']+`)
	spaceBeforeP   = regexp.MustCompile(`\s+([,.!?:;])`)
	missingSpace   = regexp.MustCompile(`([,!?;])([A-Za-z])`)
	sentenceJoin   = regexp.MustCompile(`([a-z]{2}\.)([A-Z])`)

	wordCorrections = map[string]string{
		"teh":     "the",
		"adn":     "and",
		"woud":    "would",
		"coud":    "could",
		"shoud":   "should",
		"becuase": "because",
		"dont":    "don't",
		"wont":    "won't",
		"cant":    "can't",
		"alot":    "a lot",
	}

	// OCR digit confusions between letters.
	inWordFixes = map[byte]string{'|': "I", '0': "o", '5': "s", '1': "l", '8': "B"}
)

// FixEnglishOCR repairs common OCR mistakes in English SRT text: typographic
// quotes and ligatures, l/I and digit-for-letter confusions, a short list of
// misspellings, and spacing around punctuation. Advertisement cues are
// dropped as in CleanSRT. Cue numbers and timings are left untouched.
func FixEnglishOCR(raw []byte) ([]byte, CleanStats) {
	cleaned, stats := CleanSRT(raw)
	lines := strings.Split(string(cleaned), "\n")
	for i, line := range lines {
		if isNumeric(line) || strings.Contains(line, "-->") || strings.TrimSpace(line) == "" {
			continue
		}
		fixed := fixEnglishLine(line)
		if fixed != line {
			lines[i] = fixed
			stats.ChangedLines++
		}
	}
	return []byte(strings.Join(lines, "\n")), stats
}

// EnglishFix is a pending in-place rewrite of an SRT file.
type EnglishFix struct {
	Path    string
	Changed bool
	Stats   CleanStats
	fixed   []byte
	mode    os.FileMode
}

// PrepareEnglishFix reads path and applies FixEnglishOCR in memory. Nothing is
// written until Write is called.
func PrepareEnglishFix(path string) (EnglishFix, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return EnglishFix{}, fmt.Errorf("read srt: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return EnglishFix{}, fmt.Errorf("stat srt: %w", err)
	}
	fixed, stats := FixEnglishOCR(raw)
	return EnglishFix{
		Path:    path,
		Changed: !bytes.Equal(fixed, raw),
		Stats:   stats,
		fixed:   fixed,
		mode:    info.Mode().Perm(),
	}, nil
}

// Write stores the fixed content. Unchanged files are left alone.
func (f EnglishFix) Write() error {
	if !f.Changed {
		return nil
	}
	if err := os.WriteFile(f.Path, f.fixed, f.mode); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	return nil
}

// FixEnglishFile applies FixEnglishOCR to an SRT file in place. It reports
// whether the file content changed.
func FixEnglishFile(path string) (bool, CleanStats, error) {
	fix, err := PrepareEnglishFix(path)
	if err != nil {
		return false, CleanStats{}, err
	}
	if err := fix.Write(); err != nil {
		return false, fix.Stats, err
	}
	return fix.Changed, fix.Stats, nil
}

func fixEnglishLine(line string) string {
	t := invisibleChars.Replace(line)
	t = glyphFixes.Replace(t)
	t = dashLeadingI.ReplaceAllString(t, "${1}I${2}")
	t = lineLeadingBar.ReplaceAllString(t, "${1}I${2}")
	// Applied twice because adjacent matches share their surrounding space.
	t = standaloneI.ReplaceAllString(t, "${1}I${2}")
	t = standaloneI.ReplaceAllString(t, "${1}I${2}")
	t = barBeforeWord.ReplaceAllString(t, "${1}I${2}")
	t = replaceBetweenLetters(t)
	t = trailingQ.ReplaceAllString(t, "${1}g${2}")
	t = wordPattern.ReplaceAllStringFunc(t, correctWord)
	t = spaceBeforeP.ReplaceAllString(t, "$1")
	t = missingSpace.ReplaceAllString(t, "$1 $2")
	t = sentenceJoin.ReplaceAllString(t, "$1 $2")
	return t
}

// replaceBetweenLetters fixes characters that OCR commonly confuses with a
// letter when they sit between two ASCII letters of the original line.
func replaceBetweenLetters(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if repl, ok := inWordFixes[s[i]]; ok && i > 0 && i+1 < len(s) && isASCIILetter(s[i-1]) && isASCIILetter(s[i+1]) {
			b.WriteString(repl)
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func correctWord(word string) string {
	replacement, ok := wordCorrections[strings.ToLower(word)]
	if !ok {
		return word
	}
	if word[0] >= 'A' && word[0] <= 'Z' {
		return strings.ToUpper(replacement[:1]) + replacement[1:]
	}
	return replacement
}

func splitBlocks(content string) []string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n\n")
}

func blockIsAdvertisement(block string) bool {
	lines := strings.Split(block, "\n")
	if len(lines) == 0 {
		return false
	}
	textLines := subtitleTextLines(lines)
	if len(textLines) == 0 {
		return false
	}
	payload := strings.ToLower(strings.Join(textLines, " "))
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return false
	}
	for _, pattern := range adPatterns {
		if pattern.MatchString(payload) {
			return true
		}
	}
	return false
}

func subtitleTextLines(lines []string) []string {
	start := 0
	if start < len(lines) && isNumeric(lines[start]) {
		start++
	}
	if start < len(lines) && strings.Contains(lines[start], "-->") {
		start++
	}
	if start >= len(lines) {
		return nil
	}
	text := make([]string, 0, len(lines)-start)
	for _, line := range lines[start:] {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			text = append(text, trimmed)
		}
	}
	return text
}

func normalizeBlock(block string) string {
	lines := strings.Split(block, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t")
	}
	return strings.Join(lines, "\n")
}

func isNumeric(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	_, err := strconv.Atoi(value)
	return err == nil
}
