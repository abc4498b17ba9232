package language

import (
	"strings"

	xlanguage "golang.org/x/text/language"
)

// Original is the list keyword that stands for the source's own language.
const Original = "original"

// Undetermined is the ISO 639-2 code for streams without a language tag.
const Undetermined = "und"

// Canonical folds a language tag to one comparable ISO 639-2/T code so that
// "en", "eng", "English" and "en-US" compare equal. Empty input yields "und".
// Codes that are neither in the local table nor parseable as BCP 47 are
// returned lowercased.
func Canonical(code string) string {
	code = strings.ToLower(strings.TrimSpace(strings.ReplaceAll(code, "\u0000", "")))
	if code == "" || code == Undetermined {
		return Undetermined
	}
	if e := lookup(code); e != nil {
		return e.code3
	}
	if tag, err := xlanguage.Parse(code); err == nil {
		base, confidence := tag.Base()
		if confidence != xlanguage.No {
			if iso3 := base.ISO3(); iso3 != "" {
				if e := lookup(iso3); e != nil {
					return e.code3
				}
				return iso3
			}
		}
	}
	return code
}

// Equal reports whether two language tags denote the same language.
func Equal(a, b string) bool {
	return Canonical(a) == Canonical(b)
}

// ExpandOriginal canonicalizes a configured language list, replacing the
// "original" keyword with native. Duplicates are dropped while keeping the
// first occurrence. When native is empty the keyword is dropped.
func ExpandOriginal(list []string, native string) []string {
	out := make([]string, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, raw := range list {
		value := strings.ToLower(strings.TrimSpace(raw))
		if value == "" {
			continue
		}
		if value == Original {
			if strings.TrimSpace(native) == "" {
				continue
			}
			value = native
		}
		canonical := Canonical(value)
		if _, ok := seen[canonical]; ok {
			continue
		}
		seen[canonical] = struct{}{}
		out = append(out, canonical)
	}
	return out
}

// TesseractCode maps a stream language to the traineddata name used for OCR.
// Unknown and undetermined languages fall back to English.
func TesseractCode(code string) string {
	if e := lookup(Canonical(code)); e != nil && e.tesseract != "" {
		return e.tesseract
	}
	return "eng"
}
