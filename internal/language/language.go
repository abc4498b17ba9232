package language

import (
	"strings"

	"golang.org/x/text/cases"
	xlanguage "golang.org/x/text/language"
)

// entry is one known language. code3 is the ISO 639-2/T form Canonical
// returns; alt3 is the bibliographic variant some muxers write instead.
type entry struct {
	code2     string
	code3     string
	alt3      string
	display   string
	tesseract string
	words     []string
}

var languages = []entry{
	{"en", "eng", "", "English", "eng", []string{"english"}},
	{"es", "spa", "", "Spanish", "spa", []string{"spanish", "espanol", "español", "castellano"}},
	{"fr", "fra", "fre", "French", "fra", []string{"french", "francais", "français"}},
	{"de", "deu", "ger", "German", "deu", []string{"german", "deutsch"}},
	{"it", "ita", "", "Italian", "ita", []string{"italian", "italiano"}},
	{"pt", "por", "", "Portuguese", "por", []string{"portuguese", "portugues", "português"}},
	{"ja", "jpn", "", "Japanese", "jpn", []string{"japanese"}},
	{"ko", "kor", "", "Korean", "kor", []string{"korean"}},
	{"zh", "zho", "chi", "Chinese", "chi_sim", []string{"chinese", "mandarin"}},
	{"ru", "rus", "", "Russian", "rus", []string{"russian"}},
	{"ar", "ara", "", "Arabic", "ara", []string{"arabic"}},
	{"hi", "hin", "", "Hindi", "hin", []string{"hindi"}},
	{"nl", "nld", "dut", "Dutch", "nld", []string{"dutch"}},
	{"pl", "pol", "", "Polish", "pol", []string{"polish"}},
	{"sv", "swe", "", "Swedish", "swe", []string{"swedish"}},
	{"da", "dan", "", "Danish", "dan", []string{"danish"}},
	{"no", "nor", "", "Norwegian", "nor", []string{"norwegian"}},
	{"fi", "fin", "", "Finnish", "fin", []string{"finnish"}},
	{"cs", "ces", "cze", "Czech", "ces", []string{"czech"}},
	{"el", "ell", "gre", "Greek", "ell", []string{"greek"}},
	{"he", "heb", "", "Hebrew", "heb", []string{"hebrew"}},
	{"hu", "hun", "", "Hungarian", "hun", []string{"hungarian"}},
	{"th", "tha", "", "Thai", "tha", []string{"thai"}},
	{"tr", "tur", "", "Turkish", "tur", []string{"turkish"}},
	{"uk", "ukr", "", "Ukrainian", "ukr", []string{"ukrainian"}},
}

// index resolves 2-letter codes, both 3-letter forms, and word forms.
var index = func() map[string]*entry {
	m := make(map[string]*entry, len(languages)*4)
	for i := range languages {
		e := &languages[i]
		m[e.code2] = e
		m[e.code3] = e
		if e.alt3 != "" {
			m[e.alt3] = e
		}
		for _, w := range e.words {
			m[w] = e
		}
	}
	return m
}()

func lookup(code string) *entry {
	return index[strings.ToLower(strings.TrimSpace(code))]
}

// tagKeys are the stream tag keys muxers use for the language, in the order
// they are consulted.
var tagKeys = []string{"language", "LANGUAGE", "Language", "language_ietf", "lang", "LANG"}

// FromTags returns the raw language value from stream tags, lowercased and
// stripped of NUL padding, or "" when no language tag is present.
func FromTags(tags map[string]string) string {
	for _, key := range tagKeys {
		value, ok := tags[key]
		if !ok {
			continue
		}
		value = strings.TrimSpace(strings.ReplaceAll(value, "\u0000", ""))
		if value != "" {
			return strings.ToLower(value)
		}
	}
	return ""
}

var titleCaser = cases.Title(xlanguage.Und)

// DisplayName returns a human-readable name for a language tag. Unknown
// word forms are title-cased and unknown codes are upper-cased.
func DisplayName(code string) string {
	code = strings.TrimSpace(code)
	switch {
	case code == "" || strings.EqualFold(code, Undetermined):
		return "Undetermined"
	case lookup(code) != nil:
		return lookup(code).display
	}
	if e := lookup(Canonical(code)); e != nil {
		return e.display
	}
	if len(code) <= 3 {
		return strings.ToUpper(code)
	}
	return titleCaser.String(strings.ToLower(code))
}
