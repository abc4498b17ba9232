package language

import "testing"

func TestFromTags(t *testing.T) {
	tests := []struct {
		name string
		tags map[string]string
		want string
	}{
		{"nil", nil, ""},
		{"lowercase key", map[string]string{"language": "ENG"}, "eng"},
		{"uppercase key", map[string]string{"LANGUAGE": "fre"}, "fre"},
		{"ietf", map[string]string{"language_ietf": "en-US"}, "en-us"},
		{"nul padded", map[string]string{"language": "jpn\u0000\u0000"}, "jpn"},
		{"blank falls through", map[string]string{"language": "  ", "lang": "spa"}, "spa"},
		{"no language", map[string]string{"title": "Main"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromTags(tt.tags); got != tt.want {
				t.Fatalf("FromTags(%v) = %q, want %q", tt.tags, got, tt.want)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"":        "Undetermined",
		"und":     "Undetermined",
		"eng":     "English",
		"fre":     "French",
		"de":      "German",
		"español": "Spanish",
		"pt-BR":   "Portuguese",
		"xx":      "XX",
		"klingon": "Klingon",
		"ELVISH":  "Elvish",
	}
	for code, want := range tests {
		if got := DisplayName(code); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", code, got, want)
		}
	}
}

func TestLookupCoversEveryForm(t *testing.T) {
	for _, e := range languages {
		forms := append([]string{e.code2, e.code3, e.display}, e.words...)
		if e.alt3 != "" {
			forms = append(forms, e.alt3)
		}
		for _, form := range forms {
			if got := lookup(form); got == nil || got.code3 != e.code3 {
				t.Errorf("lookup(%q) did not resolve to %s", form, e.code3)
			}
		}
	}
}
