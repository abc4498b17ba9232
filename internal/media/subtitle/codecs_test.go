package subtitle

import "testing"

func TestCodecTables(t *testing.T) {
	tests := []struct {
		codec       string
		text        bool
		image       bool
		extractable bool
	}{
		{"subrip", true, false, true},
		{"ASS", true, false, true},
		{"microdvd", true, false, false},
		{"mov_text", true, false, true},
		{"hdmv_pgs_subtitle", false, true, false},
		{"dvd_subtitle", false, true, false},
		{"eia_608", false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.codec, func(t *testing.T) {
			if got := IsText(tt.codec); got != tt.text {
				t.Errorf("IsText = %v, want %v", got, tt.text)
			}
			if got := IsImage(tt.codec); got != tt.image {
				t.Errorf("IsImage = %v, want %v", got, tt.image)
			}
			if got := IsExtractableText(tt.codec); got != tt.extractable {
				t.Errorf("IsExtractableText = %v, want %v", got, tt.extractable)
			}
		})
	}
}

func TestPolicyFor(t *testing.T) {
	policy, ok := PolicyFor("MP4")
	if !ok || policy.Target != "mov_text" {
		t.Fatalf("unexpected mp4 policy: %+v %v", policy, ok)
	}
	if !policy.Accepts("tx3g") || policy.Accepts("subrip") {
		t.Fatalf("unexpected mp4 accepted codecs: %+v", policy.Accepted)
	}
	if webm, ok := PolicyFor("webm"); !ok || webm.Target != "webvtt" {
		t.Fatalf("unexpected webm policy: %+v %v", webm, ok)
	}
	if _, ok := PolicyFor("mkv"); ok {
		t.Fatal("expected mkv to have no restrictive policy")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		title    string
		forced   bool
		expected Kind
	}{
		{"Director's Commentary", false, KindCommentary},
		{"English (Forced)", false, KindForced},
		{"English", true, KindForced},
		{"English SDH", false, KindMain},
		{"", false, KindMain},
	}
	for _, tt := range tests {
		if got := Classify(tt.title, tt.forced); got != tt.expected {
			t.Errorf("Classify(%q, %v) = %q, want %q", tt.title, tt.forced, got, tt.expected)
		}
	}
}

func TestNormalizeHandler(t *testing.T) {
	tests := map[string]string{
		"":                "",
		"null":            "",
		"SubtitleHandler": "",
		"English SDH":     "english sdh",
	}
	for input, want := range tests {
		if got := NormalizeHandler(input); got != want {
			t.Errorf("NormalizeHandler(%q) = %q, want %q", input, got, want)
		}
	}
}
