package pipeline

import (
	"encoding/json"
	"reflect"
	"testing"
)

func parseArgs(values ...string) []Arg {
	out := make([]Arg, len(values))
	for i, value := range values {
		out[i] = ParseArg(value)
	}
	return out
}

func literals(values ...string) []Arg {
	out := make([]Arg, len(values))
	for i, value := range values {
		out[i] = Literal(value)
	}
	return out
}

func TestParseArg(t *testing.T) {
	tests := []struct {
		input string
		want  Arg
	}{
		{"-c", Codec()},
		{"-c:a", Codec()},
		{"-c:0", Codec()},
		{"-c:a:1", Codec()},
		{"-codec:v", Codec()},
		{"-ac", Literal("-ac")},
		{"copy", Literal("copy")},
		{"{stream}", StreamRef()},
		{"-disposition:a:{outputTypeIndex}", Positional("-disposition:a:", PositionOutputType, "")},
		{"-metadata:s:{outputIndex}", Positional("-metadata:s:", PositionOutput, "")},
		{"x{outputIndex}y", Positional("x", PositionOutput, "y")},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseArg(tt.input); got != tt.want {
				t.Errorf("ParseArg(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestArgJSONUsesTemplateForm(t *testing.T) {
	args := []Arg{Codec(), Literal("eac3"), TypeFlag("-disposition", TypeAudio), Literal("0")}
	data, err := json.Marshal(args)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `["-c","eac3","-disposition:a:{outputTypeIndex}","0"]` {
		t.Fatalf("unexpected json %s", data)
	}
	var decoded []Arg
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !ArgsEqual(decoded, args) {
		t.Fatalf("decoded %+v, want %+v", decoded, args)
	}
}

func TestDirectiveHelpers(t *testing.T) {
	args := parseArgs(
		"-c:a", "eac3",
		"-disposition:a:{outputTypeIndex}", "default",
		"-metadata:s:a:{outputTypeIndex}", "language=ger",
		"-metadata:s:a:{outputTypeIndex}", "title=German",
	)

	if !HasCodec(args) {
		t.Fatal("expected codec flag")
	}
	if value, ok := CodecValue(args); !ok || value != "eac3" {
		t.Fatalf("CodecValue = %q %v", value, ok)
	}
	if value, ok := DirectiveValue(args, "-disposition:a"); !ok || value != "default" {
		t.Fatalf("DirectiveValue = %q %v", value, ok)
	}
	if value, ok := MetadataValue(args, TypeAudio, "language"); !ok || value != "ger" {
		t.Fatalf("MetadataValue = %q %v", value, ok)
	}

	stripped := StripCodec(args)
	if HasCodec(stripped) || len(stripped) != len(args)-2 {
		t.Fatalf("StripCodec left %+v", stripped)
	}

	withoutTitle := RemoveMetadata(args, TypeAudio, "title")
	if _, ok := MetadataValue(withoutTitle, TypeAudio, "title"); ok {
		t.Fatal("expected title directive removed")
	}
	if _, ok := MetadataValue(withoutTitle, TypeAudio, "language"); !ok {
		t.Fatal("expected language directive kept")
	}

	withoutDisposition := RemoveDirectives(args, FlagPrefix("-disposition:a"))
	if _, ok := DirectiveValue(withoutDisposition, "-disposition:a"); ok {
		t.Fatal("expected disposition removed")
	}

	recoded := SetCodec(args, "aac")
	if recoded[0] != Codec() || recoded[1] != Literal("aac") || len(recoded) != len(args) {
		t.Fatalf("SetCodec = %+v", recoded)
	}
}

func TestRemoveDirectivesKeepsFollowingFlag(t *testing.T) {
	args := literals("-sn", "-disposition:s:0", "-metadata:s:s:0", "title=x")
	got := RemoveDirectives(args, func(a Arg) bool { return a.Text == "-sn" })
	want := literals("-disposition:s:0", "-metadata:s:s:0", "title=x")
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("RemoveDirectives = %+v, want %+v", got, want)
	}
}
