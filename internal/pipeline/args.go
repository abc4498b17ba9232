package pipeline

import (
	"regexp"
	"strings"
)

// ArgKind discriminates the Arg tagged union.
type ArgKind uint8

const (
	// ArgLiteral is emitted verbatim.
	ArgLiteral ArgKind = iota
	// ArgPosition embeds the stream's output position between Text and Suffix.
	ArgPosition
	// ArgCodec is a codec flag resolved to "-c:<type>:<rank>".
	ArgCodec
	// ArgStream is a map target resolved to "<input>:<type>:<sourceTypeIndex>[?]".
	ArgStream
)

// Position selects which output rank an ArgPosition embeds.
type Position uint8

const (
	PositionOutput Position = iota + 1
	PositionOutputType
)

const (
	placeholderOutputIndex     = "{outputIndex}"
	placeholderOutputTypeIndex = "{outputTypeIndex}"
	placeholderStream          = "{stream}"
)

// Arg is one argument token of a stream's map or output arguments.
type Arg struct {
	Kind     ArgKind
	Text     string
	Suffix   string
	Position Position
}

// Literal returns a token emitted verbatim.
func Literal(text string) Arg {
	return Arg{Kind: ArgLiteral, Text: text}
}

// Positional returns a token that embeds an output rank between prefix and suffix.
func Positional(prefix string, position Position, suffix string) Arg {
	return Arg{Kind: ArgPosition, Text: prefix, Position: position, Suffix: suffix}
}

// TypeFlag returns "<flag>:<selector>:{outputTypeIndex}", the per-stream form
// of flags such as -disposition and -metadata:s.
func TypeFlag(flag string, t CodecType) Arg {
	return Positional(flag+":"+t.Selector()+":", PositionOutputType, "")
}

// Codec returns the codec flag token.
func Codec() Arg {
	return Arg{Kind: ArgCodec}
}

// StreamRef returns the map target token.
func StreamRef() Arg {
	return Arg{Kind: ArgStream}
}

// String returns the template form of the token, which ParseArg accepts.
func (a Arg) String() string {
	switch a.Kind {
	case ArgPosition:
		placeholder := placeholderOutputIndex
		if a.Position == PositionOutputType {
			placeholder = placeholderOutputTypeIndex
		}
		return a.Text + placeholder + a.Suffix
	case ArgCodec:
		return "-c"
	case ArgStream:
		return placeholderStream
	default:
		return a.Text
	}
}

// MarshalText encodes the template form.
func (a Arg) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText decodes a template string.
func (a *Arg) UnmarshalText(text []byte) error {
	*a = ParseArg(string(text))
	return nil
}

// IsFlag reports whether the token starts a new option.
func (a Arg) IsFlag() bool {
	if a.Kind == ArgCodec {
		return true
	}
	if a.Kind == ArgStream {
		return false
	}
	return strings.HasPrefix(a.Text, "-") && len(a.Text) > 1 && !isNumber(a.Text)
}

var codecFlagPattern = regexp.MustCompile(`(?i)^-(?:c|codec)(?::[a-z]+)?(?::\d+)?$`)

// ParseArg converts a template string into a token. Codec flags in any of the
// forms -c, -c:a, -c:0, -c:a:1, -codec:v become ArgCodec; a string holding
// {outputIndex} or {outputTypeIndex} becomes ArgPosition; {stream} becomes
// ArgStream; everything else is literal.
func ParseArg(value string) Arg {
	if value == placeholderStream {
		return StreamRef()
	}
	if codecFlagPattern.MatchString(value) {
		return Codec()
	}
	for _, candidate := range []struct {
		placeholder string
		position    Position
	}{
		{placeholderOutputTypeIndex, PositionOutputType},
		{placeholderOutputIndex, PositionOutput},
	} {
		if idx := strings.Index(value, candidate.placeholder); idx >= 0 {
			return Positional(value[:idx], candidate.position, value[idx+len(candidate.placeholder):])
		}
	}
	return Literal(value)
}

// ArgsEqual reports whether two token lists are identical.
func ArgsEqual(a, b []Arg) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// HasCodec reports whether the arguments already carry a codec flag.
func HasCodec(args []Arg) bool {
	for _, arg := range args {
		if arg.Kind == ArgCodec {
			return true
		}
		if arg.Kind == ArgLiteral && codecFlagPattern.MatchString(arg.Text) {
			return true
		}
	}
	return false
}

// CodecValue returns the value following the first codec flag.
func CodecValue(args []Arg) (string, bool) {
	for i, arg := range args {
		isCodec := arg.Kind == ArgCodec || (arg.Kind == ArgLiteral && codecFlagPattern.MatchString(arg.Text))
		if isCodec && i+1 < len(args) {
			return args[i+1].String(), true
		}
	}
	return "", false
}

// StripCodec removes every codec flag together with its value.
func StripCodec(args []Arg) []Arg {
	return RemoveDirectives(args, func(arg Arg) bool {
		return arg.Kind == ArgCodec || (arg.Kind == ArgLiteral && codecFlagPattern.MatchString(arg.Text))
	})
}

// SetCodec replaces any codec flags with a single leading "-c <codec>".
func SetCodec(args []Arg, codec string) []Arg {
	stripped := StripCodec(args)
	out := make([]Arg, 0, len(stripped)+2)
	out = append(out, Codec(), Literal(codec))
	return append(out, stripped...)
}

// RemoveDirectives drops each flag matched by match along with the value
// that follows it. A following token that is itself a flag is kept.
func RemoveDirectives(args []Arg, match func(Arg) bool) []Arg {
	out := make([]Arg, 0, len(args))
	for i := 0; i < len(args); i++ {
		if !match(args[i]) {
			out = append(out, args[i])
			continue
		}
		if i+1 < len(args) && !args[i+1].IsFlag() {
			i++
		}
	}
	return out
}

// ReplaceDirective drops every flag matched by match, with its value, and
// appends replacement.
func ReplaceDirective(args []Arg, match func(Arg) bool, replacement ...Arg) []Arg {
	return append(RemoveDirectives(args, match), replacement...)
}

// DispositionValue returns the value of the last "-disposition:<selector>"
// directive for the type.
func DispositionValue(args []Arg, t CodecType) (string, bool) {
	return DirectiveValue(args, "-disposition:"+t.Selector())
}

// FlagPrefix matches tokens whose template form starts with prefix.
func FlagPrefix(prefix string) func(Arg) bool {
	return func(arg Arg) bool {
		return arg.Kind != ArgStream && strings.HasPrefix(arg.String(), prefix)
	}
}

// DirectiveValue returns the value following the last flag whose template
// form starts with prefix.
func DirectiveValue(args []Arg, prefix string) (string, bool) {
	value, found := "", false
	match := FlagPrefix(prefix)
	for i := 0; i+1 < len(args); i++ {
		if match(args[i]) {
			value, found = args[i+1].String(), true
		}
	}
	return value, found
}

// MetadataValue returns the value of a "-metadata:s:<selector>... key=value"
// directive for the given key.
func MetadataValue(args []Arg, t CodecType, key string) (string, bool) {
	prefix := "-metadata:s:" + t.Selector()
	value, found := "", false
	match := FlagPrefix(prefix)
	for i := 0; i+1 < len(args); i++ {
		if !match(args[i]) {
			continue
		}
		k, v, ok := strings.Cut(args[i+1].String(), "=")
		if ok && strings.EqualFold(strings.TrimSpace(k), key) {
			value, found = v, true
		}
	}
	return value, found
}

// RemoveMetadata drops "-metadata:s:<selector>... key=..." directives for the
// given keys, leaving metadata directives for other keys intact.
func RemoveMetadata(args []Arg, t CodecType, keys ...string) []Arg {
	prefix := "-metadata:s:" + t.Selector()
	match := FlagPrefix(prefix)
	out := make([]Arg, 0, len(args))
	for i := 0; i < len(args); i++ {
		if match(args[i]) && i+1 < len(args) {
			k, _, _ := strings.Cut(args[i+1].String(), "=")
			if containsFold(keys, strings.TrimSpace(k)) {
				i++
				continue
			}
		}
		out = append(out, args[i])
	}
	return out
}

func containsFold(values []string, target string) bool {
	for _, value := range values {
		if strings.EqualFold(value, target) {
			return true
		}
	}
	return false
}

func isNumber(value string) bool {
	trimmed := strings.TrimPrefix(value, "-")
	if trimmed == "" {
		return false
	}
	for _, r := range trimmed {
		if (r < '0' || r > '9') && r != '.' {
			return false
		}
	}
	return true
}
