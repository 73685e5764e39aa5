// Package reef parses build.reef, a schema-checked key=value config.
//
//	# comment
//	sea.cc = "clang"
//	sea.nostd = true
package reef

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	}
	return "unknown"
}

type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Bool bool
}

func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	}
	return strconv.Quote(v.Str)
}

var ErrValue = errors.New("value parsing error")

// ParseValue reads a quoted string, true/false or a number.
func ParseValue(s string) (Value, error) {
	switch {
	case len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0]:
		return Value{Kind: KindString, Str: s[1 : len(s)-1]}, nil
	case s == "true":
		return Value{Kind: KindBool, Bool: true}, nil
	case s == "false":
		return Value{Kind: KindBool}, nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, fmt.Errorf("%w: `%s`", ErrValue, s)
	}
	return Value{Kind: KindNumber, Num: n}, nil
}

// SyntaxError is a line that is not key = value.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error [line %d]: %s", e.Line, e.Msg)
}

// splitLine cuts at the first '=' outside quotes.
func splitLine(line string) (key, value string, ok bool) {
	var quote byte
	for i := 0; i < len(line); i++ {
		switch c := line[i]; {
		case c == '"' || c == '\'':
			if quote == 0 {
				quote = c
			} else if quote == c {
				quote = 0
			}
		case c == '=' && quote == 0:
			return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:]), true
		}
	}
	return "", "", false
}

// Parse reads every key = value line without a schema.
func Parse(src string) (Config, error) {
	cfg := Config{}
	for i, raw := range strings.Split(src, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || line[0] == '#' {
			continue
		}
		key, value, ok := splitLine(line)
		if !ok || key == "" {
			return nil, &SyntaxError{Line: i + 1, Msg: "expected `key = value`"}
		}
		v, err := ParseValue(value)
		if err != nil {
			return nil, &SyntaxError{Line: i + 1, Msg: err.Error()}
		}
		cfg[key] = v
	}
	return cfg, nil
}

// Config holds parsed fields by key.
type Config map[string]Value

// Keys returns the keys in sorted order.
func (c Config) Keys() []string {
	keys := maps.Keys(c)
	slices.Sort(keys)
	return keys
}

func (c Config) String(key string) (string, bool) {
	v, ok := c[key]
	if !ok || v.Kind != KindString {
		return "", false
	}
	return v.Str, true
}

func (c Config) Bool(key string) (bool, bool) {
	v, ok := c[key]
	if !ok || v.Kind != KindBool {
		return false, false
	}
	return v.Bool, true
}

func (c Config) Number(key string) (float64, bool) {
	v, ok := c[key]
	if !ok || v.Kind != KindNumber {
		return 0, false
	}
	return v.Num, true
}

type Field struct {
	Kind     Kind
	Required bool
	Default  *Value
}

// Schema is the closed set of fields a file may contain.
type Schema map[string]Field

// ValidationError is a schema violation.
type ValidationError struct {
	Key string
	Msg string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s `%s`", e.Msg, e.Key)
}

// Parse reads src, rejects unknown keys and wrong kinds, and fills defaults.
func (s Schema) Parse(src string) (Config, error) {
	cfg, err := Parse(src)
	if err != nil {
		return nil, err
	}
	for _, key := range cfg.Keys() {
		field, ok := s[key]
		if !ok {
			return nil, &ValidationError{Key: key, Msg: "unknown field"}
		}
		if cfg[key].Kind != field.Kind {
			return nil, &ValidationError{Key: key, Msg: "expected a " + field.Kind.String() + " for field"}
		}
	}
	keys := maps.Keys(s)
	slices.Sort(keys)
	for _, key := range keys {
		if _, ok := cfg[key]; ok {
			continue
		}
		field := s[key]
		if field.Required {
			return nil, &ValidationError{Key: key, Msg: "missing required field"}
		}
		if field.Default != nil {
			cfg[key] = *field.Default
		}
	}
	return cfg, nil
}

// Keys recognised in build.reef.
const (
	KeyCC       = "sea.cc"
	KeyCCFlags  = "sea.cc.flags"
	KeyNoStd    = "sea.nostd"
	KeyOutput   = "sea.output"
	KeyLibPaths = "sea.libpaths"
)

// FileName is the project config looked up next to the input file.
const FileName = "build.reef"

// SeaSchema validates build.reef.
var SeaSchema = Schema{
	KeyCC:       {Kind: KindString},
	KeyCCFlags:  {Kind: KindString},
	KeyNoStd:    {Kind: KindBool, Default: &Value{Kind: KindBool}},
	KeyOutput:   {Kind: KindString},
	KeyLibPaths: {Kind: KindString},
}
