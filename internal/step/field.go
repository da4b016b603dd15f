package step

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// FieldKind selects the editor and the coercion applied to a field.
type FieldKind string

const (
	FieldText   FieldKind = "text"
	FieldNumber FieldKind = "number"
	FieldBool   FieldKind = "bool"
	FieldChoice FieldKind = "choice"
	FieldMulti  FieldKind = "multi"
)

// Option is one choice offered by choice and multi fields.
type Option struct {
	Value string
	Label string
}

// Field declares one input of a step.
type Field struct {
	Name     string
	Label    string
	Help     string
	Kind     FieldKind
	Required bool
	// Pattern is matched against the normalized text value.
	Pattern string
	// PatternHint is shown when Pattern does not match.
	PatternHint   string
	Options       []Option
	AllowNegative bool
	// Normalize rewrites text input before validation, e.g. stripping spaces.
	Normalize func(string) string
}

// OptionValues lists the option values in declaration order.
func (f Field) OptionValues() []string {
	values := make([]string, len(f.Options))
	for i, opt := range f.Options {
		values[i] = opt.Value
	}
	return values
}

// ValidateFields coerces values according to fields. It returns the cleaned
// data keyed by field name and one message per failing field. Optional
// fields left empty are omitted from data.
func ValidateFields(fields []Field, values Values) (map[string]any, map[string]string) {
	data := map[string]any{}
	errs := map[string]string{}
	for _, field := range fields {
		value, present, err := field.coerce(values[field.Name])
		switch {
		case err != nil:
			errs[field.Name] = err.Error()
		case present:
			data[field.Name] = value
		case field.Required:
			errs[field.Name] = "is required"
		}
	}
	if len(errs) == 0 {
		errs = nil
	}
	return data, errs
}

func (f Field) coerce(raw any) (any, bool, error) {
	switch f.Kind {
	case FieldBool:
		return f.coerceBool(raw)
	case FieldMulti:
		return f.coerceMulti(raw)
	}
	text := strings.TrimSpace(asString(raw))
	if f.Normalize != nil {
		text = f.Normalize(text)
	}
	if text == "" {
		return nil, false, nil
	}
	switch f.Kind {
	case FieldNumber:
		cleaned := strings.NewReplacer(",", "", "£", "", " ", "").Replace(text)
		n, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return nil, false, fmt.Errorf("must be a number")
		}
		if n < 0 && !f.AllowNegative {
			return nil, false, fmt.Errorf("must not be negative")
		}
		return n, true, nil
	case FieldChoice:
		for _, opt := range f.Options {
			if opt.Value == text {
				return text, true, nil
			}
		}
		return nil, false, fmt.Errorf("unknown option %q", text)
	default:
		if f.Pattern != "" && !compiled(f.Pattern).MatchString(text) {
			hint := f.PatternHint
			if hint == "" {
				hint = "the expected format"
			}
			return nil, false, fmt.Errorf("must match %s", hint)
		}
		return text, true, nil
	}
}

func (f Field) coerceBool(raw any) (any, bool, error) {
	var value bool
	switch v := raw.(type) {
	case nil:
		return nil, false, nil
	case bool:
		value = v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "":
			return nil, false, nil
		case "true", "yes", "y", "1":
			value = true
		case "false", "no", "n", "0":
			value = false
		default:
			return nil, false, fmt.Errorf("must be yes or no")
		}
	default:
		return nil, false, fmt.Errorf("must be yes or no")
	}
	// A required toggle is a confirmation and only counts when set.
	if f.Required && !value {
		return nil, false, nil
	}
	return value, true, nil
}

func (f Field) coerceMulti(raw any) (any, bool, error) {
	var picked []string
	switch v := raw.(type) {
	case nil:
		return nil, false, nil
	case []string:
		picked = v
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false, fmt.Errorf("must be a list of options")
			}
			picked = append(picked, s)
		}
	case string:
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				picked = append(picked, part)
			}
		}
	default:
		return nil, false, fmt.Errorf("must be a list of options")
	}
	known := make(map[string]struct{}, len(f.Options))
	for _, opt := range f.Options {
		known[opt.Value] = struct{}{}
	}
	seen := map[string]struct{}{}
	out := make([]string, 0, len(picked))
	for _, token := range picked {
		if _, ok := known[token]; !ok {
			return nil, false, fmt.Errorf("unknown option %q", token)
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	if len(out) == 0 && f.Required {
		return nil, false, nil
	}
	return out, true, nil
}

func asString(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprint(v)
	}
}

var (
	patternMu    sync.Mutex
	patternCache = map[string]*regexp.Regexp{}
)

func compiled(pattern string) *regexp.Regexp {
	patternMu.Lock()
	defer patternMu.Unlock()
	re, ok := patternCache[pattern]
	if !ok {
		re = regexp.MustCompile(pattern)
		patternCache[pattern] = re
	}
	return re
}

// FormatValue renders a stored answer for display.
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case bool:
		if v {
			return "yes"
		}
		return "no"
	case []string:
		return strings.Join(v, ", ")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, FormatValue(item))
		}
		return strings.Join(parts, ", ")
	default:
		return asString(v)
	}
}
