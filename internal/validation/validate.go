package validation

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/steveyegge/roadmap/internal/idgen"
	"github.com/steveyegge/roadmap/internal/types"
)

// timestampLayouts are the timestamp spellings accepted in front matter.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	types.DateLayout,
}

// Validate checks raw front matter for kind and decodes it into an entity. Every field
// problem is collected into a single *ValidationError. Keys without a rule are kept and
// surface in the entity's Extra map.
func Validate(kind types.Kind, raw map[string]any) (types.Entity, error) {
	fields, err := check(kind, raw)
	if err != nil {
		return nil, err
	}
	return decode(kind, fields)
}

// ValidateEntity re-checks an in-memory entity before it is written.
func ValidateEntity(e types.Entity) error {
	raw, err := ToMap(e)
	if err != nil {
		return err
	}
	_, err = check(e.Kind(), raw)
	return err
}

// ToMap renders an entity's front matter as a generic map.
func ToMap(e types.Entity) (map[string]any, error) {
	var node yaml.Node
	if err := node.Encode(e); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", e.Kind(), err)
	}
	raw := make(map[string]any)
	if err := node.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", e.Kind(), err)
	}
	return raw, nil
}

func check(kind types.Kind, raw map[string]any) (map[string]any, error) {
	specs := Fields(kind)
	if specs == nil {
		return nil, fmt.Errorf("unknown kind %q", kind)
	}

	verr := &ValidationError{Kind: kind, Key: keyOf(kind, raw)}
	normalized := make(map[string]any, len(raw))
	for k, v := range raw {
		normalized[k] = v
	}

	for _, spec := range specs {
		delete(normalized, spec.Name)
		v := raw[spec.Name]
		if v == nil {
			if spec.Required {
				verr.add(spec.Name, "is required")
			}
			continue
		}
		value, msg := checkField(spec, v)
		if msg != "" {
			verr.add(spec.Name, msg)
			continue
		}
		if isMissing(value) {
			if spec.Required {
				verr.add(spec.Name, "is required")
			}
			continue
		}
		normalized[spec.Name] = value
	}

	checkRelations(kind, normalized, verr)

	if len(verr.Fields) > 0 {
		return nil, verr
	}
	return normalized, nil
}

func (e *ValidationError) add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

func checkField(spec FieldSpec, v any) (any, string) {
	switch spec.Kind {
	case FieldString:
		s, ok := scalarString(v)
		if !ok {
			return nil, "must be a string"
		}
		if spec.MaxLen > 0 && utf8.RuneCountInString(s) > spec.MaxLen {
			return nil, fmt.Sprintf("must be at most %d characters", spec.MaxLen)
		}
		return s, ""

	case FieldEnum:
		s, ok := v.(string)
		if !ok || !slices.Contains(spec.Enum, s) {
			return nil, "must be one of " + strings.Join(spec.Enum, ", ")
		}
		return s, ""

	case FieldDate:
		switch t := v.(type) {
		case time.Time:
			return types.NewDate(t), ""
		case types.Date:
			return t, ""
		case string:
			if d, err := types.ParseDate(t); err == nil {
				return d, ""
			}
		}
		return nil, "must be a date (YYYY-MM-DD)"

	case FieldTimestamp:
		t, ok := parseTimestamp(v)
		if !ok {
			return nil, "must be a timestamp (RFC 3339)"
		}
		return t, ""

	case FieldNumber:
		f, ok := number(v)
		if !ok {
			return nil, "must be a number"
		}
		if f < 0 {
			return nil, "must not be negative"
		}
		return f, ""

	case FieldPercentage:
		f, ok := number(v)
		if !ok {
			return nil, "must be a number"
		}
		if f < 0 || f > 100 {
			return nil, "must be between 0 and 100"
		}
		return f, ""

	case FieldIdentifier:
		s, ok := scalarString(v)
		if !ok || !idgen.IsValidID(s) {
			return nil, fmt.Sprintf("must be %d lowercase letters or digits", idgen.IDLength)
		}
		return s, ""

	case FieldIdentifierSet, FieldStringSet, FieldStringList:
		items, ok := stringList(v)
		if !ok {
			return nil, "must be a list of strings"
		}
		seen := make(map[string]bool, len(items))
		for _, item := range items {
			if spec.Kind == FieldIdentifierSet && !idgen.IsValidID(item) {
				return nil, fmt.Sprintf("contains invalid identifier %q", item)
			}
			if spec.Kind != FieldStringList && seen[item] {
				return nil, fmt.Sprintf("contains duplicate %q", item)
			}
			seen[item] = true
		}
		return items, ""

	case FieldStringMap:
		m, ok := v.(map[string]any)
		if !ok {
			return nil, "must be a mapping of strings"
		}
		out := make(map[string]string, len(m))
		for k, val := range m {
			s, ok := scalarString(val)
			if !ok {
				return nil, fmt.Sprintf("value for %q must be a string", k)
			}
			out[k] = s
		}
		return out, ""
	}
	return v, ""
}

func checkRelations(kind types.Kind, fields map[string]any, verr *ValidationError) {
	if kind == types.KindIssue {
		id, _ := fields["id"].(string)
		if deps, ok := fields["depends_on"].([]string); ok && id != "" && slices.Contains(deps, id) {
			verr.add("depends_on", "issue cannot depend on itself")
		}
		if blocks, ok := fields["blocks"].([]string); ok && id != "" && slices.Contains(blocks, id) {
			verr.add("blocks", "issue cannot block itself")
		}
	}

	start, hasStart := fields["actual_start_date"].(time.Time)
	end, hasEnd := fields["actual_end_date"].(time.Time)
	if hasStart && hasEnd && end.Before(start) {
		verr.add("actual_end_date", "must not be before actual_start_date")
	}

	if kind == types.KindProject {
		start, hasStart := fields["start_date"].(types.Date)
		target, hasTarget := fields["target_end_date"].(types.Date)
		if hasStart && hasTarget && target.Before(start.Time) {
			verr.add("target_end_date", "must not be before start_date")
		}
	}
}

func decode(kind types.Kind, fields map[string]any) (types.Entity, error) {
	e, err := types.New(kind)
	if err != nil {
		return nil, err
	}
	data, err := yaml.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", kind, err)
	}
	if err := yaml.Unmarshal(data, e); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", kind, err)
	}
	return e, nil
}

func keyOf(kind types.Kind, raw map[string]any) string {
	field := "id"
	if kind == types.KindMilestone {
		field = "name"
	}
	s, _ := scalarString(raw[field])
	return s
}

func isMissing(v any) bool {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t) == ""
	case time.Time:
		return t.IsZero()
	}
	return false
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case int, int64, uint64, float64, bool:
		return fmt.Sprint(t), true
	}
	return "", false
}

func stringList(v any) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := scalarString(item)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

func number(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float64:
		return t, true
	}
	return 0, false
}

func parseTimestamp(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, strings.TrimSpace(t)); err == nil {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}
