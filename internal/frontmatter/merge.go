package frontmatter

import (
	"reflect"
	"time"

	"gopkg.in/yaml.v3"
)

// Merge overlays updated onto orig and returns the mapping to write plus whether anything
// differs. Values that are semantically unchanged keep their original node so style,
// comments and key order survive a save. Changed values replace the original in place,
// keys missing from updated are dropped unless the original held an empty value, and new
// keys are appended in updated's order.
func Merge(orig, updated *yaml.Node) (*yaml.Node, bool) {
	orig, updated = unwrap(orig), unwrap(updated)
	if orig == nil || orig.Kind != yaml.MappingNode {
		return updated, true
	}
	if updated == nil || updated.Kind != yaml.MappingNode {
		return updated, true
	}
	return mergeMapping(orig, updated)
}

func mergeMapping(orig, updated *yaml.Node) (*yaml.Node, bool) {
	out := *orig
	out.Content = make([]*yaml.Node, 0, len(updated.Content))
	changed := false
	seen := make(map[string]bool, len(orig.Content)/2)

	for i := 0; i+1 < len(orig.Content); i += 2 {
		key, val := orig.Content[i], orig.Content[i+1]
		seen[key.Value] = true

		newVal := lookup(updated, key.Value)
		if newVal == nil {
			// an explicitly empty value decodes to a zero field that is omitted on encode
			if isEmpty(val) {
				out.Content = append(out.Content, key, val)
			} else {
				changed = true
			}
			continue
		}
		merged, c := mergeValue(val, newVal)
		changed = changed || c
		out.Content = append(out.Content, key, merged)
	}

	for i := 0; i+1 < len(updated.Content); i += 2 {
		key := updated.Content[i]
		if seen[key.Value] {
			continue
		}
		changed = true
		out.Content = append(out.Content, key, updated.Content[i+1])
	}
	return &out, changed
}

func mergeValue(orig, updated *yaml.Node) (*yaml.Node, bool) {
	if Equal(orig, updated) {
		return orig, false
	}
	o, u := unwrap(orig), unwrap(updated)
	switch {
	case o.Kind == yaml.MappingNode && u.Kind == yaml.MappingNode:
		merged, _ := mergeMapping(o, u)
		return merged, true
	case o.Kind == yaml.SequenceNode && u.Kind == yaml.SequenceNode:
		return mergeSequence(o, u), true
	}
	repl := *u
	repl.HeadComment, repl.LineComment, repl.FootComment = o.HeadComment, o.LineComment, o.FootComment
	if o.Kind == yaml.ScalarNode && u.Kind == yaml.ScalarNode && o.ShortTag() == "!!str" && u.ShortTag() == "!!str" {
		repl.Style = o.Style
	}
	return &repl, true
}

// mergeSequence keeps the original sequence style and any leading elements that did not
// change.
func mergeSequence(orig, updated *yaml.Node) *yaml.Node {
	out := *orig
	out.Content = make([]*yaml.Node, len(updated.Content))
	for i, item := range updated.Content {
		if i < len(orig.Content) && Equal(orig.Content[i], item) {
			out.Content[i] = orig.Content[i]
			continue
		}
		out.Content[i] = item
	}
	return &out
}

// Equal reports whether two nodes hold the same data regardless of presentation.
func Equal(a, b *yaml.Node) bool {
	a, b = unwrap(a), unwrap(b)
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case yaml.ScalarNode:
		if a.ShortTag() == "!!timestamp" || b.ShortTag() == "!!timestamp" {
			ta, okA := scalarTime(a)
			tb, okB := scalarTime(b)
			if okA && okB {
				return ta.Equal(tb)
			}
		}
		if a.Value == b.Value && (a.ShortTag() == b.ShortTag() || a.ShortTag() == "!!str" || b.ShortTag() == "!!str") {
			return true
		}
		var va, vb any
		if a.Decode(&va) != nil || b.Decode(&vb) != nil {
			return false
		}
		if fa, ok := toFloat(va); ok {
			fb, ok := toFloat(vb)
			return ok && fa == fb
		}
		return reflect.DeepEqual(va, vb)
	case yaml.SequenceNode:
		if len(a.Content) != len(b.Content) {
			return false
		}
		for i := range a.Content {
			if !Equal(a.Content[i], b.Content[i]) {
				return false
			}
		}
		return true
	case yaml.MappingNode:
		if len(a.Content) != len(b.Content) {
			return false
		}
		for i := 0; i+1 < len(a.Content); i += 2 {
			if !Equal(a.Content[i+1], lookup(b, a.Content[i].Value)) {
				return false
			}
		}
		return true
	}
	return false
}

// timestampLayouts are the forms a timestamp may take on either side of a comparison:
// the YAML variants a hand edit produces and the encoder's RFC 3339.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05 Z07:00",
	time.DateOnly,
}

// scalarTime reads a timestamp from a scalar tagged as one or from a string holding one.
// A quoted date and the bare date the encoder writes for it hold the same value.
func scalarTime(n *yaml.Node) (time.Time, bool) {
	switch n.ShortTag() {
	case "!!timestamp":
		var t time.Time
		if n.Decode(&t) == nil {
			return t, true
		}
	case "!!str":
	default:
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, n.Value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func lookup(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func isEmpty(n *yaml.Node) bool {
	n = unwrap(n)
	switch n.Kind {
	case yaml.ScalarNode:
		return n.ShortTag() == "!!null" || (n.ShortTag() == "!!str" && n.Value == "")
	case yaml.SequenceNode, yaml.MappingNode:
		return len(n.Content) == 0
	}
	return false
}
