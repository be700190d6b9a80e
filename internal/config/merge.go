package config

// Merge overlays local onto shared. Mappings merge recursively; sequences and scalars
// from local replace the shared value wholesale. Neither input is mutated and a nil
// local is treated as an empty mapping.
func Merge(shared, local map[string]any) map[string]any {
	out := deepCopy(shared)
	for k, lv := range local {
		sv, ok := out[k]
		lm, lok := asMap(lv)
		sm, sok := asMap(sv)
		if ok && lok && sok {
			out[k] = Merge(sm, lm)
			continue
		}
		out[k] = copyValue(lv)
	}
	return out
}

func deepCopy(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	if m, ok := asMap(v); ok {
		return deepCopy(m)
	}
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = copyValue(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = deepCopy(item)
		}
		return out
	}
	return v
}

// asMap normalizes the mapping shapes the YAML and TOML decoders produce.
func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	}
	return nil, false
}
