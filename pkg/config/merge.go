package config

// Merge deep-merges src into dst and returns the result, with src winning on
// a per-field basis. Neither input is mutated.
//
// Rules:
//   - nested objects merge key by key, recursively
//   - arrays and scalars are replaced wholesale, never concatenated
//   - a key absent from src leaves the dst value untouched
//   - an explicit null in src overwrites the dst value ("set to nothing");
//     the null survives the merge so later layers can overwrite it again,
//     and PruneNulls strips whatever nulls remain after the final layer
func Merge(dst, src map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(dst)+len(src))
	for k, v := range dst {
		out[k] = cloneValue(v)
	}

	for k, v := range src {
		if v == nil {
			out[k] = nil
			continue
		}

		srcMap, srcIsMap := v.(map[string]interface{})
		dstMap, dstIsMap := out[k].(map[string]interface{})
		if srcIsMap && dstIsMap {
			out[k] = Merge(dstMap, srcMap)
			continue
		}

		out[k] = cloneValue(v)
	}

	return out
}

// MergeLayers merges partial configurations in ascending precedence order.
// The first layer is the lowest precedence; the last wins.
func MergeLayers(layers ...map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{}
	for _, layer := range layers {
		if layer == nil {
			continue
		}
		out = Merge(out, layer)
	}
	return out
}

// PruneNulls removes keys whose value is null, recursively. Explicit nulls
// are overwrite markers during the merge; once all layers are applied they
// mean "field unset" and must not reach schema validation.
func PruneNulls(values map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(values))
	for k, v := range values {
		if v == nil {
			continue
		}
		if m, ok := v.(map[string]interface{}); ok {
			out[k] = PruneNulls(m)
			continue
		}
		out[k] = v
	}
	return out
}

// cloneValue deep-copies maps and slices so merged output never aliases
// layer source data.
func cloneValue(v interface{}) interface{} {
	switch typed := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(typed))
		for k, inner := range typed {
			out[k] = cloneValue(inner)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(typed))
		for i, inner := range typed {
			out[i] = cloneValue(inner)
		}
		return out
	default:
		return v
	}
}
