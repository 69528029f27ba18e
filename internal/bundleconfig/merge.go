package bundleconfig

// Merge combines configuration layers lowest-precedence first; later layers
// win. Nested objects merge recursively, everything else is replaced. The
// inputs are not mutated.
func Merge(layers ...Config) Config {
	merged := Config{}
	for _, layer := range layers {
		merged = mergeObjects(merged, layer)
	}
	return merged
}

func mergeObjects(base, overlay map[string]any) map[string]any {
	result := make(map[string]any, len(base)+len(overlay))
	for key, value := range base {
		result[key] = copyValue(value)
	}
	for key, value := range overlay {
		existing, haveExisting := result[key]
		existingObj, existingIsObj := asObject(existing)
		overlayObj, overlayIsObj := asObject(value)
		if haveExisting && existingIsObj && overlayIsObj {
			result[key] = mergeObjects(existingObj, overlayObj)
			continue
		}
		result[key] = copyValue(value)
	}
	return result
}

func copyValue(value any) any {
	if obj, ok := asObject(value); ok {
		return mergeObjects(nil, obj)
	}
	if list, ok := value.([]any); ok {
		copied := make([]any, len(list))
		for i, item := range list {
			copied[i] = copyValue(item)
		}
		return copied
	}
	return value
}
