// Package bundleconfig builds the final bundler configuration: it guards
// reserved fields against caller overrides, then merges base defaults,
// caller-supplied business configuration, and the mandatory fields this
// tool computes.
package bundleconfig

import (
	"errors"
	"fmt"
	"strings"
)

// Config is the host bundler's configuration object.
type Config map[string]any

// ErrFrozenField is the fatal error for a reserved field set by the caller.
var ErrFrozenField = errors.New("reserved bundler configuration field overridden")

// DefaultFreezeFields lists the dotted key paths the caller must leave
// unset, because this tool supplies them itself.
func DefaultFreezeFields() []string {
	return []string{
		"serializer.processModuleFilter",
		"serializer.createModuleIdFactory",
		"serializer.getModulesRunBeforeMainModule",
		"output.chunkDir",
	}
}

// CheckFrozen walks each dotted key path through the caller configuration.
// A truthy value at the final segment is a conflict. A non-object value at
// an intermediate segment short-circuits: the structural shape cannot
// contain the reserved leaf.
func CheckFrozen(cfg Config, fields []string) error {
	for _, field := range fields {
		segments := strings.Split(field, ".")
		if conflictsAt(cfg, segments) {
			return fmt.Errorf("%w: %s", ErrFrozenField, field)
		}
	}
	return nil
}

func conflictsAt(cfg Config, segments []string) bool {
	current := any(cfg)
	for i, segment := range segments {
		node, ok := asObject(current)
		if !ok {
			return false
		}
		value, present := node[segment]
		if !present {
			return false
		}
		if i == len(segments)-1 {
			return truthy(value)
		}
		current = value
	}
	return false
}

func asObject(value any) (map[string]any, bool) {
	switch typed := value.(type) {
	case Config:
		return typed, true
	case map[string]any:
		return typed, true
	default:
		return nil, false
	}
}

// truthy mirrors the host bundler's loose semantics: nil, false, empty
// strings and numeric zero are falsy; everything else, including empty
// objects and arrays, is truthy.
func truthy(value any) bool {
	switch typed := value.(type) {
	case nil:
		return false
	case bool:
		return typed
	case string:
		return typed != ""
	case int:
		return typed != 0
	case int64:
		return typed != 0
	case float64:
		return typed != 0
	default:
		return true
	}
}
