package app

import (
	"strings"

	"github.com/bundleops/dllsplit/internal/bundleconfig"
	"github.com/bundleops/dllsplit/internal/hooks"
)

// builtinPlugin registers last, after all caller plugins. On series hooks
// its handlers therefore run after every external one; on bail hooks the
// external plugins get priority.
type builtinPlugin struct{}

func (builtinPlugin) Register(r *hooks.Registry) {
	// External plugins may extend the freeze list but not strip the
	// defaults.
	r.BeforeFreezeCheck.Tap(func(fields []string) []string {
		present := make(map[string]struct{}, len(fields))
		for _, field := range fields {
			present[field] = struct{}{}
		}
		for _, field := range bundleconfig.DefaultFreezeFields() {
			if _, ok := present[field]; !ok {
				fields = append(fields, field)
			}
		}
		return fields
	})

	r.AfterSerialize.Tap(func(output string) string {
		if output != "" && !strings.HasSuffix(output, "\n") {
			output += "\n"
		}
		return output
	})
}
