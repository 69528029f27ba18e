// Package outputs selects the active bundle output variant from the
// --bundle-output flag value.
package outputs

import "regexp"

type Kind string

const (
	KindDllJson  Kind = "dll-json"
	KindDll      Kind = "dll"
	KindBusiness Kind = "business"
)

// Filter describes how the variant treats DLL-classified modules during
// serialization.
type Filter string

const (
	// FilterCollect accumulates every visited module for the manifest.
	FilterCollect Filter = "collect"
	// FilterDllOnly keeps only modules present in the manifest.
	FilterDllOnly Filter = "dll-only"
	// FilterBusinessOnly drops modules present in the manifest.
	FilterBusinessOnly Filter = "business-only"
)

type Info struct {
	Kind   Kind
	Filter Filter
	rule   *regexp.Regexp
}

// ProducesManifest reports whether this variant's build emits the DLL
// manifest as its output.
func (i Info) ProducesManifest() bool {
	return i.Kind == KindDllJson
}

func (i Info) Matches(bundleOutput string) bool {
	return i.rule != nil && i.rule.MatchString(bundleOutput)
}

// All returns the known variants in match order. The business variant has
// no rule; it is the fallback.
func All() []Info {
	return []Info{
		{Kind: KindDllJson, Filter: FilterCollect, rule: regexp.MustCompile(`\.dll\.json$`)},
		{Kind: KindDll, Filter: FilterDllOnly, rule: regexp.MustCompile(`\.dll\.js$`)},
		{Kind: KindBusiness, Filter: FilterBusinessOnly},
	}
}

// Select matches bundleOutput against each variant's rule in order and
// returns the first match, falling back to the business variant.
func Select(variants []Info, bundleOutput string) Info {
	fallback := Info{Kind: KindBusiness, Filter: FilterBusinessOnly}
	for _, variant := range variants {
		if variant.Matches(bundleOutput) {
			return variant
		}
		if variant.Kind == KindBusiness {
			fallback = variant
		}
	}
	return fallback
}
