package options

import (
	"fmt"
	"strings"
)

const (
	DefaultPublicPath         = "/"
	DefaultChunkDir           = "chunks"
	DefaultChunkHashLength    = 20
	DefaultChunkLoadTimeoutMS = 10000
	DefaultReferenceDir       = "dll"
	DefaultAsyncFlag          = "async"
	DefaultMinSizeBytes       = 20480
	DefaultAsyncRequirePath   = ".dllsplit/async-require.js"
	DefaultBundleToStringPath = ".dllsplit/bundle-to-string.js"
)

type Output struct {
	PublicPath         string
	ChunkDir           string
	ChunkHashLength    int
	ChunkLoadTimeoutMS int
}

type DLL struct {
	Entry        []string
	ReferenceDir string
}

type DynamicImports struct {
	AsyncFlag string
	MinSize   int
	Disabled  bool
}

type Values struct {
	Output         Output
	DLL            DLL
	DynamicImports DynamicImports

	BaseJSBundlePath   string
	BundleToStringPath string
	AsyncRequirePath   string

	AsyncRequireTpl             string
	AsyncRequireTplExtraOptions map[string]string
}

type Overrides struct {
	PublicPath         *string
	ChunkDir           *string
	ChunkHashLength    *int
	ChunkLoadTimeoutMS *int

	DLLEntry        []string
	DLLReferenceDir *string

	AsyncFlag        *string
	MinSize          *int
	DynamicsDisabled *bool

	BaseJSBundlePath   *string
	BundleToStringPath *string
	AsyncRequirePath   *string

	AsyncRequireTpl             *string
	AsyncRequireTplExtraOptions map[string]string
}

func Defaults() Values {
	return Values{
		Output: Output{
			PublicPath:         DefaultPublicPath,
			ChunkDir:           DefaultChunkDir,
			ChunkHashLength:    DefaultChunkHashLength,
			ChunkLoadTimeoutMS: DefaultChunkLoadTimeoutMS,
		},
		DLL: DLL{
			ReferenceDir: DefaultReferenceDir,
		},
		DynamicImports: DynamicImports{
			AsyncFlag: DefaultAsyncFlag,
			MinSize:   DefaultMinSizeBytes,
		},
		BundleToStringPath: DefaultBundleToStringPath,
		AsyncRequirePath:   DefaultAsyncRequirePath,
	}
}

func (o *Overrides) Apply(base Values) Values {
	resolved := base
	if o.PublicPath != nil {
		resolved.Output.PublicPath = *o.PublicPath
	}
	if o.ChunkDir != nil {
		resolved.Output.ChunkDir = *o.ChunkDir
	}
	if o.ChunkHashLength != nil {
		resolved.Output.ChunkHashLength = *o.ChunkHashLength
	}
	if o.ChunkLoadTimeoutMS != nil {
		resolved.Output.ChunkLoadTimeoutMS = *o.ChunkLoadTimeoutMS
	}
	if len(o.DLLEntry) > 0 {
		resolved.DLL.Entry = append([]string{}, o.DLLEntry...)
	}
	if o.DLLReferenceDir != nil {
		resolved.DLL.ReferenceDir = *o.DLLReferenceDir
	}
	if o.AsyncFlag != nil {
		resolved.DynamicImports.AsyncFlag = *o.AsyncFlag
	}
	if o.MinSize != nil {
		resolved.DynamicImports.MinSize = *o.MinSize
	}
	if o.DynamicsDisabled != nil {
		resolved.DynamicImports.Disabled = *o.DynamicsDisabled
	}
	if o.BaseJSBundlePath != nil {
		resolved.BaseJSBundlePath = *o.BaseJSBundlePath
	}
	if o.BundleToStringPath != nil {
		resolved.BundleToStringPath = *o.BundleToStringPath
	}
	if o.AsyncRequirePath != nil {
		resolved.AsyncRequirePath = *o.AsyncRequirePath
	}
	if o.AsyncRequireTpl != nil {
		resolved.AsyncRequireTpl = *o.AsyncRequireTpl
	}
	if len(o.AsyncRequireTplExtraOptions) > 0 {
		extra := make(map[string]string, len(o.AsyncRequireTplExtraOptions))
		for key, value := range o.AsyncRequireTplExtraOptions {
			extra[key] = value
		}
		resolved.AsyncRequireTplExtraOptions = extra
	}
	return resolved
}

func (v *Values) Validate() error {
	if strings.TrimSpace(v.Output.ChunkDir) == "" {
		return fmt.Errorf("invalid option output.chunk_dir: must not be empty")
	}
	if v.Output.ChunkHashLength < 0 || v.Output.ChunkHashLength > 64 {
		return fmt.Errorf("invalid option output.chunk_hash_length: %d (must be between 0 and 64)", v.Output.ChunkHashLength)
	}
	if v.Output.ChunkLoadTimeoutMS <= 0 {
		return fmt.Errorf("invalid option output.chunk_load_timeout_ms: %d (must be > 0)", v.Output.ChunkLoadTimeoutMS)
	}
	if strings.TrimSpace(v.DLL.ReferenceDir) == "" {
		return fmt.Errorf("invalid option dll.reference_dir: must not be empty")
	}
	for i, entry := range v.DLL.Entry {
		if strings.TrimSpace(entry) == "" {
			return fmt.Errorf("invalid option dll.entry[%d]: must not be empty", i)
		}
	}
	if !v.DynamicImports.Disabled {
		if strings.TrimSpace(v.DynamicImports.AsyncFlag) == "" {
			return fmt.Errorf("invalid option dynamic_imports.async_flag: must not be empty")
		}
		if v.DynamicImports.MinSize < 0 {
			return fmt.Errorf("invalid option dynamic_imports.min_size: %d (must be >= 0)", v.DynamicImports.MinSize)
		}
	}
	if strings.TrimSpace(v.AsyncRequirePath) == "" {
		return fmt.Errorf("invalid option async_require_path: must not be empty")
	}
	return nil
}
