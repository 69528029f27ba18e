package hooks

import "github.com/bundleops/dllsplit/internal/outputs"

// Module is one module visited during the bundler's serialization pass.
// ID is the assigned business module ID; it is zero for DLL modules, whose
// IDs belong to the DLL bundle's own pass.
type Module struct {
	AbsolutePath string
	RelativePath string
	ID           int
}

// SerializeRequest is handed to custom serializers registered on the
// Serialize bail hook.
type SerializeRequest struct {
	BundleOutput string
	Variant      outputs.Info
	Modules      []Module
}

// Chunk describes an artifact about to be written to disk.
type Chunk struct {
	Name string
	Path string
}

// Registry holds the six fixed lifecycle hooks.
type Registry struct {
	// BeforeOutputs may rewrite the output-variant list before selection.
	BeforeOutputs Series[[]outputs.Info]
	// BeforeFreezeCheck may extend or rewrite the frozen key-path list.
	BeforeFreezeCheck Series[[]string]
	// AfterFreezeCheck observes the list the guard actually used. It fires
	// regardless of guard outcome.
	AfterFreezeCheck Series[[]string]
	// Serialize lets a plugin replace the default serializer. First
	// handler returning ok wins.
	Serialize Bail[SerializeRequest, string]
	// BeforeChunkEmit fires before each generated artifact is written.
	BeforeChunkEmit Series[Chunk]
	// AfterSerialize runs over the final serializer output.
	AfterSerialize Series[string]
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Plugin is the registration contract. Register is invoked once at
// construction; caller-supplied plugins register before the built-in one.
type Plugin interface {
	Register(r *Registry)
}

// PluginFunc adapts a plain function to the Plugin interface.
type PluginFunc func(r *Registry)

func (f PluginFunc) Register(r *Registry) {
	f(r)
}

// Install registers every plugin in order.
func Install(r *Registry, plugins []Plugin) {
	for _, plugin := range plugins {
		if plugin == nil {
			continue
		}
		plugin.Register(r)
	}
}
