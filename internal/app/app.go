package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bundleops/dllsplit/internal/bundleconfig"
	"github.com/bundleops/dllsplit/internal/environ"
	"github.com/bundleops/dllsplit/internal/glue"
	"github.com/bundleops/dllsplit/internal/hooks"
	"github.com/bundleops/dllsplit/internal/logging"
	"github.com/bundleops/dllsplit/internal/manifest"
	"github.com/bundleops/dllsplit/internal/moduleid"
	"github.com/bundleops/dllsplit/internal/options"
	"github.com/bundleops/dllsplit/internal/outputs"
	"github.com/bundleops/dllsplit/internal/safeio"
)

var ErrUnknownMode = errors.New("unknown mode")

type App struct {
	// Plugins register before the built-in plugin, so they win first-result
	// hooks and observe before the built-in handlers on series hooks.
	Plugins []hooks.Plugin
	// Debounce overrides the manifest write debounce. Zero means the
	// default quiet period.
	Debounce time.Duration

	logger *zap.Logger
}

func New() *App {
	return &App{logger: logging.Logger()}
}

func (a *App) Execute(ctx context.Context, req Request) (string, error) {
	environ.Load(req.RepoPath)
	if err := environ.Check(req.Getenv); err != nil {
		return "", err
	}

	repoAbs, err := filepath.Abs(req.RepoPath)
	if err != nil {
		return "", fmt.Errorf("resolve repo path: %w", err)
	}

	opts, _, err := options.Resolve(req.RepoPath, req.ConfigPath)
	if err != nil {
		return "", err
	}

	registry := hooks.NewRegistry()
	plugins := append(append([]hooks.Plugin{}, a.Plugins...), builtinPlugin{})
	hooks.Install(registry, plugins)

	variants := registry.BeforeOutputs.Call(outputs.All())
	variant := outputs.Select(variants, req.BundleOutput)

	switch req.Mode {
	case ModeInit:
		return a.executeInit(ctx, repoAbs, opts, registry)
	case ModeConfig:
		return a.executeConfig(repoAbs, req, opts, variant, registry)
	case ModeClassify:
		return a.executeClassify(repoAbs, req, opts, variant, registry)
	default:
		return "", ErrUnknownMode
	}
}

func (a *App) executeInit(ctx context.Context, repoAbs string, opts options.Values, registry *hooks.Registry) (string, error) {
	generator := glue.NewGenerator(repoAbs, opts, &registry.BeforeChunkEmit)
	if err := generator.Init(ctx); err != nil {
		return "", err
	}
	entryPath := filepath.Join(opts.DLL.ReferenceDir, glue.DLLEntryFileName)
	return fmt.Sprintf("generated %s\ngenerated %s\n", opts.AsyncRequirePath, entryPath), nil
}

func (a *App) executeConfig(repoAbs string, req Request, opts options.Values, variant outputs.Info, registry *hooks.Registry) (string, error) {
	business, err := loadBusinessConfig(repoAbs, req.BusinessConfigPath)
	if err != nil {
		return "", err
	}

	freezeFields := registry.BeforeFreezeCheck.Call(bundleconfig.DefaultFreezeFields())
	guardErr := bundleconfig.CheckFrozen(business, freezeFields)
	// The after hook fires regardless of guard outcome.
	registry.AfterFreezeCheck.Call(freezeFields)
	if guardErr != nil {
		return "", guardErr
	}

	merged := bundleconfig.Merge(baseConfig(), business, a.mandatoryConfig(opts, variant))
	warnings, err := bundleconfig.ValidateShape(merged)
	if err != nil {
		return "", err
	}
	for _, warning := range warnings {
		a.logger.Warn("merged bundler config shape warning", zap.String("detail", warning))
	}

	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode merged config: %w", err)
	}
	return string(data) + "\n", nil
}

func (a *App) executeClassify(repoAbs string, req Request, opts options.Values, variant outputs.Info, registry *hooks.Registry) (string, error) {
	manifestPath := filepath.Join(repoAbs, manifest.PathUnder(opts.DLL.ReferenceDir))
	store := manifest.NewStore(repoAbs, manifestPath, variant.ProducesManifest())
	classifier := manifest.NewClassifier(repoAbs, store)

	factory, err := moduleid.NewFactory(repoAbs)
	if err != nil {
		return "", err
	}

	var collector *manifest.Collector
	if variant.ProducesManifest() {
		collector = manifest.NewCollector(repoAbs, manifestPath, a.Debounce)
	}

	modules := make([]hooks.Module, 0, len(req.Modules))
	lines := make([]string, 0, len(req.Modules))
	for _, module := range req.Modules {
		absolute := module
		if !filepath.IsAbs(absolute) {
			absolute = filepath.Join(repoAbs, module)
		}
		rel, ok := classifier.Relative(absolute)
		if !ok {
			lines = append(lines, module+"\tbusiness\tdropped\t-")
			continue
		}

		isDLL := classifier.IsDLL(absolute)
		id := 0
		if !isDLL {
			id, _ = factory.ID(absolute)
		}
		modules = append(modules, hooks.Module{AbsolutePath: absolute, RelativePath: rel, ID: id})

		if collector != nil {
			library := len(opts.DLL.Entry) > 0 && manifest.IsBaseDLLPath(rel, opts.DLL.Entry)
			collector.Visit(rel, library)
		}
		lines = append(lines, classifyLine(rel, isDLL, variant.Filter, id))
	}

	output, ok := registry.Serialize.Call(hooks.SerializeRequest{
		BundleOutput: req.BundleOutput,
		Variant:      variant,
		Modules:      modules,
	})
	if !ok {
		output = strings.Join(lines, "\n")
		if len(lines) > 0 {
			output += "\n"
		}
	}
	output = registry.AfterSerialize.Call(output)

	if collector != nil {
		// The CLI run ends before the debounce window elapses, so flush
		// here; failures stay non-fatal.
		if err := collector.Flush(); err != nil {
			a.logger.Warn("dll manifest write failed, build continues",
				zap.String("path", manifestPath),
				zap.Error(err))
		}
	}
	return output, nil
}

// classifyLine renders one module's disposition. The fourth column is the
// assigned business module ID, or "-" for DLL modules.
func classifyLine(rel string, isDLL bool, filter outputs.Filter, id int) string {
	classification := "business"
	moduleID := strconv.Itoa(id)
	if isDLL {
		classification = "dll"
		moduleID = "-"
	}
	kept := true
	switch filter {
	case outputs.FilterDllOnly:
		kept = isDLL
	case outputs.FilterBusinessOnly:
		kept = !isDLL
	}
	disposition := "kept"
	if !kept {
		disposition = "dropped"
	}
	return rel + "\t" + classification + "\t" + disposition + "\t" + moduleID
}

func loadBusinessConfig(repoAbs, path string) (bundleconfig.Config, error) {
	if strings.TrimSpace(path) == "" {
		return bundleconfig.Config{}, nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(repoAbs, path)
	}
	data, err := safeio.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read business config %s: %w", path, err)
	}
	var cfg bundleconfig.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse business config %s: %w", path, err)
	}
	return cfg, nil
}

func baseConfig() bundleconfig.Config {
	return bundleconfig.Config{
		"resetCache": false,
		"output": map[string]any{
			"publicPath": options.DefaultPublicPath,
		},
		"serializer": map[string]any{},
	}
}

// mandatoryConfig holds the fields this tool must control; it always wins
// the merge. The serializer entries are module references the host bundler
// resolves, not inline functions.
func (a *App) mandatoryConfig(opts options.Values, variant outputs.Info) bundleconfig.Config {
	runBefore := []any{}
	if opts.BaseJSBundlePath != "" {
		runBefore = append(runBefore, opts.BaseJSBundlePath)
	}
	dynamic := map[string]any{
		"disabled": opts.DynamicImports.Disabled,
	}
	if !opts.DynamicImports.Disabled {
		dynamic["asyncFlag"] = opts.DynamicImports.AsyncFlag
		dynamic["minSize"] = opts.DynamicImports.MinSize
	}
	return bundleconfig.Config{
		"serializer": map[string]any{
			"processModuleFilter":           glue.PackageName + "/classifier",
			"createModuleIdFactory":         glue.PackageName + "/module-id",
			"getModulesRunBeforeMainModule": runBefore,
		},
		"output": map[string]any{
			"publicPath":       opts.Output.PublicPath,
			"chunkDir":         opts.Output.ChunkDir,
			"chunkHashLength":  opts.Output.ChunkHashLength,
			"chunkLoadTimeout": opts.Output.ChunkLoadTimeoutMS,
			"bundleOutput":     string(variant.Kind),
		},
		"transformer": map[string]any{
			"asyncRequireModulePath": opts.AsyncRequirePath,
			"bundleToStringPath":     opts.BundleToStringPath,
			"dynamicImports":         dynamic,
			"moduleIdOffset":         moduleid.BusinessOffset,
		},
	}
}
