package options

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/bundleops/dllsplit/internal/safeio"
)

const (
	readOptionsFileErrFmt  = "read options file %s: %w"
	parseOptionsFileErrFmt = "parse options file %s: %w"
)

var configFileNames = []string{".dllsplit.yml", ".dllsplit.yaml", ".dllsplit.toml", "dllsplit.json"}

// Load reads the project options file, if any, and returns the overrides it
// contains together with the resolved file path. A missing options file is
// not an error; the returned overrides are then empty.
func Load(repoPath, explicitPath string) (Overrides, string, error) {
	repoAbs, err := filepath.Abs(repoPath)
	if err != nil {
		return Overrides{}, "", fmt.Errorf("resolve repo path: %w", err)
	}
	explicitProvided := strings.TrimSpace(explicitPath) != ""

	configPath, found, err := resolveConfigPath(repoAbs, strings.TrimSpace(explicitPath))
	if err != nil {
		return Overrides{}, "", err
	}
	if !found {
		return Overrides{}, "", nil
	}

	data, err := readConfigFile(repoAbs, configPath, explicitProvided)
	if err != nil {
		return Overrides{}, "", fmt.Errorf(readOptionsFileErrFmt, configPath, err)
	}
	overrides, err := parseConfig(configPath, data)
	if err != nil {
		return Overrides{}, "", fmt.Errorf(parseOptionsFileErrFmt, configPath, err)
	}
	return overrides, configPath, nil
}

// Resolve loads the options file and applies it over the defaults,
// validating the result.
func Resolve(repoPath, explicitPath string) (Values, string, error) {
	overrides, configPath, err := Load(repoPath, explicitPath)
	if err != nil {
		return Values{}, "", err
	}
	resolved := overrides.Apply(Defaults())
	if err := resolved.Validate(); err != nil {
		if configPath != "" {
			return Values{}, "", fmt.Errorf(parseOptionsFileErrFmt, configPath, err)
		}
		return Values{}, "", err
	}
	return resolved, configPath, nil
}

func resolveConfigPath(repoPath, explicitPath string) (string, bool, error) {
	if explicitPath != "" {
		candidate := explicitPath
		if !filepath.IsAbs(candidate) {
			candidate = filepath.Join(repoPath, candidate)
		}
		candidate = filepath.Clean(candidate)
		if _, err := os.Stat(candidate); err != nil {
			if os.IsNotExist(err) {
				return "", false, fmt.Errorf("options file not found: %s", candidate)
			}
			return "", false, fmt.Errorf(readOptionsFileErrFmt, candidate, err)
		}
		return candidate, true, nil
	}

	for _, name := range configFileNames {
		candidate := filepath.Join(repoPath, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if err != nil && !os.IsNotExist(err) {
			return "", false, fmt.Errorf(readOptionsFileErrFmt, candidate, err)
		}
	}

	return "", false, nil
}

func readConfigFile(repoPath, path string, explicitProvided bool) ([]byte, error) {
	if !explicitProvided || isPathUnderRoot(repoPath, path) {
		return safeio.ReadFileUnder(repoPath, path)
	}
	return safeio.ReadFile(path)
}

func parseConfig(path string, data []byte) (Overrides, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		var cfg rawConfig
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return Overrides{}, fmt.Errorf("invalid JSON options: %w", err)
		}
		if decoder.More() {
			return Overrides{}, fmt.Errorf("invalid JSON options: multiple JSON values")
		}
		return cfg.toOverrides(), nil
	case ".toml":
		var cfg rawConfig
		decoder := toml.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return Overrides{}, fmt.Errorf("invalid TOML options: %w", err)
		}
		return cfg.toOverrides(), nil
	default:
		var cfg rawConfig
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil {
			return Overrides{}, fmt.Errorf("invalid YAML options: %w", err)
		}
		return cfg.toOverrides(), nil
	}
}

type rawConfig struct {
	Output         rawOutput         `yaml:"output" json:"output" toml:"output"`
	DLL            rawDLL            `yaml:"dll" json:"dll" toml:"dll"`
	DynamicImports rawDynamicImports `yaml:"dynamic_imports" json:"dynamic_imports" toml:"dynamic_imports"`

	BaseJSBundlePath   *string `yaml:"base_js_bundle_path" json:"base_js_bundle_path" toml:"base_js_bundle_path"`
	BundleToStringPath *string `yaml:"bundle_to_string_path" json:"bundle_to_string_path" toml:"bundle_to_string_path"`
	AsyncRequirePath   *string `yaml:"async_require_path" json:"async_require_path" toml:"async_require_path"`

	AsyncRequireTpl             *string           `yaml:"async_require_tpl" json:"async_require_tpl" toml:"async_require_tpl"`
	AsyncRequireTplExtraOptions map[string]string `yaml:"async_require_tpl_extra_options" json:"async_require_tpl_extra_options" toml:"async_require_tpl_extra_options"`
}

type rawOutput struct {
	PublicPath         *string `yaml:"public_path" json:"public_path" toml:"public_path"`
	ChunkDir           *string `yaml:"chunk_dir" json:"chunk_dir" toml:"chunk_dir"`
	ChunkHashLength    *int    `yaml:"chunk_hash_length" json:"chunk_hash_length" toml:"chunk_hash_length"`
	ChunkLoadTimeoutMS *int    `yaml:"chunk_load_timeout_ms" json:"chunk_load_timeout_ms" toml:"chunk_load_timeout_ms"`
}

type rawDLL struct {
	Entry        []string `yaml:"entry" json:"entry" toml:"entry"`
	ReferenceDir *string  `yaml:"reference_dir" json:"reference_dir" toml:"reference_dir"`
}

type rawDynamicImports struct {
	AsyncFlag *string      `yaml:"async_flag" json:"async_flag" toml:"async_flag"`
	MinSize   *flexMinSize `yaml:"min_size" json:"min_size" toml:"-"`
	Disabled  *bool        `yaml:"disabled" json:"disabled" toml:"disabled"`

	// TOML cannot express the false-or-number union, so the TOML form is a
	// plain byte count with disabled as a separate key.
	MinSizeTOML *int `yaml:"-" json:"-" toml:"min_size"`
}

// flexMinSize accepts either a byte count or the literal false, which
// disables dynamic-import splitting entirely.
type flexMinSize struct {
	disabled bool
	bytes    int
}

func (m *flexMinSize) UnmarshalYAML(node *yaml.Node) error {
	var enabled bool
	if err := node.Decode(&enabled); err == nil {
		if enabled {
			return fmt.Errorf("min_size: true is not a valid value")
		}
		m.disabled = true
		return nil
	}
	var size int
	if err := node.Decode(&size); err != nil {
		return fmt.Errorf("min_size must be a byte count or false")
	}
	m.bytes = size
	return nil
}

func (m *flexMinSize) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "false" {
		m.disabled = true
		return nil
	}
	if trimmed == "true" {
		return fmt.Errorf("min_size: true is not a valid value")
	}
	var size int
	if err := json.Unmarshal(data, &size); err != nil {
		return fmt.Errorf("min_size must be a byte count or false")
	}
	m.bytes = size
	return nil
}

func (c *rawConfig) toOverrides() Overrides {
	overrides := Overrides{
		PublicPath:         c.Output.PublicPath,
		ChunkDir:           c.Output.ChunkDir,
		ChunkHashLength:    c.Output.ChunkHashLength,
		ChunkLoadTimeoutMS: c.Output.ChunkLoadTimeoutMS,

		DLLEntry:        append([]string{}, c.DLL.Entry...),
		DLLReferenceDir: c.DLL.ReferenceDir,

		AsyncFlag:        c.DynamicImports.AsyncFlag,
		DynamicsDisabled: c.DynamicImports.Disabled,

		BaseJSBundlePath:   c.BaseJSBundlePath,
		BundleToStringPath: c.BundleToStringPath,
		AsyncRequirePath:   c.AsyncRequirePath,

		AsyncRequireTpl:             c.AsyncRequireTpl,
		AsyncRequireTplExtraOptions: c.AsyncRequireTplExtraOptions,
	}
	if c.DynamicImports.MinSizeTOML != nil {
		overrides.MinSize = c.DynamicImports.MinSizeTOML
	}
	if c.DynamicImports.MinSize != nil {
		if c.DynamicImports.MinSize.disabled {
			disabled := true
			overrides.DynamicsDisabled = &disabled
		} else {
			size := c.DynamicImports.MinSize.bytes
			overrides.MinSize = &size
		}
	}
	return overrides
}

func isPathUnderRoot(rootPath, targetPath string) bool {
	relative, err := filepath.Rel(rootPath, targetPath)
	if err != nil {
		return false
	}
	return relative != ".." && !strings.HasPrefix(relative, ".."+string(os.PathSeparator))
}
