package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bundleops/dllsplit/internal/bundleconfig"
	"github.com/bundleops/dllsplit/internal/environ"
	"github.com/bundleops/dllsplit/internal/hooks"
	"github.com/bundleops/dllsplit/internal/manifest"
	"github.com/bundleops/dllsplit/internal/moduleid"
	"github.com/bundleops/dllsplit/internal/outputs"
	"github.com/bundleops/dllsplit/internal/testutil"
)

func productionEnv(string) string { return "production" }

func newRequest(mode Mode, repo string) Request {
	req := DefaultRequest()
	req.Mode = mode
	req.RepoPath = repo
	req.Getenv = productionEnv
	return req
}

func TestExecuteRejectsNonProduction(t *testing.T) {
	req := newRequest(ModeConfig, t.TempDir())
	req.Getenv = func(string) string { return "development" }

	_, err := New().Execute(context.Background(), req)
	if !errors.Is(err, environ.ErrNotProduction) {
		t.Fatalf("expected ErrNotProduction, got %v", err)
	}
}

func TestExecuteUnknownMode(t *testing.T) {
	req := newRequest(Mode("bogus"), t.TempDir())
	_, err := New().Execute(context.Background(), req)
	if !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
}

func TestExecuteConfigMergePrecedence(t *testing.T) {
	repo := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(repo, "metro.config.json"), `{
  "projectRoot": "/app",
  "output": {"chunkDir": "caller-chunks"},
  "serializer": {"unrelatedField": 1}
}`)

	req := newRequest(ModeConfig, repo)
	req.BusinessConfigPath = "metro.config.json"

	output, err := New().Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	var merged map[string]any
	if err := json.Unmarshal([]byte(output), &merged); err != nil {
		t.Fatalf("parse merged config: %v", err)
	}
	outputSection := merged["output"].(map[string]any)
	if outputSection["chunkDir"] != "chunks" {
		t.Fatalf("mandatory chunkDir must win, got %v", outputSection["chunkDir"])
	}
	if merged["projectRoot"] != "/app" {
		t.Fatalf("caller-only key must pass through, got %v", merged["projectRoot"])
	}
	serializer := merged["serializer"].(map[string]any)
	if serializer["processModuleFilter"] != "dllsplit/classifier" {
		t.Fatalf("expected classifier reference, got %v", serializer["processModuleFilter"])
	}
	if serializer["unrelatedField"] != float64(1) {
		t.Fatalf("unrelated serializer key must survive, got %v", serializer["unrelatedField"])
	}
}

func TestExecuteConfigFrozenFieldIsFatal(t *testing.T) {
	repo := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(repo, "metro.config.json"), `{
  "serializer": {"processModuleFilter": "mine"}
}`)

	afterFired := false
	application := New()
	application.Plugins = []hooks.Plugin{hooks.PluginFunc(func(r *hooks.Registry) {
		r.AfterFreezeCheck.Tap(func(fields []string) []string {
			afterFired = true
			return fields
		})
	})}

	req := newRequest(ModeConfig, repo)
	req.BusinessConfigPath = "metro.config.json"

	_, err := application.Execute(context.Background(), req)
	if !errors.Is(err, bundleconfig.ErrFrozenField) {
		t.Fatalf("expected ErrFrozenField, got %v", err)
	}
	if !afterFired {
		t.Fatal("after-freeze hook must fire even when the guard fails")
	}
}

func TestExecuteConfigPluginExtendsFreezeList(t *testing.T) {
	repo := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(repo, "metro.config.json"), `{
  "resolver": {"blockList": "custom"}
}`)

	application := New()
	application.Plugins = []hooks.Plugin{hooks.PluginFunc(func(r *hooks.Registry) {
		r.BeforeFreezeCheck.Tap(func(fields []string) []string {
			return append(fields, "resolver.blockList")
		})
	})}

	req := newRequest(ModeConfig, repo)
	req.BusinessConfigPath = "metro.config.json"

	_, err := application.Execute(context.Background(), req)
	if !errors.Is(err, bundleconfig.ErrFrozenField) {
		t.Fatalf("expected plugin-extended freeze list to trip, got %v", err)
	}
}

func TestExecuteClassifyBusinessVariant(t *testing.T) {
	repo := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(repo, "dll", manifest.FileName),
		`["node_modules/react/index.js"]`)

	req := newRequest(ModeClassify, repo)
	req.BundleOutput = "build/index.js"
	req.Modules = []string{"node_modules/react/index.js", "src/app.js"}

	output, err := New().Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(output, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", output)
	}
	if lines[0] != "node_modules/react/index.js\tdll\tdropped\t-" {
		t.Fatalf("unexpected dll line: %q", lines[0])
	}
	if lines[1] != fmt.Sprintf("src/app.js\tbusiness\tkept\t%d", moduleid.BusinessOffset) {
		t.Fatalf("unexpected business line: %q", lines[1])
	}
}

func TestExecuteClassifyAssignsStableModuleIDs(t *testing.T) {
	repo := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(repo, "dll", manifest.FileName),
		`["node_modules/react/index.js"]`)

	var serialized []hooks.Module
	application := New()
	application.Plugins = []hooks.Plugin{hooks.PluginFunc(func(r *hooks.Registry) {
		r.Serialize.Tap(func(req hooks.SerializeRequest) (string, bool) {
			serialized = req.Modules
			return "", false
		})
	})}

	req := newRequest(ModeClassify, repo)
	req.BundleOutput = "build/index.js"
	req.Modules = []string{
		"src/app.js",
		"src/lib.js",
		"src/app.js",
		"node_modules/react/index.js",
	}

	output, err := application.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(output, "\n"), "\n")
	want := []string{
		fmt.Sprintf("src/app.js\tbusiness\tkept\t%d", moduleid.BusinessOffset),
		fmt.Sprintf("src/lib.js\tbusiness\tkept\t%d", moduleid.BusinessOffset+1),
		fmt.Sprintf("src/app.js\tbusiness\tkept\t%d", moduleid.BusinessOffset),
		"node_modules/react/index.js\tdll\tdropped\t-",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %q", len(want), output)
	}
	for i, line := range lines {
		if line != want[i] {
			t.Fatalf("line %d: got %q, want %q", i, line, want[i])
		}
	}

	if len(serialized) != 4 {
		t.Fatalf("expected 4 serialized modules, got %d", len(serialized))
	}
	if serialized[0].ID != moduleid.BusinessOffset || serialized[2].ID != moduleid.BusinessOffset {
		t.Fatalf("repeat visits must keep the assigned ID, got %d and %d",
			serialized[0].ID, serialized[2].ID)
	}
	if serialized[3].ID != 0 {
		t.Fatalf("dll modules carry no business ID, got %d", serialized[3].ID)
	}
}

func TestExecuteClassifyManifestProducerWritesManifest(t *testing.T) {
	repo := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(repo, ".dllsplit.yml"),
		"dll:\n  entry:\n    - react\n")

	application := New()
	application.Debounce = time.Hour // Execute flushes; the timer must not matter.

	req := newRequest(ModeClassify, repo)
	req.BundleOutput = "build/vendor.dll.json"
	req.Modules = []string{
		"node_modules/react/index.js",
		"node_modules/react/index.js",
		"src/app.js",
	}

	if _, err := application.Execute(context.Background(), req); err != nil {
		t.Fatalf("execute: %v", err)
	}

	manifestPath := filepath.Join(repo, "dll", manifest.FileName)
	var entries []string
	if err := json.Unmarshal([]byte(testutil.MustReadFile(t, manifestPath)), &entries); err != nil {
		t.Fatalf("parse manifest: %v", err)
	}
	if len(entries) != 1 || entries[0] != "node_modules/react/index.js" {
		t.Fatalf("expected deduplicated library manifest, got %v", entries)
	}
}

func TestExecuteClassifyMissingManifestDoesNotFail(t *testing.T) {
	repo := t.TempDir()
	req := newRequest(ModeClassify, repo)
	req.BundleOutput = "build/index.js"
	req.Modules = []string{"src/app.js"}

	output, err := New().Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("classification must not fail on missing manifest: %v", err)
	}
	if !strings.Contains(output, "src/app.js\tbusiness") {
		t.Fatalf("expected business classification, got %q", output)
	}
}

func TestExecuteClassifySerializePluginShortCircuits(t *testing.T) {
	repo := t.TempDir()
	application := New()
	application.Plugins = []hooks.Plugin{hooks.PluginFunc(func(r *hooks.Registry) {
		r.Serialize.Tap(func(req hooks.SerializeRequest) (string, bool) {
			return "custom:" + string(req.Variant.Kind), true
		})
	})}

	req := newRequest(ModeClassify, repo)
	req.BundleOutput = "build/index.js"
	req.Modules = []string{"src/app.js"}

	output, err := application.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	// The built-in plugin appends the trailing newline after serialization.
	if output != "custom:business\n" {
		t.Fatalf("expected custom serializer output, got %q", output)
	}
}

func TestExecuteInitGeneratesGlueFiles(t *testing.T) {
	repo := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(repo, ".dllsplit.yml"),
		"dll:\n  entry:\n    - react\n")

	req := newRequest(ModeInit, repo)
	output, err := New().Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(output, "generated") {
		t.Fatalf("expected generation summary, got %q", output)
	}
	if _, err := os.Stat(filepath.Join(repo, ".dllsplit", "async-require.js")); err != nil {
		t.Fatalf("expected async-require shim: %v", err)
	}
	if _, err := os.Stat(filepath.Join(repo, "dll", "dll.entry.js")); err != nil {
		t.Fatalf("expected dll entry file: %v", err)
	}
}

func TestExecuteBeforeOutputsPluginRewritesVariants(t *testing.T) {
	repo := t.TempDir()
	application := New()
	application.Plugins = []hooks.Plugin{hooks.PluginFunc(func(r *hooks.Registry) {
		// Dropping every rule forces the business fallback even for a
		// dll.json output path.
		r.BeforeOutputs.Tap(func([]outputs.Info) []outputs.Info {
			return nil
		})
	})}

	req := newRequest(ModeClassify, repo)
	req.BundleOutput = "build/vendor.dll.json"
	req.Modules = []string{"src/app.js"}

	if _, err := application.Execute(context.Background(), req); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if _, err := os.Stat(filepath.Join(repo, "dll", manifest.FileName)); !os.IsNotExist(err) {
		t.Fatal("business fallback must not produce a manifest")
	}
}
