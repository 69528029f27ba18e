// Package glue generates the JS files the split bundles need at runtime:
// the async module-loader shim and the DLL entry file.
package glue

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"text/template"

	"github.com/bundleops/dllsplit/internal/hooks"
	"github.com/bundleops/dllsplit/internal/options"
	"github.com/bundleops/dllsplit/internal/safeio"
)

// PackageName appears in generated-file headers.
const PackageName = "dllsplit"

// DLLEntryFileName is the generated DLL entry file, written under the
// configured reference directory.
const DLLEntryFileName = "dll.entry.js"

type AsyncRequireData struct {
	PackageName      string
	LoaderModulePath string
	ChunkDir         string
	FileSuffix       string
	HashLength       int
	TimeoutMS        int
	Extra            map[string]string
}

// RenderAsyncRequire renders the shim from tpl, or from the default
// template when tpl is empty.
func RenderAsyncRequire(tpl string, data AsyncRequireData) (string, error) {
	if strings.TrimSpace(tpl) == "" {
		tpl = defaultAsyncRequireTpl
	}
	parsed, err := template.New("async-require").Parse(tpl)
	if err != nil {
		return "", fmt.Errorf("parse async-require template: %w", err)
	}
	var rendered strings.Builder
	if err := parsed.Execute(&rendered, data); err != nil {
		return "", fmt.Errorf("render async-require template: %w", err)
	}
	return rendered.String(), nil
}

// RenderDLLEntry produces the DLL entry file: one import plus a load log
// per configured entry, so every DLL module is reachable from the DLL
// bundle's root.
func RenderDLLEntry(entries []string) string {
	var rendered strings.Builder
	rendered.WriteString("/**\n * Generated by " + PackageName + ". Do not edit.\n */\n'use strict';\n\n")
	for _, entry := range entries {
		fmt.Fprintf(&rendered, "require('%s');\nconsole.log('dll entry loaded: %s');\n", entry, entry)
	}
	return rendered.String()
}

// Generator writes both glue files. Init is memoized: repeated calls do not
// redo file generation.
type Generator struct {
	rootDir string
	opts    options.Values
	emit    *hooks.Series[hooks.Chunk]

	once sync.Once
	err  error
}

func NewGenerator(rootDir string, opts options.Values, emit *hooks.Series[hooks.Chunk]) *Generator {
	return &Generator{rootDir: rootDir, opts: opts, emit: emit}
}

func (g *Generator) Init(ctx context.Context) error {
	g.once.Do(func() {
		g.err = g.generate(ctx)
	})
	return g.err
}

func (g *Generator) generate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	shim, err := RenderAsyncRequire(g.opts.AsyncRequireTpl, AsyncRequireData{
		PackageName:      PackageName,
		LoaderModulePath: g.opts.BundleToStringPath,
		ChunkDir:         g.opts.Output.ChunkDir,
		FileSuffix:       ".js",
		HashLength:       g.opts.Output.ChunkHashLength,
		TimeoutMS:        g.opts.Output.ChunkLoadTimeoutMS,
		Extra:            g.opts.AsyncRequireTplExtraOptions,
	})
	if err != nil {
		return err
	}
	if err := g.writeChunk(ctx, "async-require", g.opts.AsyncRequirePath, shim); err != nil {
		return err
	}

	entryPath := filepath.Join(g.opts.DLL.ReferenceDir, DLLEntryFileName)
	return g.writeChunk(ctx, "dll-entry", entryPath, RenderDLLEntry(g.opts.DLL.Entry))
}

func (g *Generator) writeChunk(ctx context.Context, name, relPath, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	chunk := hooks.Chunk{Name: name, Path: filepath.Join(g.rootDir, relPath)}
	if g.emit != nil {
		// Handlers may redirect the write target.
		chunk = g.emit.Call(chunk)
	}
	if err := safeio.WriteFileUnder(g.rootDir, chunk.Path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", relPath, err)
	}
	return nil
}
