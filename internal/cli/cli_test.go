package cli

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/bundleops/dllsplit/internal/app"
	"github.com/bundleops/dllsplit/internal/bundleconfig"
	"github.com/bundleops/dllsplit/internal/environ"
)

type stubRunner struct {
	output string
	err    error
}

func (s stubRunner) Execute(context.Context, app.Request) (string, error) {
	return s.output, s.err
}

func runCLI(t *testing.T, runner Runner, args []string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := New(runner, &out, &errOut).Run(context.Background(), args)
	return code, out.String(), errOut.String()
}

func TestRunHelp(t *testing.T) {
	code, out, errOut := runCLI(t, stubRunner{}, []string{"--help"})
	if code != 0 {
		t.Fatalf("expected exit 0 for help, got %d", code)
	}
	if !strings.Contains(out, "Usage:") {
		t.Fatalf("expected usage on stdout, got %q", out)
	}
	if errOut != "" {
		t.Fatalf("expected empty stderr, got %q", errOut)
	}
}

func TestRunUsageError(t *testing.T) {
	code, out, errOut := runCLI(t, stubRunner{}, []string{"nope"})
	if code != 2 {
		t.Fatalf("expected exit 2, got %d", code)
	}
	if !strings.Contains(errOut, "unknown command") || !strings.Contains(errOut, "Usage:") {
		t.Fatalf("expected error and usage on stderr, got %q", errOut)
	}
	if out != "" {
		t.Fatalf("expected empty stdout, got %q", out)
	}
}

func TestRunFrozenFieldExitCode(t *testing.T) {
	runner := stubRunner{err: fmt.Errorf("wrap: %w", bundleconfig.ErrFrozenField)}
	code, _, errOut := runCLI(t, runner, []string{"config"})
	if code != 3 {
		t.Fatalf("expected exit 3 for frozen field, got %d", code)
	}
	if !strings.Contains(errOut, "reserved") {
		t.Fatalf("expected frozen-field message, got %q", errOut)
	}
}

func TestRunNonProductionExitCode(t *testing.T) {
	runner := stubRunner{err: fmt.Errorf("wrap: %w", environ.ErrNotProduction)}
	code, _, _ := runCLI(t, runner, []string{"config"})
	if code != 4 {
		t.Fatalf("expected exit 4 for non-production, got %d", code)
	}
}

func TestRunGenericErrorExitCode(t *testing.T) {
	runner := stubRunner{output: "partial", err: fmt.Errorf("boom")}
	code, out, errOut := runCLI(t, runner, []string{"config"})
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(out, "partial") {
		t.Fatalf("expected partial output printed, got %q", out)
	}
	if !strings.Contains(errOut, "boom") {
		t.Fatalf("expected error on stderr, got %q", errOut)
	}
}

func TestRunSuccessAddsTrailingNewline(t *testing.T) {
	code, out, _ := runCLI(t, stubRunner{output: "done"}, []string{"init"})
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if out != "done\n" {
		t.Fatalf("expected newline-terminated output, got %q", out)
	}
}
