package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/bundleops/dllsplit/internal/app"
)

var ErrHelpRequested = errors.New("help requested")

func ParseArgs(args []string) (app.Request, error) {
	req := app.DefaultRequest()
	if len(args) == 0 {
		return req, ErrHelpRequested
	}

	if isHelpArg(args[0]) {
		return req, ErrHelpRequested
	}

	switch args[0] {
	case "init":
		return parseCommon(app.ModeInit, args[1:], req, false)
	case "config":
		return parseCommon(app.ModeConfig, args[1:], req, false)
	case "classify":
		return parseCommon(app.ModeClassify, args[1:], req, true)
	default:
		return req, fmt.Errorf("unknown command: %s", args[0])
	}
}

func parseCommon(mode app.Mode, args []string, req app.Request, wantModules bool) (app.Request, error) {
	args = normalizeArgs(args)

	fs := flag.NewFlagSet(string(mode), flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	repoPath := fs.String("repo", req.RepoPath, "repository path")
	bundleOutput := fs.String("bundle-output", req.BundleOutput, "bundle output path the variant rules match against")
	configPath := fs.String("config", req.ConfigPath, "options file path")
	businessConfig := fs.String("business-config", req.BusinessConfigPath, "caller bundler config (JSON) path")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return req, ErrHelpRequested
		}
		return req, err
	}

	remaining := fs.Args()
	if wantModules {
		if len(remaining) == 0 {
			return req, fmt.Errorf("classify requires at least one module path")
		}
	} else if len(remaining) > 0 {
		return req, fmt.Errorf("too many arguments for %s", mode)
	}

	if mode != app.ModeConfig && strings.TrimSpace(*businessConfig) != "" {
		return req, fmt.Errorf("--business-config only applies to config")
	}

	req.Mode = mode
	req.RepoPath = strings.TrimSpace(*repoPath)
	req.BundleOutput = strings.TrimSpace(*bundleOutput)
	req.ConfigPath = strings.TrimSpace(*configPath)
	req.BusinessConfigPath = strings.TrimSpace(*businessConfig)
	req.Modules = remaining
	return req, nil
}

func isHelpArg(arg string) bool {
	switch arg {
	case "-h", "--help", "help":
		return true
	default:
		return false
	}
}

func normalizeArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	flags := make([]string, 0, len(args))
	positionals := make([]string, 0, 1)

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			positionals = append(positionals, args[i+1:]...)
			break
		}
		if strings.HasPrefix(arg, "-") {
			flags = append(flags, arg)
			if flagNeedsValue(arg) && i+1 < len(args) {
				flags = append(flags, args[i+1])
				i++
			}
			continue
		}
		positionals = append(positionals, arg)
	}

	return append(flags, positionals...)
}

func flagNeedsValue(arg string) bool {
	if strings.Contains(arg, "=") {
		return false
	}
	switch arg {
	case "--repo", "--bundle-output", "--config", "--business-config":
		return true
	default:
		return false
	}
}
