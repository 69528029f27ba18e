package main

import (
	"context"
	"io"
	"os"

	"github.com/bundleops/dllsplit/internal/app"
	"github.com/bundleops/dllsplit/internal/cli"
	"github.com/bundleops/dllsplit/internal/logging"
)

var exitFunc = os.Exit

func run(args []string, out io.Writer, errOut io.Writer) int {
	logging.SetLogger(logging.NewCLI(errOut))
	defer logging.SetLogger(nil)

	runner := app.New()
	commandLine := cli.New(runner, out, errOut)
	return commandLine.Run(context.Background(), args)
}

func main() {
	exitFunc(run(os.Args[1:], os.Stdout, os.Stderr))
}
