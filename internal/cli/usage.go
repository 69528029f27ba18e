package cli

const usage = `Usage:
  dllsplit init [--repo PATH] [--config PATH] [--bundle-output PATH]
  dllsplit config [--repo PATH] [--config PATH] [--bundle-output PATH] [--business-config PATH]
  dllsplit classify [--repo PATH] [--config PATH] [--bundle-output PATH] MODULE...

Commands:
  init       Generate the async-require shim and the DLL entry file
  config     Guard and merge the bundler configuration, print the result
  classify   Classify module paths as dll or business, assigning business module IDs

Options:
  --repo PATH             Repository path (default: .)
  --bundle-output PATH    Bundle output path; selects the output variant
  --config PATH           dllsplit options file (default: .dllsplit.yml)
  --business-config PATH  Caller bundler config (JSON) to guard and merge
  -h, --help              Show this help text

Exit codes:
  0  success
  1  failure
  2  usage error
  3  reserved bundler configuration field overridden
  4  not running in a production environment
`

func Usage() string {
	return usage
}
