package app

type Mode string

const (
	ModeInit     Mode = "init"
	ModeConfig   Mode = "config"
	ModeClassify Mode = "classify"
)

type Request struct {
	Mode         Mode
	RepoPath     string
	BundleOutput string

	// ConfigPath points at the dllsplit options file; empty means the
	// default candidates in the repo root.
	ConfigPath string
	// BusinessConfigPath points at the caller's bundler configuration
	// (JSON) to guard and merge.
	BusinessConfigPath string
	// Modules are the module paths to classify.
	Modules []string

	// Getenv overrides the environment lookup for the production gate.
	// nil means os.Getenv.
	Getenv func(string) string
}

func DefaultRequest() Request {
	return Request{
		Mode:     ModeConfig,
		RepoPath: ".",
	}
}
