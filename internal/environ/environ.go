// Package environ gates the tool on a declared production environment.
package environ

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// EnvVar names the environment variable that must declare production use.
const EnvVar = "DLLSPLIT_ENV"

const productionValue = "production"

// ErrNotProduction is the fatal error for running outside a declared
// production environment.
var ErrNotProduction = errors.New("dllsplit must run in a production environment")

// Load reads the project's .env file into the process environment.
// A missing file is fine; explicit values already in the environment win.
func Load(repoPath string) {
	_ = godotenv.Load(filepath.Join(repoPath, ".env"))
}

// Check verifies the environment declaration. getenv defaults to os.Getenv;
// tests inject their own.
func Check(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	if value := getenv(EnvVar); value != productionValue {
		return fmt.Errorf("%w: %s=%q", ErrNotProduction, EnvVar, value)
	}
	return nil
}
