package paths

import (
	"os"

	"github.com/mitchellh/go-homedir"
)

// node repo path defaults
const RepoPathVar = "BWALLET_PATH"
const defaultRepoDir = "~/.betawallet"

// GetRepoPath returns the path of the wallet repo from a potential override
// string, the BWALLET_PATH environment variable and a default of ~/.betawallet.
func GetRepoPath(override string) (string, error) {
	// override is first precedence
	if override != "" {
		return homedir.Expand(override)
	}
	// Environment variable is second precedence
	envRepoDir := os.Getenv(RepoPathVar)
	if envRepoDir != "" {
		return homedir.Expand(envRepoDir)
	}
	// Default is third precedence
	return homedir.Expand(defaultRepoDir)
}
