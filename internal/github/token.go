package github

import (
	"os"
	"os/exec"
	"strings"
)

// EnvGetter is a function type for getting environment variables.
// This allows mocking os.Getenv in tests.
type EnvGetter func(key string) string

// CommandRunner is a function type for running shell commands.
// This allows mocking exec.Command in tests.
type CommandRunner func(name string, args ...string) ([]byte, error)

// TokenDiscoverer finds a GitHub token outside nflow's own configuration.
type TokenDiscoverer struct {
	getEnv     EnvGetter
	runCommand CommandRunner
}

// NewTokenDiscoverer creates a discoverer backed by the process
// environment and the gh CLI.
func NewTokenDiscoverer() *TokenDiscoverer {
	return &TokenDiscoverer{
		getEnv: os.Getenv,
		runCommand: func(name string, args ...string) ([]byte, error) {
			return exec.Command(name, args...).Output()
		},
	}
}

// NewTokenDiscovererWithMocks creates a discoverer with custom lookups.
func NewTokenDiscovererWithMocks(getEnv EnvGetter, runCommand CommandRunner) *TokenDiscoverer {
	return &TokenDiscoverer{getEnv: getEnv, runCommand: runCommand}
}

// DiscoverToken returns the first token found in, in order:
//  1. GITHUB_TOKEN
//  2. GH_TOKEN
//  3. gh auth token
//
// It returns "" when none is available.
func (d *TokenDiscoverer) DiscoverToken() string {
	if token := d.getEnv("GITHUB_TOKEN"); token != "" {
		return token
	}
	if token := d.getEnv("GH_TOKEN"); token != "" {
		return token
	}
	output, err := d.runCommand("gh", "auth", "token")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(output))
}
