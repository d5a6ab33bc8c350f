// Package config loads process configuration from defaults, an optional
// YAML file and environment variables.
package config

import (
	"os"
	"path/filepath"
	"sync"
)

// DefaultFile is looked up under the home directory when no --config is
// given.
const DefaultFile = "config.yaml"

var (
	homeMu sync.Mutex
	home   string
)

// Home is the state directory: $XBRL_HOME, else ~/.xbrlgraph, else
// ./.xbrlgraph when the user home cannot be determined. The result is
// cached until ResetEnv.
func Home() string {
	homeMu.Lock()
	defer homeMu.Unlock()
	if home != "" {
		return home
	}
	if h := os.Getenv("XBRL_HOME"); h != "" {
		home = h
		return home
	}
	base, err := os.UserHomeDir()
	if err != nil {
		base = "."
	}
	home = filepath.Join(base, ".xbrlgraph")
	return home
}

// Path joins parts under Home.
func Path(parts ...string) string {
	return filepath.Join(append([]string{Home()}, parts...)...)
}

// ResetEnv forgets the cached home directory so tests can switch
// XBRL_HOME.
func ResetEnv() {
	homeMu.Lock()
	home = ""
	homeMu.Unlock()
}

// Resolve returns the config file to load. An explicit path wins;
// otherwise Home/config.yaml is used if it exists, and "" (defaults plus
// environment) if not.
func Resolve(explicit string) string {
	if explicit != "" {
		return explicit
	}
	p := Path(DefaultFile)
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}
