package cli

import "crspec/internal/config"

// Flags holds command-line flags
type Flags struct {
	ConfigFile string
	Workspaces []string
	Compiler   string
	Strict     bool
	LogLevel   string
	Include    []string
	Exclude    []string
	NameFilter string
	NoSave     bool
	OpenFails  bool
}

// ToConfigFlags converts CLI flags to config flags
func (f *Flags) ToConfigFlags() config.Flags {
	return config.Flags{
		ConfigFile: f.ConfigFile,
		Workspaces: f.Workspaces,
		Compiler:   f.Compiler,
		Strict:     f.Strict,
		LogLevel:   f.LogLevel,
		Include:    f.Include,
		Exclude:    f.Exclude,
		NameFilter: f.NameFilter,
		NoSave:     f.NoSave,
		OpenFails:  f.OpenFails,
	}
}
