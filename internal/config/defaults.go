package config

import "time"

const (
	// DefaultProjectPath is the default project path
	DefaultProjectPath = "."
	// DefaultConfigFile is looked up in the project path when no --config is given
	DefaultConfigFile = ".crspec.yml"
	// DefaultCompiler is the crystal executable, resolved through PATH
	DefaultCompiler = "crystal"
	// DefaultManifestFile marks a crystal project root
	DefaultManifestFile = "shard.yml"
	// DefaultSpecDir is the conventional spec directory of a project
	DefaultSpecDir = "spec"
	// DefaultSpecPattern matches spec files relative to a workspace root
	DefaultSpecPattern = "spec/**/*_spec.cr"
	// DefaultLogLevel is the level of the diagnostic log
	DefaultLogLevel = "info"
	// DefaultOutputJSONFile is the default output JSON file name
	DefaultOutputJSONFile = "spec-results.json"
	// DefaultOutputJSONDir is the default output directory
	DefaultOutputJSONDir = ".crspec"
	// DefaultDebounce delays save handling so editors writing twice trigger one run
	DefaultDebounce = 300 * time.Millisecond
)

const (
	// EnvCompiler overrides the compiler path
	EnvCompiler = "CRYSTAL"
	// EnvLogLevel overrides the log level
	EnvLogLevel = "CRSPEC_LOG_LEVEL"
)

// DefaultPathsToIgnore are the directories skipped when watching spec dirs
var DefaultPathsToIgnore = []string{
	"lib",
	".git",
	".crystal",
	".shards",
	"node_modules",
}
