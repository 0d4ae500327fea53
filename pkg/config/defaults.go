package config

// Default configuration values.
const (
	DefaultVendorDir       = "vendor"
	DefaultComposerJSON    = "composer.json"
	DefaultWorkers         = 0 // 0 means runtime.NumCPU().
	DefaultDryRun          = false
	DefaultFailFast        = false
	DefaultRewriteFileKeys = true
	DefaultLogLevel        = "info"
	DefaultLogFormat       = LogFormatText
	DefaultSampleRatio     = 1.0
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// installedJSONPath is the location of Composer's installed package list
// relative to the vendor directory.
const installedJSONPath = "composer/installed.json"

// DefaultExcludeDirs are directories never descended into.
var DefaultExcludeDirs = []string{".git", ".svn", ".hg", "node_modules"}
