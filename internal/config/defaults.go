package config

const (
	defaultInputRoot       = "../data"
	defaultResultsRoot     = "../results"
	defaultScratchRoot     = "../scratch"
	defaultLogDirName      = "logs"
	defaultHistoryFileName = "history.db"
	defaultDandiBinary     = "dandi"
	defaultFilesMode       = "move"
	defaultDownloadTimeout = 600
	defaultOrganizeTimeout = 1800
	defaultUploadTimeout   = 86400
	defaultConvertBinary   = "python3"
	defaultConvertTimeout  = 7200
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// defaultConvertArgs runs the exporter bundled with dandiprep; {script} expands
// to its source. The exporter copies datasets instead of linking them.
var defaultConvertArgs = []string{"-c", "{script}", "{from}", "{to}", "{src}", "{dst}"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InputRoot:   defaultInputRoot,
			ResultsRoot: defaultResultsRoot,
			ScratchRoot: defaultScratchRoot,
		},
		Dandi: Dandi{
			Binary:          defaultDandiBinary,
			FilesMode:       defaultFilesMode,
			DownloadTimeout: defaultDownloadTimeout,
			OrganizeTimeout: defaultOrganizeTimeout,
			UploadTimeout:   defaultUploadTimeout,
		},
		Convert: Convert{
			Command: defaultConvertBinary,
			Args:    append([]string(nil), defaultConvertArgs...),
			Timeout: defaultConvertTimeout,
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
