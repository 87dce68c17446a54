package version

const (
	CLIName     = "ipydeps"
	FullVersion = CLIName + " v" + Version
	Version     = "0.1.0"
)
