package cli

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable debug logging"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// ServeCommand loads the sources table once and serves the dashboard.
type ServeCommand struct {
	Host string `long:"host" description:"Override listen host"`
	Port int    `long:"port" description:"Override listen port"`
	DB   string `long:"db" description:"Override SQLite database path"`

	globals *GlobalFlags
	version string
}

// SummaryCommand prints the info panel and per-reason totals.
type SummaryCommand struct {
	DB string `long:"db" description:"Override SQLite database path"`

	globals *GlobalFlags
	version string
}

// ImportCommand bulk-loads a CSV export into the sources table.
type ImportCommand struct {
	CSV string `long:"csv" description:"CSV file with a header row of sources columns (required)"`
	DB  string `long:"db" description:"Override SQLite database path"`

	globals *GlobalFlags
	version string
}

// ConfigCommand prints the effective configuration, writing defaults first
// when the file does not exist.
type ConfigCommand struct {
	Path string `long:"path" description:"Config file to create or read (default ~/.config/shiftboard/config.yaml)"`

	globals *GlobalFlags
	version string
}
