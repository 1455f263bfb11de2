package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Serve   *ServeCommand
	Summary *SummaryCommand
	Import  *ImportCommand
	Config  *ConfigCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "shiftboard"
	parser.LongDescription = "Shift dashboard for equipment state intervals stored in SQLite."

	cmds := &commands{
		Serve:   &ServeCommand{globals: &globals, version: version},
		Summary: &SummaryCommand{globals: &globals, version: version},
		Import:  &ImportCommand{globals: &globals, version: version},
		Config:  &ConfigCommand{globals: &globals, version: version},
	}

	parser.AddCommand("serve", "Serve the dashboard", "Load the sources table once and serve the dashboard over HTTP.", cmds.Serve)
	parser.AddCommand("summary", "Print the shift summary", "Print the shift summary and per-reason durations of the sources table.", cmds.Summary)
	parser.AddCommand("import", "Load a CSV into the sources table", "Create the sources table if needed and bulk-load rows from a CSV file.", cmds.Import)
	parser.AddCommand("config", "Show the effective configuration", "Print the effective configuration, writing defaults when the file is missing.", cmds.Config)

	return parser, &globals, cmds
}

// Run is the main entry point for the shiftboard CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// --version is valid without a subcommand, which go-flags would reject.
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("shiftboard %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
