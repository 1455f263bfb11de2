package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionFlag(t *testing.T) {
	var err error
	output := captureOutput(t, func() {
		err = RunWithArgs("0.1.0-test", []string{"--version"})
	})

	assert.NoError(t, err)
	assert.Contains(t, output, "shiftboard 0.1.0-test")
}

func TestVersionOutputFormat(t *testing.T) {
	output := captureOutput(t, func() {
		_ = RunWithArgs("1.2.3", []string{"serve", "--version"})
	})

	assert.Equal(t, "shiftboard 1.2.3", strings.TrimSpace(output))
}

func TestVersionAfterDoubleDashIgnored(t *testing.T) {
	err := RunWithArgs("1.2.3", []string{"import", "--", "--version"})
	assert.Error(t, err)
}

func TestSubcommandsRegistered(t *testing.T) {
	parser, _, cmds := buildParser("test")

	for _, name := range []string{"serve", "summary", "import", "config"} {
		assert.NotNil(t, parser.Find(name), "subcommand %s", name)
	}
	assert.Equal(t, "shiftboard", parser.Name)
	assert.Equal(t, "test", cmds.Serve.version)
}

func TestServeFlagsParsed(t *testing.T) {
	parser, globals, cmds := buildParser("test")
	parser.SubcommandsOptional = true
	serve := parser.Find("serve")
	require.NotNil(t, serve)

	// Parse only the options; Execute would start the server.
	_, err := parser.ParseArgs([]string{"--verbose", "--config", "/tmp/x.yaml"})
	require.NoError(t, err)
	assert.True(t, globals.Verbose)
	assert.Equal(t, "/tmp/x.yaml", globals.Config)

	for _, opt := range []string{"host", "port", "db"} {
		assert.NotNil(t, serve.FindOptionByLongName(opt), "option --%s", opt)
	}
	assert.Same(t, globals, cmds.Serve.globals)
}

func TestUnknownSubcommand(t *testing.T) {
	err := RunWithArgs("test", []string{"bogus"})
	assert.Error(t, err)
}

func TestHelpIsNotAnError(t *testing.T) {
	captureOutput(t, func() {
		assert.NoError(t, RunWithArgs("test", []string{"--help"}))
	})
}

func TestImportRequiresCSV(t *testing.T) {
	err := RunWithArgs("test", []string{"import"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--csv is required")
}
