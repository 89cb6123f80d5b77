// Copyright © 2018 One Concern

package cmd

import (
	"bytes"
	"fmt"
	"log"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type ExitMocks struct {
	mock.Mock
	exitStatuses []int
}

func (m *ExitMocks) Fatalf(format string, v ...interface{}) {
	fmt.Printf(format+"\n", v...)
	m.exitStatuses = append(m.exitStatuses, 1)
}

func (m *ExitMocks) Fatalln(v ...interface{}) {
	fmt.Println(v...)
	m.exitStatuses = append(m.exitStatuses, 1)
}

func (m *ExitMocks) Exit(code int) {
	m.exitStatuses = append(m.exitStatuses, code)
}

func (m *ExitMocks) fatalCalls() int {
	return len(m.exitStatuses)
}

func (m *ExitMocks) lastStatus() int {
	if len(m.exitStatuses) == 0 {
		return 0
	}
	return m.exitStatuses[len(m.exitStatuses)-1]
}

func NewExitMocks() *ExitMocks {
	exitMocks := ExitMocks{
		exitStatuses: make([]int, 0),
	}
	return &exitMocks
}

func MakeExitMock(m *ExitMocks) func(int) {
	return func(code int) {
		m.Exit(code)
	}
}

var (
	exitMocks *ExitMocks
	stdout    bytes.Buffer
)

// setupTests patches exits and output, and isolates the run from the environment of the host
func setupTests(t *testing.T) {
	exitMocks = NewExitMocks()
	osExit = MakeExitMock(exitMocks)
	logFatalln = exitMocks.Fatalln
	logFatalf = exitMocks.Fatalf

	stdout.Reset()
	logStdOut = func(format string, a ...interface{}) (int, error) {
		return fmt.Fprintf(&stdout, format, a...)
	}
	infoLogger = log.New(&stdout, "", 0)
	color.NoColor = true

	for _, env := range configEnv {
		t.Setenv(env, "")
	}
	t.Setenv("HF_HOME", t.TempDir())
	t.Setenv("COMFYRESTORE_CONFIG", "")
}

// resetFlags restores the default value of all flags, as left by a previous run
func resetFlags(c *cobra.Command) {
	for _, set := range []*pflag.FlagSet{c.Flags(), c.PersistentFlags()} {
		set.VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func runCmd(t *testing.T, cmd []string, intentMsg string, expectError bool) {
	fatalCallsBefore := exitMocks.fatalCalls()

	resetFlags(rootCmd)
	restoreFlags.hub.token = ""
	restoreFlags.hub.hfHome = ""

	rootCmd.SetArgs(append([]string{"--loglevel=error"}, cmd...))
	require.NoError(t, rootCmd.Execute(), "error executing '"+strings.Join(cmd, " ")+"' : "+intentMsg)
	if expectError {
		require.Equal(t, fatalCallsBefore+1, exitMocks.fatalCalls(),
			"ran '"+strings.Join(cmd, " ")+"' expecting error and didn't see one in mocks : "+intentMsg)
	} else {
		require.Equal(t, fatalCallsBefore, exitMocks.fatalCalls(),
			"unexpected error in mocks on '"+strings.Join(cmd, " ")+"' : "+intentMsg)
	}
}
