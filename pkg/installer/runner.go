// Copyright © 2018 One Concern

package installer

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Command to run as a subprocess
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  []string
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Runner runs commands and reports their failure. Output is not interpreted.
type Runner interface {
	Run(context.Context, Command) error
}

// ExecRunner runs commands as non-interactive subprocesses: stdin is closed and git never prompts for credentials.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Run a command until it exits
func (r ExecRunner) Run(ctx context.Context, command Command) error {
	cmd := exec.CommandContext(ctx, command.Name, command.Args...) // #nosec
	cmd.Dir = command.Dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	cmd.Env = append(cmd.Env, command.Env...)
	cmd.Stdin = nil
	cmd.Stdout = r.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = r.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	return cmd.Run()
}
