// Copyright © 2018 One Concern

package cmd

import (
	"fmt"
	"log"
	"os"

	"golang.org/x/sys/unix"
)

// exitUnavailable is the exit status of a check on a backup which is not accessible
var exitUnavailable = int(unix.ENOENT)

var (
	// globals used to patch over calls to os.Exit() during test

	logFatalln = log.Fatalln
	logFatalf  = log.Fatalf
	osExit     = os.Exit

	// infoLogger prints results to os.Stdout, logStdOut prints formatted output. Both are redirected in tests.
	infoLogger = log.New(os.Stdout, "", 0)
	logStdOut  = fmt.Printf
)

// wrapFatalln exits with status 1, after printing msg and its cause if any
func wrapFatalln(msg string, err error) {
	if err == nil {
		logFatalln(msg)
	} else {
		logFatalf("%v", fmt.Errorf(msg+": %w", err))
	}
}

// wrapFatalWithCodef prints a message on stderr and exits with a specific status
func wrapFatalWithCodef(code int, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	osExit(code)
}

// fatalUnavailable reports a backup which could not be reached as a model nor as a dataset
func fatalUnavailable(repoID string, err error) {
	wrapFatalWithCodef(exitUnavailable, "backup %s is not accessible: %v", repoID, err)
}
