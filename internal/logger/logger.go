// Package logger prints progress lines with a "pendulab: " prefix.
package logger

import (
	"io"
	"log"
	"os"
)

// Quiet suppresses Info; Error is always printed.
var Quiet bool

var std = log.New(os.Stderr, "", log.LstdFlags)

// SetOutput redirects both levels to w.
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

func Info(format string, args ...interface{}) {
	if Quiet {
		return
	}
	std.Printf("pendulab: "+format, args...)
}

func Error(format string, args ...interface{}) {
	std.Printf("pendulab: "+format, args...)
}
