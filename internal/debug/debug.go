// Package debug is the kernel's tagged event sink.
//
// Every subsystem logs under a single-rune tag; a tag set selected at boot
// decides which streams are emitted. Events carry structured fields so traces
// stay machine-readable.
package debug

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Well-known tags.
const (
	TagScheduler = 'z'
	TagThread    = 't'
	TagInterrupt = 'i'
	TagMachine   = 'm'
)

// TagAll enables every stream.
const TagAll = "+"

var (
	tags   string
	logger = newLogger(os.Stderr, "text")
)

func newLogger(w io.Writer, format string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.DebugLevel)
	if strings.EqualFold(format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}
	return l
}

// Init selects the active tag set and output format.
//
// tagSet is a string of tag runes, e.g. "zt"; TagAll enables everything;
// the empty string silences the sink.
func Init(tagSet, format string) {
	tags = tagSet
	logger = newLogger(os.Stderr, format)
}

// SetOutput redirects the sink, mainly for tests.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// Active reports whether events under tag are emitted.
func Active(tag rune) bool {
	if tags == "" {
		return false
	}
	return strings.Contains(tags, TagAll) || strings.ContainsRune(tags, tag)
}

// Fields is re-exported so callers do not import logrus directly.
type Fields = logrus.Fields

// Log emits one event under tag, if active.
func Log(tag rune, msg string, fields Fields) {
	if !Active(tag) {
		return
	}
	logger.WithField("tag", string(tag)).WithFields(fields).Debug(msg)
}

// Warnf emits an always-on warning, regardless of the tag set.
func Warnf(format string, args ...any) {
	logger.Warnf(format, args...)
}
