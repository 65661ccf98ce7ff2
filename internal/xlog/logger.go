// Package xlog provides a small, field-scoped wrapper around logrus shared
// by every package in this module that touches the network or disk. It
// exists so the crypto-adjacent packages never accidentally log secret
// material: callers pass a preview helper instead of the raw bytes.
package xlog

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Logger carries a package name and a running set of structured fields.
type Logger struct {
	pkg    string
	fields logrus.Fields
}

// New creates a Logger scoped to pkg (e.g. "noise", "relay", "keystore").
func New(pkg string) *Logger {
	return &Logger{
		pkg:    pkg,
		fields: logrus.Fields{"package": pkg},
	}
}

// With returns a copy of l with an additional field set.
func (l *Logger) With(key string, value interface{}) *Logger {
	fields := make(logrus.Fields, len(l.fields)+1)
	for k, v := range l.fields {
		fields[k] = v
	}
	fields[key] = value
	return &Logger{pkg: l.pkg, fields: fields}
}

// WithFields returns a copy of l with the given fields merged in.
func (l *Logger) WithFields(fields logrus.Fields) *Logger {
	merged := make(logrus.Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{pkg: l.pkg, fields: merged}
}

func (l *Logger) Debug(msg string) { logrus.WithFields(l.fields).Debug(msg) }
func (l *Logger) Info(msg string)  { logrus.WithFields(l.fields).Info(msg) }
func (l *Logger) Warn(msg string)  { logrus.WithFields(l.fields).Warn(msg) }
func (l *Logger) Error(msg string) { logrus.WithFields(l.fields).Error(msg) }

// WithError attaches an error to the next log line without ever attaching
// the operands that produced it.
func (l *Logger) WithError(err error) *Logger {
	return l.With("error", err.Error())
}

// BytesPreview summarizes a byte slice for logging: length plus the first
// few bytes hex-encoded. Never pass secret key material through this —
// use it only for public identifiers (event ids, pubkeys, relay urls).
func BytesPreview(data []byte) string {
	if len(data) == 0 {
		return "empty"
	}
	n := 8
	if len(data) < n {
		n = len(data)
	}
	suffix := ""
	if len(data) > n {
		suffix = "..."
	}
	return fmt.Sprintf("%x%s(%db)", data[:n], suffix, len(data))
}
