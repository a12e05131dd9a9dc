// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log provides the process-wide structured logger shared by every
// core component. Components never construct their own *zap.Logger; they
// take one through their Config and fall back to a no-op logger (OrNop)
// when none is supplied.
package log

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var global atomic.Pointer[zap.Logger]

func init() {
	l, _ := zap.NewDevelopment()
	if l == nil {
		l = zap.NewNop()
	}
	global.Store(l)
}

// Logger returns the current global logger. Safe for concurrent use.
func Logger() *zap.Logger {
	return global.Load()
}

// SetLogger replaces the global logger. Safe for concurrent use; intended
// to be called once at process start before components are constructed.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	global.Store(l)
}

// Named returns a child logger scoped to a component, e.g. log.Named("orchestrator").
// Components should store the result rather than calling Named repeatedly.
func Named(component string) *zap.Logger {
	return Logger().Named(component)
}

// OrNop returns l if non-nil, otherwise a no-op logger. Every component
// constructor should route its Logger field through this so callers can
// omit it without a nil check at every log call site.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

func Debug(msg string, fields ...zap.Field) { Logger().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { Logger().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { Logger().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { Logger().Error(msg, fields...) }

// With returns the global logger with additional fields.
func With(fields ...zap.Field) *zap.Logger {
	return Logger().With(fields...)
}

// Sync flushes any buffered log entries.
func Sync() error {
	return Logger().Sync()
}
