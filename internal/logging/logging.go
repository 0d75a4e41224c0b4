// Package logging is the structured, opt-in observational logger for
// pkg/engine. Purely observational — never part of the durability
// contract — and silent unless a host supplies a writer.
package logging

import (
	"io"

	"github.com/rs/zerolog"
)

// Logger wraps a zerolog.Logger with the small, fixed vocabulary of events
// Engine emits.
type Logger struct {
	zl zerolog.Logger
}

// New builds a Logger writing to w. A nil w discards everything, so the
// library stays silent unless a host opts in.
func New(w io.Writer) *Logger {
	if w == nil {
		w = io.Discard
	}
	return &Logger{zl: zerolog.New(w).With().Timestamp().Logger()}
}

// Add logs a successful document add at debug level.
func (l *Logger) Add(id string) {
	l.zl.Debug().Str("op", "add").Str("doc_id", id).Msg("document added")
}

// Delete logs a document delete at debug level.
func (l *Logger) Delete(id string) {
	l.zl.Debug().Str("op", "delete").Str("doc_id", id).Msg("document deleted")
}

// SnapshotSaved logs a completed snapshot save at info level.
func (l *Logger) SnapshotSaved(lastCommitID uint64) {
	l.zl.Info().Uint64("last_commit_id", lastCommitID).Msg("snapshot saved")
}

// SnapshotSkipped logs a policy-skipped snapshot save at debug level.
func (l *Logger) SnapshotSkipped(reason string) {
	l.zl.Debug().Str("reason", reason).Msg("snapshot skipped")
}

// SnapshotFailed logs a snapshot save failure at warn level — save failures
// are reported but never abort the write path, since durability is carried
// by the log.
func (l *Logger) SnapshotFailed(err error) {
	l.zl.Warn().Err(err).Msg("snapshot save failed")
}

// RecoveryReplayed logs how many log-tail commits were replayed at recovery,
// at info level.
func (l *Logger) RecoveryReplayed(n int) {
	l.zl.Info().Int("count", n).Msg("recovery replayed log tail")
}

// Warn logs a recoverable no-op (duplicate delete, missing snapshot on
// load) at warn level.
func (l *Logger) Warn(msg string) {
	l.zl.Warn().Msg(msg)
}
