// Package commitlog is the append-only, replayable write-ahead log of
// document mutations: a single writer, fsync-on-append, and replay-on-open,
// with one JSON-encoded Commit per line and no segment rotation.
package commitlog

import (
	"bytes"
	"encoding/json"

	"github.com/kittclouds/gokitt-search/internal/ioutil"
	"github.com/kittclouds/gokitt-search/pkg/errs"
	"github.com/kittclouds/gokitt-search/pkg/value"
)

const fileName = "commit.log"

// AddOp carries a new document's id and its data as submitted, before
// normalization.
type AddOp struct {
	ID   string      `json:"id"`
	Data value.Value `json:"data"`
}

// DeleteOp carries the id of a document to remove.
type DeleteOp struct {
	ID string `json:"id"`
}

// Op is the tagged Add/Delete mutation a Commit carries.
type Op struct {
	Add    *AddOp    `json:"Add,omitempty"`
	Delete *DeleteOp `json:"Delete,omitempty"`
}

// Commit is one durable log entry: a monotonic id, the mutation, and a
// unix-seconds timestamp.
type Commit struct {
	ID        uint64 `json:"id"`
	Op        Op     `json:"op"`
	Timestamp uint64 `json:"timestamp"`
}

// Log is the append-only commit log. It holds one open append handle for
// its lifetime.
type Log struct {
	dir    *ioutil.Dir
	handle *ioutil.AppendHandle

	nextCommitID uint64
}

// Open opens (creating if absent) commit.log under dir and holds its
// append handle for the Log's lifetime.
func Open(dir *ioutil.Dir) (*Log, error) {
	h, err := dir.OpenAppend(fileName, 0o644)
	if err != nil {
		return nil, errs.IO("open commit log", err)
	}
	return &Log{dir: dir, handle: h, nextCommitID: 1}, nil
}

// Close closes the held append handle.
func (l *Log) Close() error {
	return l.handle.Close()
}

// NextCommitID returns the id the next Append call will assign.
func (l *Log) NextCommitID() uint64 { return l.nextCommitID }

// Append serializes op as a new Commit, appends it as one line, flushes,
// and fsyncs before returning. A crash before this call returns loses the
// in-progress record; a crash after preserves it.
func (l *Log) Append(op Op, timestamp uint64) (Commit, error) {
	c := Commit{ID: l.nextCommitID, Op: op, Timestamp: timestamp}
	line, err := json.Marshal(c)
	if err != nil {
		return Commit{}, err
	}
	line = append(line, '\n')
	if err := l.handle.WriteAndSync(line); err != nil {
		return Commit{}, errs.IO("append commit", err)
	}
	l.nextCommitID++
	return c, nil
}

// Replay reads the log from the start and invokes callback for every
// non-empty line, in file order, updating NextCommitID to
// max(observed id)+1. A malformed line fails with errs.ErrLogCorruption and
// stops replay at that point.
func (l *Log) Replay(callback func(Commit) error) error {
	data, err := l.dir.ReadFile(fileName)
	if err != nil {
		return errs.IO("read commit log", err)
	}

	var maxID uint64
	seen := false

	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var c Commit
		if err := json.Unmarshal(line, &c); err != nil {
			return errs.Wrap(errs.KindLogCorruption, "malformed commit log line", err)
		}
		if c.ID > maxID {
			maxID = c.ID
		}
		seen = true
		if err := callback(c); err != nil {
			return err
		}
	}

	if seen {
		l.nextCommitID = maxID + 1
	}
	return nil
}

// ReplayTail invokes callback for every commit with id > afterCommitID, in
// file order — used by Engine to replay only the log tail that postdates
// the loaded snapshot.
func (l *Log) ReplayTail(afterCommitID uint64, callback func(Commit) error) error {
	return l.Replay(func(c Commit) error {
		if c.ID <= afterCommitID {
			return nil
		}
		return callback(c)
	})
}

// RollbackTo rebuilds state by invoking apply, in log order, for every
// commit with id <= commitID — starting from whatever empty state apply's
// owner has already reset itself to.
func RollbackTo(dir *ioutil.Dir, commitID uint64, apply func(Commit) error) error {
	data, err := dir.ReadFile(fileName)
	if err != nil {
		return errs.IO("read commit log", err)
	}
	for _, line := range bytes.Split(data, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var c Commit
		if err := json.Unmarshal(line, &c); err != nil {
			return errs.Wrap(errs.KindLogCorruption, "malformed commit log line", err)
		}
		if c.ID > commitID {
			break
		}
		if err := apply(c); err != nil {
			return err
		}
	}
	return nil
}
