// Package engine is the embeddable document store's public write path and
// crash-recovery orchestrator: validate, log, apply, (policy) snapshot,
// persist — wiring internal/docstore, pkg/commitlog, and pkg/snapshot
// into a single durable write path.
package engine

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/kittclouds/gokitt-search/internal/docstore"
	"github.com/kittclouds/gokitt-search/internal/ioutil"
	"github.com/kittclouds/gokitt-search/internal/logging"
	"github.com/kittclouds/gokitt-search/pkg/commitlog"
	"github.com/kittclouds/gokitt-search/pkg/errs"
	"github.com/kittclouds/gokitt-search/pkg/snapshot"
	"github.com/kittclouds/gokitt-search/pkg/tokenizer"
	"github.com/kittclouds/gokitt-search/pkg/value"
)

const documentsFile = "data.json"

// Config configures an Engine's construction and write-path policy.
type Config struct {
	// BaseDir is the directory holding data.json, commit.log, and snapshots/.
	// Created if absent.
	BaseDir string

	// MaxDepth bounds normalization and extraction traversal depth.
	MaxDepth int

	// SnapshotSlots is the snapshot manager's rotation width N. Defaults to
	// 3 if zero.
	SnapshotSlots int

	// SnapshotEveryN amortizes snapshot saves: a snapshot is taken every
	// SnapshotEveryN commits. Defaults to 1, i.e. a snapshot after every
	// commit.
	SnapshotEveryN int

	// Tokenizer configures the tokenizer every AddDocument/DeleteDocument
	// call indexes and reverses through.
	Tokenizer tokenizer.Config

	// Logger receives structured observational log lines. Defaults to
	// io.Discard — the library stays silent unless a host opts in.
	Logger io.Writer
}

func (c *Config) applyDefaults() {
	if c.SnapshotSlots == 0 {
		c.SnapshotSlots = 3
	}
	if c.SnapshotEveryN == 0 {
		c.SnapshotEveryN = 1
	}
}

func (c Config) validate() error {
	if c.MaxDepth < 0 {
		return errs.New(errs.KindInvalidConfig, "engine: MaxDepth must be non-negative")
	}
	if c.SnapshotSlots < 0 {
		return errs.New(errs.KindInvalidConfig, "engine: SnapshotSlots must be non-negative")
	}
	if c.SnapshotEveryN < 0 {
		return errs.New(errs.KindInvalidConfig, "engine: SnapshotEveryN must be non-negative")
	}
	return nil
}

// Engine owns the DocumentStore exclusively and is the only writer to the
// commit log and snapshot directory. QueryService holds a read-only
// reference to its Store.
type Engine struct {
	cfg Config

	dir   *ioutil.Dir
	log   *commitlog.Log
	snaps *snapshot.Manager
	store *docstore.Store
	logger *logging.Logger

	lastSnapshotCommit   uint64
	commitsSinceSnapshot int
}

// New opens (or creates) an Engine rooted at cfg.BaseDir, recovering state
// as: load documents → load latest snapshot → replay the log tail past the
// snapshot's last committed id.
func New(cfg Config) (*Engine, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	dir, err := ioutil.Open(cfg.BaseDir)
	if err != nil {
		return nil, errs.IO("open base directory", err)
	}

	tok, err := tokenizer.New(cfg.Tokenizer)
	if err != nil {
		return nil, err
	}
	store := docstore.New(tok)
	logger := logging.New(cfg.Logger)

	if dir.Exists(documentsFile) {
		data, err := dir.ReadFile(documentsFile)
		if err != nil {
			return nil, errs.IO("read documents file", err)
		}
		var docs map[string]docstore.Document
		if err := json.Unmarshal(data, &docs); err != nil {
			return nil, errs.Wrap(errs.KindIoError, "parse documents file", err)
		}
		store.LoadDocuments(docs)
	}

	snaps, err := snapshot.Open(dir, cfg.SnapshotSlots)
	if err != nil {
		return nil, errs.IO("open snapshot manager", err)
	}

	var lastSnapshotCommit uint64
	if f, ok := snaps.Load(); ok {
		store.ImportIndexes(f.ToIndexState())
		lastSnapshotCommit = f.LastCommitID
	} else {
		logger.Warn("no snapshot found; rebuilding derived indexes fully from the log")
	}

	commitLog, err := commitlog.Open(dir)
	if err != nil {
		return nil, err
	}

	maxSeq := 0
	replayed := 0
	err = commitLog.Replay(func(c commitlog.Commit) error {
		switch {
		case c.Op.Add != nil:
			if n, convErr := strconv.Atoi(c.Op.Add.ID); convErr == nil && n > maxSeq {
				maxSeq = n
			}
			if c.ID > lastSnapshotCommit {
				store.ReindexDocument(c.Op.Add.ID, cfg.MaxDepth)
				replayed++
			}
		case c.Op.Delete != nil:
			if c.ID > lastSnapshotCommit {
				store.DeleteDocument(c.Op.Delete.ID)
				replayed++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	store.SetSeq(maxSeq)
	logger.RecoveryReplayed(replayed)

	return &Engine{
		cfg:                cfg,
		dir:                dir,
		log:                commitLog,
		snaps:              snaps,
		store:              store,
		logger:             logger,
		lastSnapshotCommit: lastSnapshotCommit,
	}, nil
}

// Store returns the Engine's DocumentStore, for QueryService to read.
func (e *Engine) Store() *docstore.Store { return e.store }

// AddDocument validates, logs, applies, persists documents, and (per
// policy) snapshots. Returns the assigned document id.
func (e *Engine) AddDocument(data value.Value, timestamp uint64) (string, error) {
	if err := docstore.Validate(data); err != nil {
		return "", err
	}

	id := e.store.PeekNextID()
	commit, err := e.log.Append(commitlog.Op{Add: &commitlog.AddOp{ID: id, Data: data}}, timestamp)
	if err != nil {
		return "", err
	}

	got := e.store.AddDocument(data, e.cfg.MaxDepth)
	e.logger.Add(got)

	if err := e.persistDocuments(); err != nil {
		return got, errs.IO("persist documents", err)
	}
	e.maybeSnapshot(commit.ID)
	return got, nil
}

// DeleteDocument validates the id exists, logs, applies, persists
// documents, and (per policy) snapshots. Deleting an unknown id is a no-op:
// nothing is logged to the commit log, a warning goes to the logger, and
// nil is returned.
func (e *Engine) DeleteDocument(id string, timestamp uint64) error {
	if _, ok := e.store.Get(id); !ok {
		e.logger.Warn("delete of unknown document id ignored: " + id)
		return nil
	}

	commit, err := e.log.Append(commitlog.Op{Delete: &commitlog.DeleteOp{ID: id}}, timestamp)
	if err != nil {
		return err
	}

	e.store.DeleteDocument(id)
	e.logger.Delete(id)

	if err := e.persistDocuments(); err != nil {
		return errs.IO("persist documents", err)
	}
	e.maybeSnapshot(commit.ID)
	return nil
}

// RollbackTo rebuilds the Engine's store from empty by replaying only log
// commits with id <= commitID, in log order. The rebuilt store does not
// persist documents or trigger a snapshot; callers that want the rollback
// durable should follow with an explicit mutation or a process restart.
// Commits beyond commitID remain physically present in commit.log — this
// is a recovery/debugging primitive, not a normal write-path operation.
func (e *Engine) RollbackTo(commitID uint64) error {
	tok, err := tokenizer.New(e.cfg.Tokenizer)
	if err != nil {
		return err
	}
	fresh := docstore.New(tok)

	// Replaying Adds in log order through fresh.AddDocument reassigns the
	// same ids the original run produced, since seq only ever advances on
	// Add and this replay preserves Add order exactly.
	err = commitlog.RollbackTo(e.dir, commitID, func(c commitlog.Commit) error {
		switch {
		case c.Op.Add != nil:
			fresh.AddDocument(c.Op.Add.Data, e.cfg.MaxDepth)
		case c.Op.Delete != nil:
			fresh.DeleteDocument(c.Op.Delete.ID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.store = fresh
	return nil
}

func (e *Engine) persistDocuments() error {
	docs := e.store.Documents()
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return err
	}
	return e.dir.WriteFileAtomic(documentsFile, data, 0o644)
}

// maybeSnapshot saves a snapshot once SnapshotEveryN commits have
// accumulated since the last one. Save failures are logged but never
// propagated: durability is guaranteed by the commit log regardless.
func (e *Engine) maybeSnapshot(commitID uint64) {
	e.commitsSinceSnapshot++
	if e.commitsSinceSnapshot < e.cfg.SnapshotEveryN {
		e.logger.SnapshotSkipped("below SnapshotEveryN threshold")
		return
	}
	e.commitsSinceSnapshot = 0

	f := snapshot.FromIndexState(e.store.ExportIndexes(), commitID)
	if err := e.snaps.Save(f); err != nil {
		e.logger.SnapshotFailed(err)
		return
	}
	e.lastSnapshotCommit = commitID
	e.logger.SnapshotSaved(commitID)
}

// Close releases the Engine's held commit-log handle.
func (e *Engine) Close() error {
	return e.log.Close()
}
