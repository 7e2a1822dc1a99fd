// Package storage provides durable key-value persistence for JSON blobs.
//
// The read/write helpers absorb every failure mode — unreachable backend,
// missing key, corrupt payload, failed write — and report them to the logger
// only. Callers always get a usable value back and never see an error.
package storage

import (
	"encoding/json"
	"log/slog"
)

// Backend is a raw key-value store. Implementations must survive process
// restarts (SQLite) or say so by always probing true (Memory).
type Backend interface {
	// Probe reports whether the backend is currently reachable.
	Probe() bool

	// Get returns the raw value for key. found is false when the key is
	// absent.
	Get(key string) (value []byte, found bool, err error)

	// Put stores the raw value under key, replacing any previous value.
	Put(key string, value []byte) error

	Close() error
}

// KV wraps a Backend with JSON serialization and failure absorption.
type KV struct {
	backend Backend
	log     *slog.Logger
}

// NewKV wraps backend. A nil logger defaults to slog.Default().
func NewKV(backend Backend, log *slog.Logger) *KV {
	if log == nil {
		log = slog.Default()
	}
	return &KV{backend: backend, log: log}
}

// Close closes the underlying backend.
func (kv *KV) Close() error {
	return kv.backend.Close()
}

// Read returns the value stored under key, or def when the backend is
// unreachable, the key is absent, or the payload does not decode.
func Read[T any](kv *KV, key string, def T) T {
	if !kv.backend.Probe() {
		kv.log.Warn("storage unreachable, using default", "key", key)
		return def
	}

	raw, found, err := kv.backend.Get(key)
	if err != nil {
		kv.log.Warn("storage read failed, using default", "key", key, "error", err)
		return def
	}
	if !found {
		return def
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		kv.log.Warn("corrupt payload, using default", "key", key, "error", err)
		return def
	}
	return v
}

// Write stores v under key, best-effort. Failures are logged and swallowed.
func Write[T any](kv *KV, key string, v T) {
	if !kv.backend.Probe() {
		kv.log.Warn("storage unreachable, dropping write", "key", key)
		return
	}

	raw, err := json.Marshal(v)
	if err != nil {
		kv.log.Error("marshalling value", "key", key, "error", err)
		return
	}
	if err := kv.backend.Put(key, raw); err != nil {
		kv.log.Error("storage write failed", "key", key, "error", err)
	}
}

// Open returns a KV backed by SQLite at path, falling back to an in-memory
// backend when the database cannot be opened. The fallback keeps the
// application usable; state just will not survive a restart.
func Open(path string, log *slog.Logger) *KV {
	if log == nil {
		log = slog.Default()
	}

	backend, err := OpenSQLite(path)
	if err != nil {
		log.Warn("opening sqlite storage, falling back to memory", "path", path, "error", err)
		return NewKV(NewMemory(), log)
	}
	return NewKV(backend, log)
}
