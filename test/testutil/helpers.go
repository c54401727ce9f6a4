// Package testutil holds helpers shared by the integration tests and benchmarks.
package testutil

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/notevault/internal/config"
	"github.com/TheMichaelB/notevault/internal/crypto"
	"github.com/TheMichaelB/notevault/internal/events"
	"github.com/TheMichaelB/notevault/internal/services/notes"
	"github.com/TheMichaelB/notevault/internal/storage"
	"github.com/TheMichaelB/notevault/internal/users"
	"github.com/TheMichaelB/notevault/internal/vault"
)

// FastIterations keeps key derivation cheap in tests. Records written with it
// only open with a provider using the same count.
const FastIterations = 64

// FastArgon keeps password verifiers cheap in tests.
var FastArgon = users.ArgonParams{Memory: 64, Time: 1, Parallelism: 1, SaltLen: 16, KeyLen: 32}

// NewTestLogger creates a logger for testing.
func NewTestLogger() *events.Logger {
	var buf bytes.Buffer
	return events.NewTestLogger(events.DebugLevel, "json", &buf)
}

// FastProvider returns a crypto provider with FastIterations.
func FastProvider() *crypto.CryptoProvider {
	return crypto.NewProvider(crypto.WithIterations(FastIterations))
}

// TestConfigWithDir returns a valid config rooted at dataDir.
func TestConfigWithDir(dataDir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Storage.DataDir = dataDir
	cfg.Log.Level = "debug"
	cfg.Log.Format = "json"
	cfg.Log.Color = false
	return cfg
}

// Env is a fully wired set of components on a temporary directory.
type Env struct {
	Config *config.Config
	Blobs  *storage.LocalStore
	Store  *vault.Store
	Users  *users.Directory
	Repo   *notes.Repository
	Notes  *notes.Service
	Logs   *LogOutput
}

// NewEnv wires every component the way the CLI does, with cheap key
// derivation and a log capture.
func NewEnv(t testing.TB, format vault.Format) *Env {
	t.Helper()

	cfg := TestConfigWithDir(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, cfg.EnsureDirectories())

	logs := NewLogOutput()
	logger := events.NewTestLogger(events.DebugLevel, "json", logs)

	blobs, err := storage.NewLocalStore(cfg.NotesPath(), logger)
	require.NoError(t, err)

	store := vault.NewStore(blobs, FastProvider(), logger, vault.WithFormat(format))

	dir, err := users.Open(cfg.DatabasePath(), logger, users.WithArgonParams(FastArgon))
	require.NoError(t, err)
	t.Cleanup(func() { _ = dir.Close() })

	repo := notes.NewRepository(blobs, store, logger)
	return &Env{
		Config: cfg,
		Blobs:  blobs,
		Store:  store,
		Users:  dir,
		Repo:   repo,
		Notes:  notes.NewService(dir, repo, logger),
		Logs:   logs,
	}
}

// LogEntry represents a captured log entry for testing
type LogEntry struct {
	Level   string                 `json:"level"`
	Message string                 `json:"msg"`
	Time    time.Time              `json:"time"`
	Fields  map[string]interface{} `json:"-"`
	Raw     string                 `json:"-"`
}

// LogOutput captures JSON log lines.
type LogOutput struct {
	mu      sync.RWMutex
	entries []LogEntry
}

// NewLogOutput creates a new log output capturer.
func NewLogOutput() *LogOutput {
	return &LogOutput{}
}

// Write implements io.Writer to capture log output.
func (lo *LogOutput) Write(p []byte) (n int, err error) {
	var entry LogEntry
	if err := json.Unmarshal(p, &entry); err == nil {
		_ = json.Unmarshal(p, &entry.Fields)
		entry.Raw = string(bytes.TrimSpace(p))

		lo.mu.Lock()
		lo.entries = append(lo.entries, entry)
		lo.mu.Unlock()
	}
	return len(p), nil
}

// Entries returns captured log entries.
func (lo *LogOutput) Entries() []LogEntry {
	lo.mu.RLock()
	defer lo.mu.RUnlock()

	entries := make([]LogEntry, len(lo.entries))
	copy(entries, lo.entries)
	return entries
}

// HasLevel checks if any log entry has the specified level.
func (lo *LogOutput) HasLevel(level string) bool {
	for _, entry := range lo.Entries() {
		if entry.Level == level {
			return true
		}
	}
	return false
}

// HasMessage checks if any log entry contains the message.
func (lo *LogOutput) HasMessage(message string) bool {
	for _, entry := range lo.Entries() {
		if strings.Contains(entry.Message, message) {
			return true
		}
	}
	return false
}

// Contains reports whether s appears anywhere in the captured output.
func (lo *LogOutput) Contains(s string) bool {
	for _, entry := range lo.Entries() {
		if strings.Contains(entry.Raw, s) {
			return true
		}
	}
	return false
}

// Clear clears all captured entries.
func (lo *LogOutput) Clear() {
	lo.mu.Lock()
	defer lo.mu.Unlock()
	lo.entries = nil
}

// SkipIfShort skips test if testing.Short() is true.
func SkipIfShort(t *testing.T, reason string) {
	if testing.Short() {
		t.Skipf("Skipping test in short mode: %s", reason)
	}
}
