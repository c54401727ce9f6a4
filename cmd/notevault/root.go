package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/TheMichaelB/notevault/internal/config"
	"github.com/TheMichaelB/notevault/internal/crypto"
	"github.com/TheMichaelB/notevault/internal/events"
	"github.com/TheMichaelB/notevault/internal/models"
	"github.com/TheMichaelB/notevault/internal/services/notes"
	"github.com/TheMichaelB/notevault/internal/storage"
	"github.com/TheMichaelB/notevault/internal/users"
	"github.com/TheMichaelB/notevault/internal/vault"
)

var (
	cfgFile    string
	jsonOutput bool
	verbose    bool

	cfg    *config.Config
	logger *events.Logger
)

var rootCmd = &cobra.Command{
	Use:   "notevault",
	Short: "Password-protected local notes",
	Long: `notevault keeps private notes on disk encrypted with AES-256-CBC and
authenticated with HMAC-SHA256. Keys are derived from your password and are
never stored.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"Config file (default: ./notevault.json or ~/.notevault/notevault.json)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Print results as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")
}

func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.NewLoader(cfgFile).Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if verbose {
		loaded.Log.Level = "debug"
	}
	if !loaded.Log.Color {
		color.NoColor = true
	}

	l, err := events.NewLogger(&loaded.Log)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	events.SetDefault(l)
	cmd.SetContext(events.WithLogger(cmd.Context(), l))

	cfg, logger = loaded, l
	return nil
}

// app wires the storage, vault and user directory from the loaded config.
type app struct {
	blobs *storage.LocalStore
	store *vault.Store
	users *users.Directory
	repo  *notes.Repository
	notes *notes.Service
}

func openApp() (*app, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	blobs, err := storage.NewLocalStore(cfg.NotesPath(), logger)
	if err != nil {
		return nil, fmt.Errorf("open note storage: %w", err)
	}
	blobs.SetMaxFileSize(cfg.Storage.MaxRecordSize)

	store, err := newVaultStore(blobs, cfg.Vault.RecordFormat)
	if err != nil {
		return nil, err
	}

	dir, err := users.Open(cfg.DatabasePath(), logger,
		users.WithMinPasswordScore(cfg.Users.MinPasswordScore))
	if err != nil {
		return nil, fmt.Errorf("open user directory: %w", err)
	}

	repo := notes.NewRepository(blobs, store, logger)
	return &app{
		blobs: blobs,
		store: store,
		users: dir,
		repo:  repo,
		notes: notes.NewService(dir, repo, logger),
	}, nil
}

func (a *app) Close() {
	if err := a.users.Close(); err != nil {
		logger.WithError(err).Warn("Close user directory")
	}
}

func newVaultStore(blobs storage.BlobStore, formatName string) (*vault.Store, error) {
	format, err := vault.ParseFormat(formatName)
	if err != nil {
		return nil, err
	}
	return vault.NewStore(blobs, crypto.NewProvider(), logger, vault.WithFormat(format)), nil
}

// userMessage hides cryptographic detail from the terminal.
func userMessage(err error) string {
	switch {
	case errors.Is(err, models.ErrTamperedRecord):
		return "access denied"
	case errors.Is(err, users.ErrInvalidCredentials), errors.Is(err, users.ErrUserNotFound):
		return "invalid username or password"
	default:
		return err.Error()
	}
}
