package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/alkime/pagenotes/internal/audio"
	"github.com/alkime/pagenotes/internal/capture"
	"github.com/alkime/pagenotes/internal/keyring"
	"github.com/alkime/pagenotes/internal/logger"
	"github.com/alkime/pagenotes/internal/notes"
	"github.com/alkime/pagenotes/internal/notesapi"
	"github.com/alkime/pagenotes/internal/panel"
	"github.com/alkime/pagenotes/internal/repository"
	"github.com/alkime/pagenotes/internal/transcription"
	"github.com/alkime/pagenotes/internal/tui"
	"github.com/alkime/pagenotes/internal/workdir"
	tea "github.com/charmbracelet/bubbletea"
)

// CLI defines the notes command structure.
type CLI struct {
	Globals

	// Default TUI command (runs when no subcommand given)
	TUI TUICmd `cmd:"" default:"withargs" help:"Open the notes panel for a document"`

	// Subcommands
	List       ListCmd       `cmd:"" help:"Print the notes of a document"`
	AddText    AddTextCmd    `cmd:"" name:"add-text" help:"Add a text note to a page"`
	Transcribe TranscribeCmd `cmd:"" help:"Transcribe a voice note with Whisper"`
	Export     ExportCmd     `cmd:"" help:"Write a note's content to a file"`
	Devices    DevicesCmd    `cmd:"" help:"List available audio devices"`
	Config     ConfigCmd     `cmd:"" help:"Manage configuration"`
}

// Globals are flags shared by every command.
type Globals struct {
	APIURL  string `name:"api-url" env:"NOTES_API_URL" default:"http://localhost:8080" help:"Notes server URL"`
	Token   string `env:"NOTES_API_TOKEN" help:"Notes server bearer token (default: keychain)"`
	Local   bool   `help:"Use the local note files instead of the notes server"`
	DataDir string `env:"NOTES_DATA_DIR" help:"Local note directory (with --local)"`
	Verbose bool   `short:"v" help:"Debug logging"`
}

// service returns the backing note service the flags select.
func (g *Globals) service() (notes.Service, error) {
	if !g.Local {
		return notesapi.New(g.APIURL, keyring.Resolve(g.Token, keyring.NotesAPI)), nil
	}

	dir := g.DataDir
	if dir == "" {
		var err error
		if dir, err = workdir.NotesDir(); err != nil {
			return nil, err
		}
	}

	repo, err := repository.OpenFile(dir, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to open local notes: %w", err)
	}

	return repo, nil
}

// loadStore opens the backing service and loads documentID into a store.
func (g *Globals) loadStore(ctx context.Context, documentID string) (*notes.Store, error) {
	svc, err := g.service()
	if err != nil {
		return nil, err
	}

	store := notes.NewStore(svc, slog.Default())
	if err := store.Load(ctx, documentID); err != nil {
		return nil, err
	}

	return store, nil
}

// TUICmd is the default command that runs the notes panel.
type TUICmd struct {
	Document     string `arg:"" help:"Document id"`
	Page         int    `flag:"" default:"1" help:"Page to open on"`
	AllPages     bool   `flag:"" help:"Show notes from every page"`
	OpenAIAPIKey string `flag:"" env:"OPENAI_API_KEY" help:"OpenAI API key for transcription (default: keychain)"`
}

// Run executes the TUI command.
func (c *TUICmd) Run(g *Globals) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The panel owns the terminal, so logs go to a file.
	logFile, err := openLogFile()
	if err != nil {
		return err
	}
	defer logFile.Close()

	slogger := logger.SetupCLI(logFile, g.Verbose)

	svc, err := g.service()
	if err != nil {
		return err
	}

	store := notes.NewStore(svc, slogger)
	mic := capture.NewDeviceMicrophone(capture.DefaultDeviceConfig())
	flow := panel.NewFlow(store, mic, audio.NewEncoder(slogger), panel.FlowConfig{Logger: slogger})

	p := panel.New(store, flow, slogger)
	p.SetPage(c.Page)

	if c.AllPages {
		p.SetFilter(notes.AllPages)
	}

	config := tui.Config{
		DocumentID: c.Document,
		Cancel:     cancel,
		Logger:     slogger,
	}

	if key := keyring.Resolve(c.OpenAIAPIKey, keyring.OpenAI); key != "" {
		config.Transcriber = transcription.NewTranscriber(key)
	} else {
		slogger.Debug("transcription disabled: no OpenAI key")
	}

	prog := tea.NewProgram(tui.New(ctx, p, config), tea.WithAltScreen())
	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("failed to start TUI: %w", err)
	}

	// Release the microphone even if the program ended abnormally.
	flow.Cancel()

	return nil
}

func openLogFile() (*os.File, error) {
	path, err := workdir.LogPath()
	if err != nil {
		return nil, err
	}

	if err := workdir.Prep(path); err != nil {
		return nil, err
	}

	//nolint:gosec // path is built from the user's home directory
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return f, nil
}

// DevicesCmd lists available audio devices.
type DevicesCmd struct{}

// Run executes the devices command.
func (dcmd *DevicesCmd) Run() error {
	slog.Info("Enumerating audio devices...")

	devices, err := capture.EnumerateDevices()
	if err != nil {
		return fmt.Errorf("failed to enumerate audio devices: %w", err)
	}

	for _, dev := range devices {
		slog.Info("Audio Device",
			"name", dev.Name,
			"isDefault", dev.IsDefault,
			"formatCount", dev.FormatCount,
			"formats", dev.Formats,
		)
	}

	return nil
}

// ConfigCmd groups configuration-related subcommands.
type ConfigCmd struct {
	SetKey   SetKeyCmd   `cmd:"" help:"Store a secret in system keychain"`
	ListKeys ListKeysCmd `cmd:"" name:"list-keys" help:"Show which secrets are configured"`
}

// SetKeyCmd stores a secret in the system keychain.
type SetKeyCmd struct {
	Service string `arg:"" enum:"openai,notes-api" help:"Secret name (openai or notes-api)"`
	Secret  string `arg:"" help:"Secret value"`
}

// Run executes the set-key command.
func (c *SetKeyCmd) Run() error {
	if strings.TrimSpace(c.Secret) == "" {
		return errors.New("secret cannot be empty")
	}

	secret, err := keyring.SecretFromName(c.Service)
	if err != nil {
		return fmt.Errorf("invalid service: %w", err)
	}

	if err := keyring.Set(secret, c.Secret); err != nil {
		return fmt.Errorf("failed to store secret: %w", err)
	}

	fmt.Printf("%s secret stored in keychain\n", c.Service)

	return nil
}

// ListKeysCmd shows which secrets are configured.
type ListKeysCmd struct{}

// Run executes the list-keys command.
//
//nolint:unparam // error return required by Kong interface
func (c *ListKeysCmd) Run() error {
	allSet := true

	for _, secret := range keyring.AllSecrets() {
		if keyring.IsSet(secret) {
			fmt.Printf("%s: configured\n", secret.DisplayName())
		} else {
			fmt.Printf("%s: not set\n", secret.DisplayName())
			allSet = false
		}
	}

	if !allSet {
		fmt.Println("\nRun 'notes config set-key <service> <secret>' to configure.")
	}

	return nil
}

func main() {
	cli := &CLI{} //nolint:exhaustruct // Kong fills in command fields
	ctx := kong.Parse(cli,
		kong.Name("notes"),
		kong.Description("Page notes with voice memos."),
	)

	// Commands other than the TUI log to stderr.
	logger.SetupCLI(os.Stderr, cli.Verbose)

	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
	os.Exit(0)
}
