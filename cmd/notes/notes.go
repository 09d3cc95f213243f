package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/alkime/pagenotes/internal/audio"
	"github.com/alkime/pagenotes/internal/keyring"
	"github.com/alkime/pagenotes/internal/note"
	"github.com/alkime/pagenotes/internal/notes"
	"github.com/alkime/pagenotes/internal/transcription"
	"github.com/alkime/pagenotes/internal/workdir"
)

// ListCmd prints the notes of a document.
type ListCmd struct {
	Document string `arg:"" help:"Document id"`
	Page     int    `flag:"" help:"Only notes on this page (default: every page)"`
}

// Run executes the list command.
func (c *ListCmd) Run(g *Globals) error {
	store, err := g.loadStore(context.Background(), c.Document)
	if err != nil {
		return err
	}

	mode := notes.AllPages
	if c.Page > 0 {
		mode = notes.CurrentPageOnly
	}

	list := store.FilteredView(c.Page, mode)
	if len(list) == 0 {
		fmt.Println("no notes")
		return nil
	}

	for _, n := range list {
		fmt.Printf("%s  p.%-3d %-5s %s  %s\n",
			n.ID, n.Page, n.Type, n.CreatedAt.Local().Format("2006-01-02 15:04"), summary(n))
	}

	return nil
}

// AddTextCmd adds a text note.
type AddTextCmd struct {
	Document string `arg:"" help:"Document id"`
	Text     string `arg:"" help:"Note text (at most 1500 characters)"`
	Page     int    `flag:"" default:"1" help:"Page the note belongs to"`
}

// Run executes the add-text command.
func (c *AddTextCmd) Run(g *Globals) error {
	ctx := context.Background()

	store, err := g.loadStore(ctx, c.Document)
	if err != nil {
		return err
	}

	created, err := store.Create(ctx, note.Draft{
		Type:    note.TypeText,
		Content: c.Text,
		Page:    c.Page,
	})
	if err != nil {
		return err
	}

	fmt.Printf("added note %s on page %d\n", created.ID, created.Page)

	return nil
}

// TranscribeCmd transcribes one voice note.
type TranscribeCmd struct {
	Document     string `arg:"" help:"Document id"`
	ID           string `arg:"" help:"Note id"`
	OpenAIAPIKey string `flag:"" env:"OPENAI_API_KEY" help:"OpenAI API key (default: keychain)"`
}

// Run executes the transcribe command.
func (c *TranscribeCmd) Run(g *Globals) error {
	apiKey := keyring.Resolve(c.OpenAIAPIKey, keyring.OpenAI)
	if apiKey == "" {
		return errors.New("missing OpenAI API key: set OPENAI_API_KEY or run 'notes config set-key openai <key>'")
	}

	ctx := context.Background()

	n, err := findNote(ctx, g, c.Document, c.ID)
	if err != nil {
		return err
	}

	text, err := transcription.NewTranscriber(apiKey).TranscribeNote(ctx, n)
	if err != nil {
		return err
	}

	fmt.Println(text)

	return nil
}

// ExportCmd writes a note's content to a file: the audio of a voice note or
// the text of a text note.
type ExportCmd struct {
	Document string `arg:"" help:"Document id"`
	ID       string `arg:"" help:"Note id"`
	Output   string `flag:"" short:"o" help:"Output path (default: exports directory)"`
}

// Run executes the export command.
func (c *ExportCmd) Run(g *Globals) error {
	n, err := findNote(context.Background(), g, c.Document, c.ID)
	if err != nil {
		return err
	}

	data, ext, err := exportContent(n)
	if err != nil {
		return err
	}

	path := c.Output
	if path == "" {
		if path, err = workdir.ExportPath(c.Document, "note-"+n.ID+ext); err != nil {
			return err
		}
	}

	if err := workdir.Prep(path); err != nil {
		return err
	}

	//nolint:gosec // user-chosen export path
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	fmt.Printf("wrote %s\n", path)

	return nil
}

// exportContent returns the bytes to write for n and a file extension.
func exportContent(n note.Note) ([]byte, string, error) {
	if n.Type == note.TypeText {
		return []byte(n.Content + "\n"), ".txt", nil
	}

	mimeType, raw, err := audio.DecodeDataURL(n.Content)
	if err != nil {
		return nil, "", fmt.Errorf("note %s: %w", n.ID, err)
	}

	return raw, transcription.Extension(mimeType), nil
}

func findNote(ctx context.Context, g *Globals, documentID, id string) (note.Note, error) {
	store, err := g.loadStore(ctx, documentID)
	if err != nil {
		return note.Note{}, err
	}

	n, ok := store.Get(id)
	if !ok {
		return note.Note{}, fmt.Errorf("note %s not found in document %s", id, documentID)
	}

	return n, nil
}

func summary(n note.Note) string {
	if n.Type == note.TypeAudio {
		mimeType, _, _ := strings.Cut(strings.TrimPrefix(n.Content, "data:"), ";")
		return "(" + mimeType + ")"
	}

	line, _, _ := strings.Cut(n.Content, "\n")

	return line
}
