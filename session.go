package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/samber/lo"
	"golang.org/x/term"

	"github.com/metcalfc/narr/internal/api"
	"github.com/metcalfc/narr/internal/book"
	"github.com/metcalfc/narr/internal/config"
	"github.com/metcalfc/narr/internal/diag"
	"github.com/metcalfc/narr/internal/playback"
	"github.com/metcalfc/narr/internal/reader"
	"github.com/metcalfc/narr/internal/state"
)

// readingSession is everything a front end needs to show one book.
type readingSession struct {
	Book        *book.Book
	Coordinator *playback.Coordinator
	Cues        map[string]playback.Cue
	Track       playback.Track
	Store       *state.StateStore
	Key         string
	Changes     <-chan struct{}
	Reload      func() (string, error)
	Fallback    time.Duration
	ShowTOC     bool
}

// sentenceOptions configures the page-local sentence player of a front end.
// Call it after setupLogging.
func sentenceOptions(s *readingSession) []playback.Option {
	return []playback.Option{
		playback.WithFallbackDuration(s.Fallback),
		playback.WithLogger(slog.Default().With("component", "sentences")),
	}
}

// frontend displays a session until the user quits.
type frontend func(ctx context.Context, s *readingSession) error

var errNoText = errors.New("no text to read")

// settings are the flags shared by every command. Zero values mean "not set".
type settings struct {
	Server string
	Debug  bool
	Lines  int
	Width  int
}

// loadConfig applies flags over environment, file and defaults.
func loadConfig(s settings) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if s.Server != "" {
		cfg.APIURL = s.Server
	}
	if s.Debug {
		cfg.Debug = true
	}
	if s.Lines > 0 {
		cfg.LinesPerPage = s.Lines
	}
	if s.Width > 0 {
		cfg.CharsPerLine = s.Width
	}
	return cfg, nil
}

// setupLogging sends logs to the log file. The returned func closes it.
func setupLogging(cfg config.Config) func() {
	closer, err := diag.Setup(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}
	slog.Debug("narr starting", "version", appVersion(), "api", cfg.APIURL)
	return func() { closer.Close() }
}

func openStore() *state.StateStore {
	store, err := state.NewStateStore()
	if err != nil {
		slog.Warn("reading positions will not be saved", "error", err)
		return nil
	}
	return store
}

// restorePage moves b to the page saved under key.
func restorePage(b *book.Book, store *state.StateStore, key string, fresh bool) {
	if store == nil || key == "" || fresh {
		return
	}
	if page := store.GetPage(key); page > 0 && page < b.PageCount() {
		b.GoTo(page)
	}
}

// loadDocument reads file, or stdin when file is empty, and returns the
// document with its state key.
func loadDocument(file string, stdin io.Reader, stdinIsTerminal bool) (*reader.Document, string, error) {
	if file != "" {
		doc, err := reader.Open(file)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read file '%s': %w", file, err)
		}
		key, err := state.ComputeHash(file)
		if err != nil {
			slog.Warn("cannot hash file, position will not be saved", "file", file, "error", err)
			key = ""
		}
		return doc, key, nil
	}

	if stdinIsTerminal {
		return nil, "", errors.New("no input provided. Provide a file or pipe text to stdin")
	}
	doc, err := reader.ReadAll("stdin", stdin)
	if err != nil {
		return nil, "", fmt.Errorf("reading stdin: %w", err)
	}
	return doc, state.HashText(doc.Text), nil
}

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// localSession builds a session for a file or stdin.
func localSession(ctx context.Context, p *ReadParams, cfg config.Config) (*readingSession, error) {
	doc, key, err := loadDocument(p.File, os.Stdin, stdinIsTerminal())
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(doc.Text) == "" {
		return nil, errNoText
	}

	coord, err := playback.FromContext(ctx)
	if err != nil {
		return nil, err
	}

	b := book.FromDocument(doc, cfg.Layout())
	store := openStore()
	restorePage(b, store, key, p.Fresh)

	s := &readingSession{
		Book:        b,
		Coordinator: coord,
		Track:       playback.Track{ID: key, Title: b.Title},
		Store:       store,
		Key:         key,
		Fallback:    cfg.SentenceFallback,
		ShowTOC:     p.TOC,
	}

	if p.Watch {
		if p.File == "" {
			return nil, errors.New("--watch needs a file")
		}
		changes, err := reader.Watch(ctx, p.File)
		if err != nil {
			return nil, fmt.Errorf("watching %s: %w", p.File, err)
		}
		s.Changes = changes
		s.Reload = func() (string, error) {
			doc, err := reader.Open(p.File)
			if err != nil {
				return "", err
			}
			return doc.Text, nil
		}
	}
	return s, nil
}

// newClient returns a backend client authenticated with the configured or
// cached token.
func newClient(cfg config.Config) *api.Client {
	token := cfg.Token
	if token == "" {
		cached, err := state.LoadToken(time.Now())
		if err != nil && !errors.Is(err, state.ErrNoToken) {
			slog.Warn("reading cached token", "error", err)
		}
		token = cached
	}
	return api.New(cfg.APIURL, api.WithToken(token), clientLogger())
}

// clientLogger tags API request logs. Call it after setupLogging.
func clientLogger() api.Option {
	return api.WithLogger(slog.Default().With("component", "api"))
}

// rememberServer stores server as api_url in the config file at path,
// keeping the other keys. Environment overrides are not written back.
func rememberServer(path, server string) error {
	cfg, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	cfg.APIURL = server
	return cfg.Save(path)
}

// remoteSession builds a session for a novel stored on the backend.
func remoteSession(ctx context.Context, client *api.Client, id string, p *OpenParams, cfg config.Config) (*readingSession, error) {
	novel, err := client.Novel(ctx, id)
	if err != nil {
		return nil, explainAPIError(err)
	}
	sentences, err := client.Sentences(ctx, id)
	if err != nil {
		return nil, explainAPIError(err)
	}

	content := novel.Text(sentences)
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("novel %s (%s): %w", id, novel.Status, errNoText)
	}

	coord, err := playback.FromContext(ctx)
	if err != nil {
		return nil, err
	}

	b := book.FromDocument(reader.FromText(novel.Title, content), cfg.Layout())
	key := state.NovelKey(novel.ID)
	store := openStore()
	restorePage(b, store, key, p.Fresh)

	return &readingSession{
		Book:        b,
		Coordinator: coord,
		Cues:        cuesFor(client, sentences),
		Track: playback.Track{
			ID:       novel.ID,
			Title:    novel.Title,
			AudioURL: client.ResolveURL(novel.FullAudioURL),
		},
		Store:    store,
		Key:      key,
		Fallback: cfg.SentenceFallback,
	}, nil
}

// cuesFor keys sentence audio by the text the reader displays.
func cuesFor(client *api.Client, sentences []api.Sentence) map[string]playback.Cue {
	withText := lo.Filter(sentences, func(s api.Sentence, _ int) bool {
		return strings.TrimSpace(s.Text) != ""
	})
	return lo.SliceToMap(withText, func(s api.Sentence) (string, playback.Cue) {
		t := strings.TrimSpace(s.Text)
		return t, playback.Cue{ID: s.ID, Text: t, AudioURL: client.ResolveURL(s.AudioURL)}
	})
}

func explainAPIError(err error) error {
	if errors.Is(err, api.ErrUnauthorized) {
		return fmt.Errorf("%w. Run 'narr login' first", err)
	}
	return err
}

// renderNovels prints the novel listing as a table.
func renderNovels(w io.Writer, novels []api.NovelSummary) {
	if len(novels) == 0 {
		fmt.Fprintln(w, "No novels found.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Title", "Status", "Created"})
	for _, n := range novels {
		t.AppendRow(table.Row{n.ID, n.Title, statusColor(n.Status)(n.Status), n.CreatedAt})
	}
	t.Render()
}

func statusColor(status string) func(a ...interface{}) string {
	switch strings.ToLower(status) {
	case "completed", "done", "ready":
		return text.FgGreen.Sprint
	case "processing", "pending", "queued":
		return text.FgYellow.Sprint
	case "failed", "error":
		return text.FgHiRed.Sprint
	}
	return text.FgHiBlack.Sprint
}

// readPassword prompts on the terminal without echo, or reads one line from
// piped stdin.
func readPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, prompt)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
