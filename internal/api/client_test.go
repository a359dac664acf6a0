package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"
)

// backend is a fake narration server.
type backend struct {
	*httptest.Server

	mu            sync.Mutex
	lastAuth      string
	lastRequestID string
}

func (b *backend) seen() (auth, requestID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastAuth, b.lastRequestID
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{}
	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			b.mu.Lock()
			b.lastAuth = req.Header.Get("Authorization")
			b.lastRequestID = req.Header.Get("X-Request-ID")
			b.mu.Unlock()
			next.ServeHTTP(w, req)
		})
	})

	r.HandleFunc("/api/novels", func(w http.ResponseWriter, req *http.Request) {
		if req.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			writeJSON(w, map[string]any{"success": false, "error": map[string]string{"message": "Invalid token"}})
			return
		}
		writeJSON(w, map[string]any{"success": true, "data": []NovelSummary{
			{ID: "1", Title: "First", CreatedAt: "2024-01-01T00:00:00Z", Status: "completed"},
			{ID: "2", Title: "Second", Status: "processing"},
		}})
	}).Methods("GET")

	r.HandleFunc("/api/novels/{id}", func(w http.ResponseWriter, req *http.Request) {
		id := mux.Vars(req)["id"]
		if id != "1" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("not json"))
			return
		}
		writeJSON(w, map[string]any{"success": true, "data": Novel{ID: "1", Title: "First", Status: "completed"}})
	}).Methods("GET")

	r.HandleFunc("/api/novels/{id}/sentences", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, map[string]any{"success": true, "data": []Sentence{
			{ID: "s1", Text: "Hello.", AudioURL: "/audio/s1.mp3"},
			{ID: "s2", Text: "World!", AudioURL: "/audio/s2.mp3"},
		}})
	}).Methods("GET")

	r.HandleFunc("/auth/login", func(w http.ResponseWriter, req *http.Request) {
		var c credentials
		if err := json.NewDecoder(req.Body).Decode(&c); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if c.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			writeJSON(w, map[string]any{"success": false, "error": map[string]string{"message": "Wrong password"}})
			return
		}
		// Login answers without the data wrapper.
		writeJSON(w, map[string]any{"access_token": "good", "token_type": "bearer"})
	}).Methods("POST")

	r.HandleFunc("/auth/register", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods("POST")

	r.HandleFunc("/broken", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, map[string]any{"success": false, "error": map[string]string{}})
	})

	b.Server = httptest.NewServer(r)
	t.Cleanup(b.Close)
	return b
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func TestListNovels(t *testing.T) {
	b := newBackend(t)
	c := New(b.URL, WithToken("good"))

	novels, err := c.ListNovels(context.Background())
	if err != nil {
		t.Fatalf("ListNovels: %v", err)
	}
	if len(novels) != 2 || novels[0].Title != "First" || novels[1].Status != "processing" {
		t.Errorf("novels = %+v", novels)
	}
	auth, requestID := b.seen()
	if auth != "Bearer good" {
		t.Errorf("Authorization = %q", auth)
	}
	if requestID == "" {
		t.Error("no X-Request-ID sent")
	}
}

func TestRequestLogging(t *testing.T) {
	b := newBackend(t)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := New(b.URL, WithToken("good"), WithLogger(logger))

	if _, err := c.ListNovels(context.Background()); err != nil {
		t.Fatal(err)
	}
	_, requestID := b.seen()
	out := buf.String()
	for _, want := range []string{"api request", "api response", "path=/api/novels", "id=" + requestID} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "good") {
		t.Error("token leaked into the log")
	}
}

func TestUnauthorized(t *testing.T) {
	b := newBackend(t)
	c := New(b.URL, WithToken("bad"))

	_, err := c.ListNovels(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Message != "Invalid token" {
		t.Errorf("err = %#v, want backend message", err)
	}
}

func TestNoTokenSendsNoAuthorization(t *testing.T) {
	b := newBackend(t)
	c := New(b.URL)

	c.ListNovels(context.Background())
	if auth, _ := b.seen(); auth != "" {
		t.Errorf("Authorization = %q, want none", auth)
	}
}

func TestNovelNotFoundUsesStatusText(t *testing.T) {
	b := newBackend(t)
	c := New(b.URL, WithToken("good"))

	_, err := c.Novel(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "Not Found" {
		t.Errorf("message = %q, want status text", apiErr.Message)
	}
}

func TestNovelAndSentences(t *testing.T) {
	b := newBackend(t)
	c := New(b.URL+"/", WithToken("good"))

	n, err := c.Novel(context.Background(), "1")
	if err != nil {
		t.Fatalf("Novel: %v", err)
	}
	sentences, err := c.Sentences(context.Background(), "1")
	if err != nil {
		t.Fatalf("Sentences: %v", err)
	}
	if len(sentences) != 2 || sentences[1].ID != "s2" {
		t.Fatalf("sentences = %+v", sentences)
	}
	if got := n.Text(sentences); got != "Hello. World!" {
		t.Errorf("Text = %q", got)
	}
	if got := c.ResolveURL(sentences[0].AudioURL); got != b.URL+"/audio/s1.mp3" {
		t.Errorf("ResolveURL = %q", got)
	}
}

func TestLoginAndRegister(t *testing.T) {
	b := newBackend(t)
	c := New(b.URL)
	ctx := context.Background()

	if err := c.Register(ctx, "a@example.com", "secret"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	token, err := c.Login(ctx, "a@example.com", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token != "good" {
		t.Errorf("token = %q", token)
	}

	_, err = c.Login(ctx, "a@example.com", "nope")
	if err == nil || err.Error() != "Wrong password (HTTP 401)" {
		t.Errorf("err = %v", err)
	}
}

func TestEnvelopeErrorWithoutMessage(t *testing.T) {
	b := newBackend(t)
	c := New(b.URL)

	err := c.do(context.Background(), http.MethodGet, "/broken", nil, nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Message != "unknown API error" {
		t.Errorf("err = %v", err)
	}
}

func TestNovelTextPrefersContent(t *testing.T) {
	n := &Novel{Content: "Full text."}
	if got := n.Text([]Sentence{{Text: "Other."}}); got != "Full text." {
		t.Errorf("Text = %q", got)
	}

	n = &Novel{}
	if got := n.Text([]Sentence{{Text: " A. "}, {Text: ""}, {Text: "B."}}); got != "A. B." {
		t.Errorf("Text = %q", got)
	}
}

func TestResolveURL(t *testing.T) {
	c := New("http://host:8081/")
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"/a.mp3", "http://host:8081/a.mp3"},
		{"https://cdn.example.com/a.mp3", "https://cdn.example.com/a.mp3"},
	}
	for _, tt := range tests {
		if got := c.ResolveURL(tt.in); got != tt.want {
			t.Errorf("ResolveURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
