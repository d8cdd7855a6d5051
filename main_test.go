package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"portfolio-chat/internal/chat"
	"portfolio-chat/internal/config"
	"portfolio-chat/internal/display"
	"portfolio-chat/internal/mock"
)

// sandbox points HOME at a temp dir and captures display output.
func sandbox(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	var out, errOut bytes.Buffer
	origOut, origErr := display.Stdout, display.Stderr
	display.Stdout, display.Stderr = &out, &errOut
	origProfile := activeProfile
	t.Cleanup(func() {
		display.Stdout, display.Stderr = origOut, origErr
		activeProfile = origProfile
	})
	return &out, &errOut
}

func TestVersionString(t *testing.T) {
	tests := []struct {
		name       string
		version    string
		commit     string
		date       string
		wantPrefix string
		wantCommit bool
	}{
		{
			name:       "dev build",
			version:    "dev",
			commit:     "none",
			date:       "unknown",
			wantPrefix: "portfolio-chat dev",
			wantCommit: false,
		},
		{
			name:       "release build",
			version:    "v1.2.3",
			commit:     "abc1234",
			date:       "2026-02-25T10:00:00Z",
			wantPrefix: "portfolio-chat v1.2.3",
			wantCommit: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Save and restore globals
			origVersion, origCommit, origDate := version, commit, date
			defer func() { version, commit, date = origVersion, origCommit, origDate }()

			version = tt.version
			commit = tt.commit
			date = tt.date

			got := versionString()

			if !strings.HasPrefix(got, tt.wantPrefix) {
				t.Errorf("versionString() = %q, want prefix %q", got, tt.wantPrefix)
			}

			hasCommit := strings.Contains(got, "commit:")
			if hasCommit != tt.wantCommit {
				t.Errorf("versionString() commit present = %v, want %v\noutput: %q", hasCommit, tt.wantCommit, got)
			}
			if tt.wantCommit && (!strings.Contains(got, tt.commit) || !strings.Contains(got, tt.date)) {
				t.Errorf("versionString() = %q, want commit and date", got)
			}
		})
	}
}

func TestRootCommands(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	sort.Strings(names)

	want := []string{"ask", "chat", "config", "mock", "ping", "profiles", "set", "version"}
	for _, w := range want {
		if i := sort.SearchStrings(names, w); i >= len(names) || names[i] != w {
			t.Errorf("missing command %q in %v", w, names)
		}
	}

	if root.PersistentFlags().Lookup("profile") == nil {
		t.Error("--profile should be a persistent flag")
	}
}

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out.String(), "portfolio-chat ") {
		t.Errorf("version output = %q", out.String())
	}
}

func TestAskRequiresQuestion(t *testing.T) {
	sandbox(t)
	root := newRootCmd()
	root.SetArgs([]string{"ask"})
	if err := root.Execute(); err == nil {
		t.Error("ask without a question should fail")
	}
}

func TestAskStreamsAnswer(t *testing.T) {
	out, _ := sandbox(t)
	srv := httptest.NewServer(mock.New(mock.Options{Answer: "Hello there"}).Handler())
	defer srv.Close()
	t.Setenv("PORTFOLIO_CHAT_ENDPOINT", srv.URL)

	if err := cmdAsk(context.Background(), "Who are you?"); err != nil {
		t.Fatalf("cmdAsk: %v", err)
	}
	if !strings.Contains(out.String(), "Hello there") {
		t.Errorf("output = %q, want streamed answer", out.String())
	}
}

func TestAskServerErrorPrintsErrorText(t *testing.T) {
	out, _ := sandbox(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	t.Setenv("PORTFOLIO_CHAT_ENDPOINT", srv.URL)

	if err := cmdAsk(context.Background(), "Hi"); err != nil {
		t.Fatalf("a failed stream is not a CLI error, got %v", err)
	}
	if !strings.Contains(out.String(), chat.ErrorText) {
		t.Errorf("output = %q, want error text", out.String())
	}
}

func TestAskEmptyReplyPrintsFallback(t *testing.T) {
	out, _ := sandbox(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("data:   \n\n"))
	}))
	defer srv.Close()
	t.Setenv("PORTFOLIO_CHAT_ENDPOINT", srv.URL)

	if err := cmdAsk(context.Background(), "Hi"); err != nil {
		t.Fatalf("cmdAsk: %v", err)
	}
	if !strings.Contains(out.String(), chat.FallbackText) {
		t.Errorf("output = %q, want fallback text", out.String())
	}
}

func TestAskTrimsLeadingWhitespace(t *testing.T) {
	out, _ := sandbox(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("data:\n\ndata:   Hello there\n\n"))
	}))
	defer srv.Close()
	t.Setenv("PORTFOLIO_CHAT_ENDPOINT", srv.URL)

	if err := cmdAsk(context.Background(), "Hi"); err != nil {
		t.Fatalf("cmdAsk: %v", err)
	}
	if !strings.Contains(out.String(), "\r\033[KHello there") {
		t.Errorf("output = %q, want the reply to start at its first word", out.String())
	}
	if !strings.Contains(out.String(), "Reply") {
		t.Errorf("output = %q, want the reply label", out.String())
	}
}

func TestAskBrokenStreamDropsPartialReply(t *testing.T) {
	out, _ := sandbox(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		conn, buf, err := http.NewResponseController(w).Hijack()
		if err != nil {
			t.Errorf("hijack: %v", err)
			return
		}
		defer conn.Close()
		// Promise more body than is sent, then hang up.
		_, _ = buf.WriteString("HTTP/1.1 200 OK\r\nContent-Type: text/event-stream\r\nContent-Length: 500\r\n\r\n")
		_, _ = buf.WriteString("data: partial\nanswer\n")
		_ = buf.Flush()
	}))
	defer srv.Close()
	t.Setenv("PORTFOLIO_CHAT_ENDPOINT", srv.URL)
	t.Setenv("PORTFOLIO_CHAT_FRAMING", "chunks")

	if err := cmdAsk(context.Background(), "Hi"); err != nil {
		t.Fatalf("a failed stream is not a CLI error, got %v", err)
	}

	got := out.String()
	shown := strings.LastIndex(got, "partial")
	cleared := strings.LastIndex(got, "\r\033[K")
	if shown < 0 || cleared < shown {
		t.Fatalf("output = %q, want the partial reply erased", got)
	}
	if tail := got[cleared:]; strings.Contains(tail, "partial") || !strings.Contains(tail, chat.ErrorText) {
		t.Errorf("after erase = %q, want only the error text", tail)
	}
	if n := strings.Count(got[shown:], "\033[1A"); n != 1 {
		t.Errorf("cursor moved up %d lines, want 1 for a two-line partial reply", n)
	}
}

func TestAskInvalidConfig(t *testing.T) {
	sandbox(t)
	t.Setenv("PORTFOLIO_CHAT_ENDPOINT", "not a url")
	if err := cmdAsk(context.Background(), "Hi"); err == nil {
		t.Error("invalid endpoint should be a CLI error")
	}
}

func TestPing(t *testing.T) {
	out, _ := sandbox(t)
	srv := httptest.NewServer(mock.New(mock.Options{}).Handler())
	defer srv.Close()
	t.Setenv("PORTFOLIO_CHAT_ENDPOINT", srv.URL)

	if err := cmdPing(context.Background()); err != nil {
		t.Fatalf("cmdPing: %v", err)
	}
	if !strings.Contains(out.String(), "is up") {
		t.Errorf("output = %q", out.String())
	}
}

func TestPingDown(t *testing.T) {
	sandbox(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	t.Setenv("PORTFOLIO_CHAT_ENDPOINT", srv.URL)

	if err := cmdPing(context.Background()); err == nil {
		t.Error("a 404 health check should fail")
	}
}

func TestSetAndConfig(t *testing.T) {
	out, _ := sandbox(t)
	activeProfile = "staging"

	if err := cmdSet("framing", "sse"); err != nil {
		t.Fatalf("cmdSet: %v", err)
	}
	if err := cmdSet("framing", "xml"); err == nil {
		t.Error("invalid framing should be rejected")
	}
	if err := cmdSet("nope", "x"); err == nil {
		t.Error("unknown key should be rejected")
	}

	cfg, err := config.Load("staging")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Framing != "sse" {
		t.Errorf("Framing = %q, want sse", cfg.Framing)
	}

	out.Reset()
	if err := cmdConfig(); err != nil {
		t.Fatalf("cmdConfig: %v", err)
	}
	for _, want := range []string{"staging", "sse", cfg.StreamURL()} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("config output missing %q:\n%s", want, out.String())
		}
	}
}

func TestSetDoesNotPersistEnvOverrides(t *testing.T) {
	sandbox(t)
	t.Setenv("PORTFOLIO_CHAT_ENDPOINT", "http://env.example.com")

	if err := cmdSet("title", "Ask me"); err != nil {
		t.Fatalf("cmdSet: %v", err)
	}
	cfg, err := config.LoadFile("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Endpoint != config.DefaultEndpoint {
		t.Errorf("Endpoint = %q, env override leaked into the file", cfg.Endpoint)
	}
	if cfg.Title != "Ask me" {
		t.Errorf("Title = %q", cfg.Title)
	}
}

func TestProfiles(t *testing.T) {
	out, _ := sandbox(t)

	if err := cmdProfiles(); err != nil {
		t.Fatalf("cmdProfiles: %v", err)
	}
	if !strings.Contains(out.String(), "No profiles found.") {
		t.Errorf("output = %q", out.String())
	}

	activeProfile = "dev"
	if err := cmdSet("title", "Dev"); err != nil {
		t.Fatal(err)
	}
	out.Reset()
	if err := cmdProfiles(); err != nil {
		t.Fatalf("cmdProfiles: %v", err)
	}
	if !strings.Contains(out.String(), "dev") || !strings.Contains(out.String(), "●") {
		t.Errorf("output = %q, want the active dev profile", out.String())
	}
}
