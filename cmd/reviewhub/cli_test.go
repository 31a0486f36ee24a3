package main

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/meur/reviewhub/internal/apiclient"
	"github.com/meur/reviewhub/internal/apiclient/apitest"
	"github.com/meur/reviewhub/internal/session"
	"github.com/meur/reviewhub/internal/storage"
)

type testCLI struct {
	*cli
	out   *bytes.Buffer
	toast *bytes.Buffer
	api   *apitest.Server
	path  string
}

func newTestCLI(t *testing.T) *testCLI {
	t.Helper()
	api := apitest.New(t)
	path := filepath.Join(t.TempDir(), "state.db")
	return openTestCLI(t, api, path)
}

// openTestCLI opens the state file the way a fresh process would.
func openTestCLI(t *testing.T, api *apitest.Server, path string) *testCLI {
	t.Helper()
	store, err := storage.New(path)
	if err != nil {
		t.Fatalf("open state: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	sess, err := session.New(store.Slot(session.TokenKey))
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	out, toast := &bytes.Buffer{}, &bytes.Buffer{}
	return &testCLI{
		cli: &cli{
			out:      out,
			errOut:   toast,
			api:      apiclient.New(api.BaseURL(), sess),
			store:    store,
			pageSize: 10,
		},
		out:   out,
		toast: toast,
		api:   api,
		path:  path,
	}
}

func TestListGamesTable(t *testing.T) {
	c := newTestCLI(t)
	c.api.AddGame("Alpha", "PC", 3)
	c.api.AddGame("Beta", "Switch")

	if err := c.listGames(context.Background(), 1, "title_asc"); err != nil {
		t.Fatalf("list: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(c.out.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, 2 rows and footer, got %q", c.out.String())
	}
	if !strings.HasPrefix(lines[1], "1 ") || !strings.Contains(lines[1], "Alpha") || !strings.Contains(lines[1], "3.00") {
		t.Fatalf("unexpected first row %q", lines[1])
	}
	if lines[3] != "page 1, 2 games (title_asc)" {
		t.Fatalf("unexpected footer %q", lines[3])
	}
}

func TestListGamesRejectsUnknownSort(t *testing.T) {
	c := newTestCLI(t)
	if err := c.listGames(context.Background(), 1, "price"); err == nil {
		t.Fatal("expected error for unknown sort")
	}
	if len(c.api.Requests()) != 0 {
		t.Fatal("expected no request")
	}
}

func TestListGamesEmpty(t *testing.T) {
	c := newTestCLI(t)
	if err := c.listGames(context.Background(), 1, ""); err != nil {
		t.Fatalf("list: %v", err)
	}
	if strings.TrimSpace(c.out.String()) != "No games yet." {
		t.Fatalf("unexpected output %q", c.out.String())
	}
}

func TestLoginPersistsAcrossRuns(t *testing.T) {
	c := newTestCLI(t)
	c.api.AddUser("a@b.com", "password1")
	g := c.api.AddGame("Alpha", "PC")

	if err := c.login(context.Background(), "a@b.com", "password1"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(c.toast.String(), "Logged in") {
		t.Fatalf("expected login toast, got %q", c.toast.String())
	}

	next := openTestCLI(t, c.api, c.path)
	if err := next.postReview(context.Background(), g.ID, 4, "nice", false); err != nil {
		t.Fatalf("review: %v", err)
	}
	reqs := c.api.RequestsTo(http.MethodPost, "/reviews")
	if len(reqs) != 1 || reqs[0].Header.Get("Authorization") != "Bearer t1" {
		t.Fatalf("expected one review with bearer t1, got %+v", reqs)
	}
}

func TestReviewRequiresLogin(t *testing.T) {
	c := newTestCLI(t)
	g := c.api.AddGame("Alpha", "PC")
	err := c.postReview(context.Background(), g.ID, 5, "", false)
	if err == nil || !strings.Contains(err.Error(), "login required") {
		t.Fatalf("expected login required, got %v", err)
	}
	if len(c.api.RequestsTo(http.MethodPost, "/reviews")) != 0 {
		t.Fatal("expected no request")
	}
}

func TestReviewRatingOutOfRange(t *testing.T) {
	c := newTestCLI(t)
	c.api.AnonymousReviews = true
	g := c.api.AddGame("Alpha", "PC")
	if err := c.postReview(context.Background(), g.ID, 6, "", true); err == nil {
		t.Fatal("expected rating error")
	}
	if len(c.api.RequestsTo(http.MethodPost, "/reviews")) != 0 {
		t.Fatal("expected no request")
	}
}

func TestUnauthorizedClearsStoredToken(t *testing.T) {
	c := newTestCLI(t)
	c.api.AddUser("a@b.com", "password1")
	if err := c.login(context.Background(), "a@b.com", "password1"); err != nil {
		t.Fatalf("login: %v", err)
	}
	c.api.RevokeTokens()

	err := c.whoami(context.Background())
	if err == nil || !strings.Contains(err.Error(), "login required") {
		t.Fatalf("expected login required, got %v", err)
	}
	if _, ok, _ := c.store.Get(session.TokenKey); ok {
		t.Fatal("expected stored token to be cleared")
	}
}

func TestWhoami(t *testing.T) {
	c := newTestCLI(t)
	if err := c.whoami(context.Background()); err != apiclient.ErrNotSignedIn {
		t.Fatalf("expected ErrNotSignedIn, got %v", err)
	}

	c.api.AddUser("a@b.com", "password1")
	if err := c.login(context.Background(), "a@b.com", "password1"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := c.whoami(context.Background()); err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if !strings.Contains(c.out.String(), "a@b.com") || !strings.Contains(c.out.String(), "install ") {
		t.Fatalf("unexpected output %q", c.out.String())
	}
}

func TestLogout(t *testing.T) {
	c := newTestCLI(t)
	c.api.AddUser("a@b.com", "password1")
	if err := c.login(context.Background(), "a@b.com", "password1"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := c.logout(); err != nil {
		t.Fatalf("logout: %v", err)
	}
	next := openTestCLI(t, c.api, c.path)
	if next.cli.api.Session().Authenticated() {
		t.Fatal("expected no session after logout")
	}
}

func TestCreateGameAndCover(t *testing.T) {
	c := newTestCLI(t)
	c.api.AddUser("a@b.com", "password1")
	if err := c.login(context.Background(), "a@b.com", "password1"); err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := c.createGame(context.Background(), "Alpha", "PC", "2024-01-02"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if strings.TrimSpace(c.out.String()) != "1" {
		t.Fatalf("expected new id 1, got %q", c.out.String())
	}

	file := filepath.Join(t.TempDir(), "cover.png")
	if err := os.WriteFile(file, []byte("\x89PNG\r\n\x1a\n0000"), 0600); err != nil {
		t.Fatalf("write cover: %v", err)
	}
	c.out.Reset()
	if err := c.uploadCover(context.Background(), 1, file); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasSuffix(strings.TrimSpace(c.out.String()), "/api/games/1/cover?size=thumb") {
		t.Fatalf("unexpected output %q", c.out.String())
	}
	if _, ok := c.api.Cover(1); !ok {
		t.Fatal("expected cover on the API")
	}

	if err := c.deleteCover(context.Background(), 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := c.api.Cover(1); ok {
		t.Fatal("expected cover removed")
	}
}

func TestListReviews(t *testing.T) {
	c := newTestCLI(t)
	g := c.api.AddGame("Alpha", "PC", 4, 2)
	if err := c.listReviews(context.Background(), g.ID); err != nil {
		t.Fatalf("reviews: %v", err)
	}
	if lines := strings.Split(strings.TrimSpace(c.out.String()), "\n"); len(lines) != 3 {
		t.Fatalf("expected header and two rows, got %q", c.out.String())
	}
}

func TestHealth(t *testing.T) {
	c := newTestCLI(t)
	if err := c.health(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
	if !strings.HasPrefix(c.out.String(), "ok ") {
		t.Fatalf("unexpected output %q", c.out.String())
	}
}
