package forms

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/meur/reviewhub/internal/apiclient"
	"github.com/meur/reviewhub/internal/apiclient/apitest"
	"github.com/meur/reviewhub/internal/listing"
	"github.com/meur/reviewhub/internal/models"
	"github.com/meur/reviewhub/internal/session"
)

type harness struct {
	srv       *apitest.Server
	client    *apiclient.Client
	deps      Deps
	toasts    []Toast
	refreshes int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{srv: apitest.New(t)}
	h.client = apiclient.New(h.srv.BaseURL(), session.NewMemory())
	h.deps = Deps{
		API:    h.client,
		Notify: NotifierFunc(func(t Toast) { h.toasts = append(h.toasts, t) }),
		Refresh: func(context.Context) error {
			h.refreshes++
			return nil
		},
	}
	return h
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	h.srv.AddUser("a@b.com", "password1")
	f := NewAuthForm(h.deps)
	f.Email, f.Password = "a@b.com", "password1"
	if _, err := f.Login(context.Background()); err != nil {
		t.Fatalf("login: %v", err)
	}
}

func (h *harness) lastToast(t *testing.T) Toast {
	t.Helper()
	if len(h.toasts) == 0 {
		t.Fatal("expected a toast")
	}
	return h.toasts[len(h.toasts)-1]
}

func TestReviewRatingBoundaries(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	g := h.srv.AddGame("Zelda", "Switch")

	for _, rating := range []int{0, 6} {
		f := NewReviewForm(h.deps, g.ID)
		f.Rating = rating
		if _, err := f.Submit(context.Background()); !errors.Is(err, models.ErrRatingOutOfRange) {
			t.Fatalf("rating %d: expected ErrRatingOutOfRange, got %v", rating, err)
		}
		if f.Status() != StatusError {
			t.Fatalf("rating %d: expected error status, got %s", rating, f.Status())
		}
	}
	if n := len(h.srv.RequestsTo(http.MethodPost, "/reviews")); n != 0 {
		t.Fatalf("expected no review requests, got %d", n)
	}

	for _, rating := range []int{1, 5} {
		f := NewReviewForm(h.deps, g.ID)
		f.Rating = rating
		if _, err := f.Submit(context.Background()); err != nil {
			t.Fatalf("rating %d: %v", rating, err)
		}
	}
	if n := len(h.srv.RequestsTo(http.MethodPost, "/reviews")); n != 2 {
		t.Fatalf("expected 2 review requests, got %d", n)
	}
}

func TestReviewSuccessResetsAndRefreshes(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	g := h.srv.AddGame("Zelda", "Switch")

	f := NewReviewForm(h.deps, g.ID)
	f.Rating = 2
	f.Comment = "  too short  "
	review, err := f.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if review.Comment == nil || *review.Comment != "too short" {
		t.Fatalf("expected trimmed comment, got %+v", review.Comment)
	}
	if f.Rating != models.DefaultRating || f.Comment != "" {
		t.Fatalf("expected fields reset, got rating=%d comment=%q", f.Rating, f.Comment)
	}
	if f.Status() != StatusIdle || h.refreshes != 1 {
		t.Fatalf("expected idle and one refresh, got %s / %d", f.Status(), h.refreshes)
	}
	if h.lastToast(t).Title != TitleReviewPosted {
		t.Fatalf("unexpected toast %+v", h.lastToast(t))
	}
}

func TestReviewWithoutSession(t *testing.T) {
	h := newHarness(t)
	g := h.srv.AddGame("Zelda", "Switch")

	f := NewReviewForm(h.deps, g.ID)
	if f.Enabled() {
		t.Fatal("expected review form disabled without a session")
	}
	if _, err := f.Submit(context.Background()); !errors.Is(err, ErrLoginRequired) {
		t.Fatalf("expected ErrLoginRequired, got %v", err)
	}
	if n := len(h.srv.Requests()); n != 0 {
		t.Fatalf("expected no requests, got %d", n)
	}

	h.srv.AnonymousReviews = true
	f.AllowAnonymous = true
	if _, err := f.Submit(context.Background()); err != nil {
		t.Fatalf("anonymous submit: %v", err)
	}
	req := h.srv.RequestsTo(http.MethodPost, "/reviews")[0]
	if req.Header.Get("Authorization") != "" {
		t.Fatal("expected no authorization header on anonymous review")
	}
}

func TestReviewUnauthorizedClearsToken(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	g := h.srv.AddGame("Zelda", "Switch")
	h.srv.RevokeTokens()

	f := NewReviewForm(h.deps, g.ID)
	_, err := f.Submit(context.Background())
	if !errors.Is(err, ErrLoginRequired) || !apiclient.IsUnauthorized(err) {
		t.Fatalf("expected login required wrapping a 401, got %v", err)
	}
	if h.client.Session().Authenticated() {
		t.Fatal("expected token cleared")
	}
	if f.ErrText() != ErrLoginRequired.Error() {
		t.Fatalf("unexpected error text %q", f.ErrText())
	}
	if h.refreshes != 0 {
		t.Fatal("expected no refresh after failure")
	}
	if f.Enabled() {
		t.Fatal("expected form disabled after the session was cleared")
	}
}

func TestReviewBusyRejectsSecondSubmit(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	g := h.srv.AddGame("Zelda", "Switch")

	entered := make(chan struct{})
	release := make(chan struct{})
	h.srv.SetGate(func(r *http.Request) {
		if r.URL.Path == "/api/reviews" {
			close(entered)
			<-release
		}
	})

	f := NewReviewForm(h.deps, g.ID)
	done := make(chan error, 1)
	go func() {
		_, err := f.Submit(context.Background())
		done <- err
	}()
	<-entered
	if f.Status() != StatusSubmitting {
		t.Fatalf("expected submitting, got %s", f.Status())
	}
	if _, err := f.Submit(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if n := len(h.srv.RequestsTo(http.MethodPost, "/reviews")); n != 1 {
		t.Fatalf("expected exactly one request, got %d", n)
	}
}

func TestGameFormValidationAndSuccess(t *testing.T) {
	h := newHarness(t)
	f := NewGameForm(h.deps)
	f.Platform = "Switch"
	if _, err := f.Submit(context.Background()); !errors.Is(err, models.ErrTitleRequired) {
		t.Fatalf("expected ErrTitleRequired, got %v", err)
	}
	if n := len(h.srv.Requests()); n != 0 {
		t.Fatalf("expected no requests, got %d", n)
	}

	f.Title = "Zelda"
	f.ReleasedOn = "2023-05-12"
	g, err := f.Submit(context.Background())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if g.ReleasedOn == nil || *g.ReleasedOn != "2023-05-12" {
		t.Fatalf("expected release date round trip, got %+v", g.ReleasedOn)
	}
	if f.Title != "" || f.Platform != "" || f.ReleasedOn != "" {
		t.Fatal("expected fields reset")
	}
	if h.lastToast(t).Title != TitleGameAdded || h.refreshes != 1 {
		t.Fatalf("expected success toast and refresh, got %+v / %d", h.toasts, h.refreshes)
	}
}

func TestGameFormServerErrorToasts(t *testing.T) {
	h := newHarness(t)
	h.srv.FailNext(http.MethodPost, "/games", http.StatusInternalServerError)
	f := NewGameForm(h.deps)
	f.Title, f.Platform = "Zelda", "Switch"

	if _, err := f.Submit(context.Background()); apiclient.StatusCode(err) != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %v", err)
	}
	if f.Title != "Zelda" {
		t.Fatal("expected fields kept after failure")
	}
	if toast := h.lastToast(t); toast.Level != LevelError {
		t.Fatalf("expected error toast, got %+v", toast)
	}
}

func TestCreatedGameAppearsFirstOnNewestList(t *testing.T) {
	h := newHarness(t)
	h.srv.AddGame("Older", "PC")
	model := listing.New(h.client, 10)
	h.deps.Refresh = model.Refresh

	f := NewGameForm(h.deps)
	f.Title, f.Platform = "Newest", "PS5"
	if _, err := f.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	s := model.Snapshot()
	if len(s.Items) != 2 || s.Items[0].Title != "Newest" {
		t.Fatalf("expected Newest first, got %+v", s.Items)
	}
}

func TestCoverUploadProgressAndDelete(t *testing.T) {
	h := newHarness(t)
	g := h.srv.AddGame("Zelda", "Switch")
	f := NewCoverForm(h.deps, g.ID)
	if f.Enabled() {
		t.Fatal("expected cover form hidden without a session")
	}
	if _, err := f.Upload(context.Background(), "c.png", strings.NewReader("x")); !errors.Is(err, ErrLoginRequired) {
		t.Fatalf("expected ErrLoginRequired, got %v", err)
	}

	h.login(t)
	if _, err := f.Upload(context.Background(), "", nil); !errors.Is(err, ErrNoFile) {
		t.Fatalf("expected ErrNoFile, got %v", err)
	}

	var last int
	f.Progress = func(p int) { last = p }
	data := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{1}, 2048)...)
	if _, err := f.Upload(context.Background(), "c.png", bytes.NewReader(data)); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if last != 100 {
		t.Fatalf("expected progress to reach 100, got %d", last)
	}
	if h.lastToast(t).Title != TitleCoverUpdated {
		t.Fatalf("unexpected toast %+v", h.lastToast(t))
	}

	if err := f.Delete(context.Background()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if h.lastToast(t).Title != TitleCoverRemoved || h.refreshes != 2 {
		t.Fatalf("expected removal toast and two refreshes, got %+v / %d", h.lastToast(t), h.refreshes)
	}
}

func TestCoverFailureToasts(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	g := h.srv.AddGame("Zelda", "Switch")
	h.srv.FailNext(http.MethodDelete, "/games/1/cover", http.StatusBadGateway)

	f := NewCoverForm(h.deps, g.ID)
	if err := f.Delete(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if toast := h.lastToast(t); toast.Level != LevelError || toast.Title != TitleDeleteFailed {
		t.Fatalf("unexpected toast %+v", toast)
	}
	if !h.client.Session().Authenticated() {
		t.Fatal("expected non-401 failure to keep the session")
	}
}

func TestLoginScenarioAndLogout(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	g := h.srv.AddGame("Zelda", "Switch")
	if h.client.Session().Token() != "t1" {
		t.Fatalf("expected token t1, got %q", h.client.Session().Token())
	}

	review := NewReviewForm(h.deps, g.ID)
	cover := NewCoverForm(h.deps, g.ID)
	if _, err := review.Submit(context.Background()); err != nil {
		t.Fatalf("review: %v", err)
	}
	if got := h.srv.RequestsTo(http.MethodPost, "/reviews")[0].Header.Get("Authorization"); got != "Bearer t1" {
		t.Fatalf("expected Bearer t1, got %q", got)
	}

	if err := Logout(h.deps); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if review.Enabled() || cover.Enabled() {
		t.Fatal("expected authenticated affordances hidden after logout")
	}
	if h.lastToast(t).Title != TitleLoggedOut {
		t.Fatalf("unexpected toast %+v", h.lastToast(t))
	}
}

func TestAuthFormValidationAndFailures(t *testing.T) {
	h := newHarness(t)
	f := NewAuthForm(h.deps)
	f.Email = "nope"
	f.Password = "x"
	if _, err := f.Login(context.Background()); !errors.Is(err, models.ErrEmailInvalid) {
		t.Fatalf("expected ErrEmailInvalid, got %v", err)
	}

	f.Email = "a@b.com"
	f.Password = "password1"
	if _, err := f.Register(context.Background()); err != nil {
		t.Fatalf("register: %v", err)
	}
	if h.lastToast(t).Title != TitleRegistered {
		t.Fatalf("unexpected toast %+v", h.lastToast(t))
	}
	if h.client.Session().Authenticated() {
		t.Fatal("expected register not to sign in")
	}
	if _, err := f.Register(context.Background()); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
	if h.lastToast(t).Detail != "Email already registered" {
		t.Fatalf("expected server detail, got %+v", h.lastToast(t))
	}

	f.Password = "wrong"
	if _, err := f.Login(context.Background()); !apiclient.IsUnauthorized(err) {
		t.Fatalf("expected 401, got %v", err)
	}
	if f.Status() != StatusError || f.ErrText() != "Invalid credentials" {
		t.Fatalf("unexpected state %s %q", f.Status(), f.ErrText())
	}
}
