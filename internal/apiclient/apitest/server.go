// Package apitest runs an in-memory Game Review Hub API for tests.
package apitest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/meur/reviewhub/internal/models"
)

// Request is a recorded API call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// Server is a fake API mounted under /api with /health at the root.
type Server struct {
	*httptest.Server

	// AnonymousReviews lets POST /reviews succeed without a token.
	AnonymousReviews bool

	mu         sync.Mutex
	games      []models.Game
	reviews    []models.Review
	covers     map[int][]byte
	users      map[string]userRecord
	tokens     map[string]int
	nextGame   int
	nextReview int
	nextUser   int
	nextToken  int
	requests   []Request
	failures   map[string][]int
	gate       func(r *http.Request)
	epoch      time.Time
}

type userRecord struct {
	id       int
	password string
}

// New starts a fake API and closes it when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		covers:   map[int][]byte{},
		users:    map[string]userRecord{},
		tokens:   map[string]int{},
		failures: map[string][]int{},
		epoch:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the API base a client should be configured with.
func (s *Server) BaseURL() string { return s.URL + "/api" }

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/api", func(r chi.Router) {
		r.Get("/games", s.handleListGames)
		r.Post("/games", s.handleCreateGame)
		r.Post("/games/{id}/cover", s.handleUploadCover)
		r.Delete("/games/{id}/cover", s.handleDeleteCover)
		r.Get("/games/{id}/cover", s.handleGetCover)
		r.Get("/reviews", s.handleListReviews)
		r.Post("/reviews", s.handleCreateReview)
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)
		r.Get("/me", s.handleMe)
	})
	return r
}

// --- Test controls ---

// AddGame seeds a game with optional ratings and returns it.
func (s *Server) AddGame(title, platform string, ratings ...int) models.Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.insertGame(models.GameCreate{Title: title, Platform: platform})
	for _, rating := range ratings {
		s.insertReview(models.ReviewCreate{GameID: g.ID, Rating: rating})
	}
	return s.withRating(g)
}

// AddUser registers an account directly.
func (s *Server) AddUser(email, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUser++
	s.users[strings.ToLower(email)] = userRecord{id: s.nextUser, password: password}
}

// RevokeTokens invalidates every issued token.
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = map[string]int{}
}

// FailNext makes the next request to method+path answer with status.
// path is the URL path relative to the API base, e.g. "/games".
func (s *Server) FailNext(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " /api" + path
	s.failures[key] = append(s.failures[key], status)
}

// SetGate installs fn to run before every request is handled. Tests use it to
// hold responses back.
func (s *Server) SetGate(fn func(r *http.Request)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gate = fn
}

// Requests returns a copy of every recorded request.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// RequestsTo returns the recorded requests matching method and API path.
func (s *Server) RequestsTo(method, path string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == "/api"+path {
			out = append(out, r)
		}
	}
	return out
}

// Cover returns the stored cover bytes of a game.
func (s *Server) Cover(gameID int) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.covers[gameID]
	return b, ok
}

// Reviews returns every stored review.
func (s *Server) Reviews() []models.Review {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Review, len(s.reviews))
	copy(out, s.reviews)
	return out
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		})
		gate := s.gate
		key := r.Method + " " + r.URL.Path
		status := 0
		if queued := s.failures[key]; len(queued) > 0 {
			status = queued[0]
			s.failures[key] = queued[1:]
		}
		s.mu.Unlock()

		if gate != nil {
			gate(r)
		}
		if status != 0 {
			respondError(w, status, http.StatusText(status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- Games ---

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	page := atoiDefault(r.URL.Query().Get("page"), 1)
	limit := atoiDefault(r.URL.Query().Get("limit"), 10)
	if page < 1 || limit < 1 || limit > 100 {
		respondError(w, http.StatusUnprocessableEntity, "invalid paging")
		return
	}
	key, err := models.ParseSortKey(r.URL.Query().Get("sort"))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.mu.Lock()
	all := make([]models.Game, 0, len(s.games))
	for _, g := range s.games {
		all = append(all, s.withRating(g))
	}
	s.mu.Unlock()

	sortGames(all, key)
	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	respondJSON(w, http.StatusOK, models.GamePage{Items: all[start:end], Total: len(all), Page: page, Limit: limit})
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var in models.GameCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	if err := in.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.mu.Lock()
	g := s.insertGame(in)
	s.mu.Unlock()
	respondJSON(w, http.StatusCreated, g)
}

func (s *Server) handleUploadCover(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(r); !ok {
		respondError(w, http.StatusUnauthorized, "Missing bearer token")
		return
	}
	id, ok := s.gameFromPath(w, r)
	if !ok {
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "file is required")
		return
	}
	defer file.Close()
	if !strings.HasPrefix(header.Header.Get("Content-Type"), "image/") {
		respondError(w, http.StatusUnsupportedMediaType, "file must be an image")
		return
	}
	data, _ := io.ReadAll(file)

	s.mu.Lock()
	s.covers[id] = data
	cover := fmt.Sprintf("covers/%d/%s", id, header.Filename)
	var updated models.Game
	for i := range s.games {
		if s.games[i].ID == id {
			s.games[i].CoverURL = &cover
			updated = s.withRating(s.games[i])
		}
	}
	s.mu.Unlock()
	respondJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteCover(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(r); !ok {
		respondError(w, http.StatusUnauthorized, "Missing bearer token")
		return
	}
	id, ok := s.gameFromPath(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.covers, id)
	for i := range s.games {
		if s.games[i].ID == id {
			s.games[i].CoverURL = nil
		}
	}
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetCover(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	data, ok := s.Cover(id)
	if !ok {
		respondError(w, http.StatusNotFound, "Cover not found")
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Write(data)
}

// --- Reviews ---

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	gameID, err := strconv.Atoi(r.URL.Query().Get("game_id"))
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "game_id is required")
		return
	}
	s.mu.Lock()
	out := []models.Review{}
	for i := len(s.reviews) - 1; i >= 0; i-- {
		if s.reviews[i].GameID == gameID {
			out = append(out, s.reviews[i])
		}
	}
	s.mu.Unlock()
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(r); !ok && !s.AnonymousReviews {
		respondError(w, http.StatusUnauthorized, "Missing bearer token")
		return
	}
	var in models.ReviewCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	if !models.ValidRating(in.Rating) {
		respondJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]string{{"msg": "Input should be less than or equal to 5"}},
		})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findGame(in.GameID) < 0 {
		respondError(w, http.StatusNotFound, "Game not found")
		return
	}
	respondJSON(w, http.StatusCreated, s.insertReview(in))
}

// --- Auth ---

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Validate() != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid credentials payload")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(in.Email)
	if _, exists := s.users[email]; exists {
		respondError(w, http.StatusConflict, "Email already registered")
		return
	}
	s.nextUser++
	s.users[email] = userRecord{id: s.nextUser, password: in.Password}
	respondJSON(w, http.StatusCreated, models.User{ID: s.nextUser, Email: in.Email})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[strings.ToLower(in.Email)]
	if !ok || u.password != in.Password {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	s.nextToken++
	token := fmt.Sprintf("t%d", s.nextToken)
	s.tokens[token] = u.id
	respondJSON(w, http.StatusOK, models.TokenResponse{AccessToken: token, ExpiresIn: 900})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := s.authenticate(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for email, u := range s.users {
		if u.id == id {
			respondJSON(w, http.StatusOK, models.User{ID: id, Email: email})
			return
		}
	}
	respondError(w, http.StatusUnauthorized, "User not found")
}

// --- Helpers ---

func (s *Server) authenticate(r *http.Request) (int, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return 0, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.tokens[strings.TrimSpace(h[len("bearer "):])]
	return id, ok
}

func (s *Server) gameFromPath(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "Game not found")
		return 0, false
	}
	s.mu.Lock()
	found := s.findGame(id) >= 0
	s.mu.Unlock()
	if !found {
		respondError(w, http.StatusNotFound, "Game not found")
		return 0, false
	}
	return id, true
}

// insertGame and the helpers below expect s.mu to be held.
func (s *Server) insertGame(in models.GameCreate) models.Game {
	s.nextGame++
	g := models.Game{
		ID:         s.nextGame,
		Title:      in.Title,
		Platform:   in.Platform,
		ReleasedOn: in.ReleasedOn,
		CreatedAt:  s.epoch.Add(time.Duration(s.nextGame) * time.Minute),
	}
	s.games = append(s.games, g)
	return g
}

func (s *Server) insertReview(in models.ReviewCreate) models.Review {
	s.nextReview++
	rv := models.Review{
		ID:        s.nextReview,
		GameID:    in.GameID,
		Rating:    in.Rating,
		Comment:   in.Comment,
		CreatedAt: s.epoch.Add(time.Duration(s.nextReview) * time.Second),
	}
	s.reviews = append(s.reviews, rv)
	return rv
}

func (s *Server) findGame(id int) int {
	for i, g := range s.games {
		if g.ID == id {
			return i
		}
	}
	return -1
}

func (s *Server) withRating(g models.Game) models.Game {
	sum, n := 0, 0
	for _, rv := range s.reviews {
		if rv.GameID == g.ID {
			sum += rv.Rating
			n++
		}
	}
	if n > 0 {
		g.AvgRating = float64(sum) / float64(n)
	}
	return g
}

func sortGames(games []models.Game, key models.SortKey) {
	less := map[models.SortKey]func(a, b models.Game) bool{
		models.SortNewest:     func(a, b models.Game) bool { return a.CreatedAt.After(b.CreatedAt) },
		models.SortOldest:     func(a, b models.Game) bool { return a.CreatedAt.Before(b.CreatedAt) },
		models.SortTitleAsc:   func(a, b models.Game) bool { return a.Title < b.Title },
		models.SortTitleDesc:  func(a, b models.Game) bool { return a.Title > b.Title },
		models.SortRatingDesc: func(a, b models.Game) bool { return a.AvgRating > b.AvgRating },
		models.SortRatingAsc:  func(a, b models.Game) bool { return a.AvgRating < b.AvgRating },
	}[key]
	sort.SliceStable(games, func(i, j int) bool { return less(games[i], games[j]) })
}

func atoiDefault(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"detail": message})
}
