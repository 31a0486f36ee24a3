package web

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/meur/reviewhub/internal/forms"
)

const maxCoverBytes = 10 << 20

// finish saves the session and redirects. When a form failed without
// producing a toast (client-side validation), the error becomes one.
func (s *Server) finish(w http.ResponseWriter, r *http.Request, rq *request, err error, target string) {
	if err != nil && rq.toasts == 0 {
		rq.Notify(forms.Toast{Level: forms.LevelError, Title: forms.TitleSomethingFail, Detail: forms.Message(err)})
	}
	if err := rq.save(w, r); err != nil {
		log.Printf("web: save session: %v", err)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// returnTo sends the browser back to the list it came from.
func returnTo(r *http.Request) string {
	target := r.FormValue("return")
	if !strings.HasPrefix(target, "/home") {
		return "/home"
	}
	return target
}

func gameID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "gameID"))
	return id, err == nil && id > 0
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	rq := s.begin(w, r)
	f := forms.NewGameForm(rq.deps())
	f.Title = r.FormValue("title")
	f.Platform = r.FormValue("platform")
	f.ReleasedOn = r.FormValue("released_on")
	_, err := f.Submit(r.Context())
	// New games sort first by default; go back to the first page.
	target := "/home"
	if err != nil {
		target = returnTo(r)
	}
	s.finish(w, r, rq, err, target)
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	rq := s.begin(w, r)
	id, ok := gameID(r)
	if !ok {
		s.handleNotFound(w, r)
		return
	}
	f := forms.NewReviewForm(rq.deps(), id)
	f.AllowAnonymous = s.anonymousReviews
	// A missing or malformed rating is 0, which validation rejects.
	f.Rating, _ = strconv.Atoi(r.FormValue("rating"))
	f.Comment = r.FormValue("comment")
	_, err := f.Submit(r.Context())
	s.finish(w, r, rq, err, returnTo(r))
}

func (s *Server) handleUploadCover(w http.ResponseWriter, r *http.Request) {
	rq := s.begin(w, r)
	id, ok := gameID(r)
	if !ok {
		s.handleNotFound(w, r)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxCoverBytes)
	f := forms.NewCoverForm(rq.deps(), id)

	file, header, err := r.FormFile("file")
	if err != nil {
		_, err = f.Upload(r.Context(), "", nil)
		s.finish(w, r, rq, err, returnTo(r))
		return
	}
	defer file.Close()
	_, err = f.Upload(r.Context(), header.Filename, file)
	s.finish(w, r, rq, err, returnTo(r))
}

func (s *Server) handleDeleteCover(w http.ResponseWriter, r *http.Request) {
	rq := s.begin(w, r)
	id, ok := gameID(r)
	if !ok {
		s.handleNotFound(w, r)
		return
	}
	err := forms.NewCoverForm(rq.deps(), id).Delete(r.Context())
	s.finish(w, r, rq, err, returnTo(r))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	rq := s.begin(w, r)
	f := forms.NewAuthForm(rq.deps())
	f.Email = r.FormValue("email")
	f.Password = r.FormValue("password")
	if _, err := f.Login(r.Context()); err != nil {
		s.finish(w, r, rq, err, "/login")
		return
	}
	s.finish(w, r, rq, nil, "/home")
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	rq := s.begin(w, r)
	f := forms.NewAuthForm(rq.deps())
	f.Email = r.FormValue("email")
	f.Password = r.FormValue("password")
	_, err := f.Register(r.Context())
	s.finish(w, r, rq, err, "/login")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	rq := s.begin(w, r)
	err := forms.Logout(rq.deps())
	s.finish(w, r, rq, err, "/login")
}
