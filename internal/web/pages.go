package web

import (
	"bytes"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/meur/reviewhub/internal/listing"
	"github.com/meur/reviewhub/internal/models"
	"golang.org/x/text/message"
)

type sortOption struct {
	Key      models.SortKey
	Label    string
	Selected bool
}

var sortLabels = map[models.SortKey]string{
	models.SortNewest:     "Newest",
	models.SortOldest:     "Oldest",
	models.SortTitleAsc:   "Title (A-Z)",
	models.SortTitleDesc:  "Title (Z-A)",
	models.SortRatingDesc: "Highest rated",
	models.SortRatingAsc:  "Lowest rated",
}

// gameView is one card on the home page.
type gameView struct {
	models.Game
	CoverSrc string
}

// pageData is shared by every template.
type pageData struct {
	P        *message.Printer
	Lang     string
	APIBase  string
	SignedIn bool
	Identity string
	Toasts   []flash

	// Home
	List          listing.State
	Games         []gameView
	SortOptions   []sortOption
	ReviewEnabled bool
	CoverEnabled  bool
	DefaultRating int
	MinRating     int
	MaxRating     int
	ReturnTo      string
	PrevURL       string
	NextURL       string
}

func (s *Server) newPageData(rq *request) pageData {
	d := pageData{
		P:        rq.printer,
		Lang:     rq.lang.String(),
		APIBase:  s.api.BaseURL(),
		SignedIn: rq.session.Authenticated(),
	}
	if id, err := rq.session.Identity(); err == nil && id.Subject != "" {
		d.Identity = id.Subject
	}
	return d
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	rq := s.begin(w, r)

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	sortKey, err := models.ParseSortKey(q.Get("sort"))
	if err != nil {
		sortKey = models.DefaultSort
	}

	model := listing.New(rq.api, s.pageSize)
	state, err := model.Goto(r.Context(), page, sortKey)
	if err != nil {
		log.Printf("web: list games: %v", err)
	}

	d := s.newPageData(rq)
	d.List = state
	d.ReviewEnabled = s.anonymousReviews || d.SignedIn
	d.CoverEnabled = d.SignedIn
	d.DefaultRating = models.DefaultRating
	d.MinRating = models.MinRating
	d.MaxRating = models.MaxRating
	d.ReturnTo = homeURL(state.Page, state.Sort)
	if state.HasPrev() {
		d.PrevURL = homeURL(state.Page-1, state.Sort)
	}
	if state.HasNext() {
		d.NextURL = homeURL(state.Page+1, state.Sort)
	}
	for _, g := range state.Items {
		v := gameView{Game: g}
		if g.HasCover() {
			v.CoverSrc = rq.api.CoverURL(g.ID)
		}
		d.Games = append(d.Games, v)
	}
	for _, k := range models.SortKeys() {
		d.SortOptions = append(d.SortOptions, sortOption{Key: k, Label: sortLabels[k], Selected: k == state.Sort})
	}

	s.render(w, r, rq, http.StatusOK, "home", d)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	rq := s.begin(w, r)
	s.render(w, r, rq, http.StatusOK, "login", s.newPageData(rq))
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	rq := s.begin(w, r)
	s.render(w, r, rq, http.StatusNotFound, "notfound", s.newPageData(rq))
}

// render drains flashes, saves the cookie and writes the page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, rq *request, status int, page string, d pageData) {
	d.Toasts = rq.flashes()
	// The session may have changed during the request (a 401 clears it).
	d.SignedIn = rq.session.Authenticated()
	if !d.SignedIn {
		d.Identity = ""
		d.CoverEnabled = false
		d.ReviewEnabled = d.ReviewEnabled && s.anonymousReviews
	}
	if err := rq.save(w, r); err != nil {
		log.Printf("web: save session: %v", err)
	}

	var buf bytes.Buffer
	if err := s.pages[page].ExecuteTemplate(&buf, "layout.html", d); err != nil {
		log.Printf("web: render %s: %v", page, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func homeURL(page int, sort models.SortKey) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("sort", string(sort))
	return "/home?" + q.Encode()
}
