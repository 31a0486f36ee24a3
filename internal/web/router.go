// Package web is the page shell: a server-rendered front end for the Game
// Review Hub API with a persistent header, a home page and a login page.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/meur/reviewhub/internal/apiclient"
	"github.com/meur/reviewhub/internal/listing"
	"golang.org/x/text/message"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Options configures the page shell.
type Options struct {
	// API is the client every request derives its per-session client from.
	API *apiclient.Client
	// SessionKey signs the session cookie. Empty generates a random key,
	// which signs everyone out on restart.
	SessionKey       []byte
	SecureCookies    bool
	AllowedOrigins   []string
	PageSize         int
	AnonymousReviews bool
}

// Server holds the HTTP server dependencies
type Server struct {
	api              *apiclient.Client
	cookies          sessions.Store
	pageSize         int
	anonymousReviews bool
	allowedOrigins   []string
	pages            map[string]*template.Template
	router           chi.Router
}

// New creates the page shell
func New(opts Options) (*Server, error) {
	key := opts.SessionKey
	if len(key) == 0 {
		log.Printf("web: no session key configured, generating an ephemeral one")
		key = securecookie.GenerateRandomKey(32)
	}
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   30 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = listing.DefaultPageSize
	}

	pages, err := parsePages()
	if err != nil {
		return nil, err
	}

	s := &Server{
		api:              opts.API,
		cookies:          store,
		pageSize:         pageSize,
		anonymousReviews: opts.AnonymousReviews,
		allowedOrigins:   opts.AllowedOrigins,
		pages:            pages,
		router:           chi.NewRouter(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	origins := s.allowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/home", http.StatusFound)
	})

	// Pages
	s.router.Get("/home", s.handleHome)
	s.router.Get("/login", s.handleLoginPage)

	// Session
	s.router.Post("/login", s.handleLogin)
	s.router.Post("/register", s.handleRegister)
	s.router.Post("/logout", s.handleLogout)

	// Mutations
	s.router.Post("/games", s.handleCreateGame)
	s.router.Route("/games/{gameID}", func(r chi.Router) {
		r.Post("/reviews", s.handleCreateReview)
		r.Post("/cover", s.handleUploadCover)
		r.Post("/cover/delete", s.handleDeleteCover)
	})

	static, _ := fs.Sub(staticFS, "static")
	FileServer(s.router, "/static", http.FS(static))

	// Health check
	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	s.router.NotFound(s.handleNotFound)
}

// FileServer conveniently sets up a http.FileServer handler to serve
// static files from a http.FileSystem.
func FileServer(r chi.Router, path string, root http.FileSystem) {
	if strings.ContainsAny(path, "{}*") {
		panic("FileServer does not permit URL parameters.")
	}

	if path != "/" && path[len(path)-1] != '/' {
		r.Get(path, http.RedirectHandler(path+"/", http.StatusMovedPermanently).ServeHTTP)
		path += "/"
	}
	path += "*"

	r.Get(path, func(w http.ResponseWriter, req *http.Request) {
		rctx := chi.RouteContext(req.Context())
		pathPrefix := strings.TrimSuffix(rctx.RoutePattern(), "/*")
		fs := http.StripPrefix(pathPrefix, http.FileServer(root))
		fs.ServeHTTP(w, req)
	})
}

var funcs = template.FuncMap{
	"t": func(p *message.Printer, key string, args ...any) string {
		return p.Sprintf(key, args...)
	},
	// tr translates free text such as API error details, which must not be
	// treated as a format string.
	"tr": func(p *message.Printer, text string) string {
		if strings.Contains(text, "%") {
			return text
		}
		return p.Sprintf(text)
	},
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
}

func parsePages() (map[string]*template.Template, error) {
	pages := map[string]*template.Template{}
	for _, name := range []string{"home", "login", "notfound"} {
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, err
		}
		pages[name] = tmpl
	}
	return pages, nil
}
