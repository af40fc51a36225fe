package web

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/CrazyPenguin0111/5D-Chess-Glicko-Bot/internal/back"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
)

// Server is the read-only JSON API, it never mutates player state.
type Server struct {
	http *http.Server
	back *back.Back
}

func NewServer(back *back.Back, addr string) *Server {
	s := &Server{
		back: back,
	}

	s.http = &http.Server{
		Addr:         addr,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  10 * time.Second,
		Handler:      s.setupRouter(),
	}

	return s
}

func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/", noContent)
	r.Get("/v1/leaderboard", s.getLeaderboard)
	r.Get("/v1/player/{discordID}", s.getPlayer)

	return r
}

func noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) Serve(wg *sync.WaitGroup, done <-chan struct{}) {
	log.Println("info: starting HTTP server")
	wg.Add(1)
	defer wg.Done()

	go func() {
		err := s.http.ListenAndServe()
		if err == http.ErrServerClosed {
			log.Println("info: HTTP server closed")
			return
		}

		log.Fatalf("webserver crashed: %s", err)
	}()

	<-done
	if err := s.http.Close(); err != nil {
		log.Printf("warning: unable to close webserver: %s", err)
	}
}

func (s *Server) response(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")

	response, err := json.Marshal(data)
	if err != nil {
		log.Printf("error: unable to marshal response: %s", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(code)

	if _, err := w.Write(response); err != nil {
		log.Printf("error: unable to send response: %s", err)
	}
}

func (s *Server) error(w http.ResponseWriter, code int) {
	http.Error(w, http.StatusText(code), code)
}
