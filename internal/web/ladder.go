package web

import (
	"errors"
	"log"
	"net/http"

	"github.com/CrazyPenguin0111/5D-Chess-Glicko-Bot/internal/back"

	"github.com/go-chi/chi"
)

func (s *Server) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	scope := back.LeaderboardScopeActive
	if r.URL.Query().Get("scope") == "stale" {
		scope = back.LeaderboardScopeStale
	}

	ranked, err := s.back.GetRankedPlayers(scope)
	if err != nil {
		log.Printf("error: unable to fetch leaderboard: %s", err)
		s.error(w, http.StatusInternalServerError)
		return
	}

	s.response(w, http.StatusOK, ranked)
}

func (s *Server) getPlayer(w http.ResponseWriter, r *http.Request) {
	stats, err := s.back.GetPlayerStats(chi.URLParam(r, "discordID"))
	if err != nil {
		if errors.Is(err, back.ErrNotFound) {
			s.error(w, http.StatusNotFound)
			return
		}

		log.Printf("error: unable to fetch player: %s", err)
		s.error(w, http.StatusInternalServerError)
		return
	}

	s.response(w, http.StatusOK, stats)
}
