package back // nolint:testpackage

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"gopkg.in/guregu/null.v4"
)

func TestLeaderboard(t *testing.T) {
	back := createTestBack(t)

	// 13 eligible and active players rated 1300, 1310, … 1420.
	for i := 0; i < 13; i++ {
		seedPlayer(t, back, seededPlayer{
			discordID: fmt.Sprintf("%d", i+1),
			name:      fmt.Sprintf("Player %d", i+1),
			rating:    1300 + float64(i)*10,
			matches:   LeaderboardEligibilityThreshold,
			lastMatch: null.TimeFrom(time.Now()),
		})
	}

	// High rated but one match short of eligibility.
	seedPlayer(t, back, seededPlayer{
		discordID: "100",
		name:      "Newcomer",
		rating:    2000,
		matches:   LeaderboardEligibilityThreshold - 1,
		lastMatch: null.TimeFrom(time.Now()),
	})

	// Top rated but inactive for longer than the activity window.
	seedPlayer(t, back, seededPlayer{
		discordID: "101",
		name:      "Ghost",
		rating:    2100,
		matches:   20,
		lastMatch: null.TimeFrom(time.Now().Add(-LeaderboardActivityWindow - 24*time.Hour)),
	})

	t.Run("active", func(t *testing.T) {
		board, err := back.GetLeaderboard("13", LeaderboardScopeActive, 0)
		if err != nil {
			t.Fatal(err)
		}

		if len(board.Top) != leaderboardSize {
			t.Fatalf("expected %d entries, got %d", leaderboardSize, len(board.Top))
		}
		if board.Top[0].Name != "Player 13" || board.Top[0].Rank != 1 {
			t.Errorf("expected Player 13 at rank 1, got %+v", board.Top[0])
		}

		for _, e := range board.Top {
			if e.Name == "Newcomer" {
				t.Error("an ineligible player showed up on the leaderboard")
			}
			if e.Name == "Ghost" {
				t.Error("an inactive player showed up on the active leaderboard")
			}
		}

		for k := 1; k < len(board.Top); k++ {
			if board.Top[k].Rating > board.Top[k-1].Rating {
				t.Fatalf("leaderboard is not sorted at rank %d", board.Top[k].Rank)
			}
		}
	})

	t.Run("stale includes inactive players", func(t *testing.T) {
		board, err := back.GetLeaderboard("13", LeaderboardScopeStale, 0)
		if err != nil {
			t.Fatal(err)
		}

		if board.Top[0].Name != "Ghost" {
			t.Errorf("expected Ghost at rank 1 on the stale board, got %s", board.Top[0].Name)
		}

		for _, e := range board.Top {
			if e.Name == "Newcomer" {
				t.Error("an ineligible player showed up on the stale leaderboard")
			}
		}
	})

	t.Run("neighborhood below the fold", func(t *testing.T) {
		// Player 1 is rated last among the 13 active players: rank 13.
		board, err := back.GetLeaderboard("1", LeaderboardScopeActive, 0)
		if err != nil {
			t.Fatal(err)
		}

		if !board.CallerEligible {
			t.Fatal("expected caller to be eligible")
		}
		if len(board.Neighborhood) != 2 {
			t.Fatalf("expected 2 neighborhood entries, got %d", len(board.Neighborhood))
		}
		if board.Neighborhood[0].Rank != 12 || board.Neighborhood[1].Rank != 13 {
			t.Errorf("wrong neighborhood ranks: %+v", board.Neighborhood)
		}
		if board.Neighborhood[1].Name != "Player 1" {
			t.Errorf("expected the caller in their own neighborhood, got %s", board.Neighborhood[1].Name)
		}
	})

	t.Run("explicit rank argument", func(t *testing.T) {
		board, err := back.GetLeaderboard("13", LeaderboardScopeActive, 12)
		if err != nil {
			t.Fatal(err)
		}

		if len(board.Neighborhood) != 3 {
			t.Fatalf("expected 3 neighborhood entries, got %d", len(board.Neighborhood))
		}
		if board.Neighborhood[0].Rank != 11 || board.Neighborhood[2].Rank != 13 {
			t.Errorf("wrong neighborhood ranks: %+v", board.Neighborhood)
		}
	})

	t.Run("no neighborhood above the fold", func(t *testing.T) {
		board, err := back.GetLeaderboard("13", LeaderboardScopeActive, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(board.Neighborhood) != 0 {
			t.Errorf("a top-ten caller should not get a neighborhood: %+v", board.Neighborhood)
		}
	})

	t.Run("ineligible caller", func(t *testing.T) {
		board, err := back.GetLeaderboard("100", LeaderboardScopeActive, 0)
		if err != nil {
			t.Fatal(err)
		}
		if board.CallerEligible {
			t.Error("expected caller to be ineligible")
		}
		if len(board.Neighborhood) != 0 {
			t.Errorf("an ineligible caller has no rank to build a neighborhood around")
		}
	})

	t.Run("unregistered caller", func(t *testing.T) {
		if _, err := back.GetLeaderboard("404", LeaderboardScopeActive, 0); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestProvisionalMarkerOnLeaderboard(t *testing.T) {
	back := createTestBack(t)

	seedPlayer(t, back, seededPlayer{
		discordID: "1", name: "Settled", rating: 1500, deviation: 80,
		matches: 10, lastMatch: null.TimeFrom(time.Now()),
	})
	seedPlayer(t, back, seededPlayer{
		discordID: "2", name: "Uncertain", rating: 1450, deviation: 300,
		matches: 4, lastMatch: null.TimeFrom(time.Now()),
	})

	ranked, err := back.GetRankedPlayers(LeaderboardScopeActive)
	if err != nil {
		t.Fatal(err)
	}
	if len(ranked) != 2 {
		t.Fatalf("expected 2 ranked players, got %d", len(ranked))
	}

	if ranked[0].Provisional {
		t.Error("a deviation of 80 should not be provisional")
	}
	if !ranked[1].Provisional {
		t.Error("a deviation of 300 should be provisional")
	}
}

type seededPlayer struct {
	discordID string
	name      string
	rating    float64
	deviation float64
	matches   int
	lastMatch null.Time
}

func seedPlayer(t *testing.T, back *Back, s seededPlayer) {
	t.Helper()

	player := NewPlayer(s.discordID, s.name)
	player.Rating = s.rating
	if s.deviation > 0 {
		player.Deviation = s.deviation
	}
	player.MatchesPlayed = s.matches
	player.LastMatchAt = s.lastMatch

	if err := back.transaction(func(tx *sqlx.Tx) error {
		return player.insert(tx)
	}); err != nil {
		t.Fatal(err)
	}
}
