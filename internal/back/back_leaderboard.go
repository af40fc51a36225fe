package back

import (
	"time"

	"github.com/CrazyPenguin0111/5D-Chess-Glicko-Bot/internal/glicko"

	"github.com/jmoiron/sqlx"
	"gopkg.in/guregu/null.v4"
)

const (
	// LeaderboardEligibilityThreshold is the number of confirmed matches
	// required before a player shows up on any leaderboard.
	LeaderboardEligibilityThreshold = 4

	// LeaderboardActivityWindow bounds the "active" leaderboard: players
	// whose last confirmed match is older than this only show up on the
	// stale board.
	LeaderboardActivityWindow = 90 * 24 * time.Hour

	leaderboardSize = 10
)

type LeaderboardScope int

const (
	// LeaderboardScopeActive restricts the board to recently active players.
	LeaderboardScopeActive LeaderboardScope = 0
	// LeaderboardScopeStale has no recency filter.
	LeaderboardScopeStale LeaderboardScope = 1
)

type LeaderboardEntry struct {
	Rank        int `db:"-"`
	Name        string
	DiscordID   string
	Rating      float64
	Deviation   float64
	Provisional bool `db:"-"`
}

// A Leaderboard is the top of the ranked list plus, when the caller (or a
// requested rank) sits below the fold, the three entries around that rank.
type Leaderboard struct {
	Scope          LeaderboardScope
	Top            []LeaderboardEntry
	Neighborhood   []LeaderboardEntry
	CallerEligible bool
}

// getRankedPlayers returns every eligible player ordered by rating, best
// first, with ranks assigned.
func getRankedPlayers(tx *sqlx.Tx, scope LeaderboardScope, now time.Time) ([]LeaderboardEntry, error) {
	query := `
        SELECT Name, DiscordID, Rating, Deviation FROM Player
        WHERE MatchesPlayed >= ?`
	args := []interface{}{LeaderboardEligibilityThreshold}

	if scope == LeaderboardScopeActive {
		query += ` AND LastMatchAt IS NOT NULL AND DATETIME(LastMatchAt) >= DATETIME(?)`
		args = append(args, null.TimeFrom(now.Add(-LeaderboardActivityWindow)))
	}

	query += ` ORDER BY Rating DESC`

	var ret []LeaderboardEntry
	if err := tx.Select(&ret, query, args...); err != nil {
		return nil, err
	}

	for k := range ret {
		ret[k].Rank = k + 1
		ret[k].Provisional = ret[k].Deviation > glicko.ProvisionalDeviation
	}

	return ret, nil
}

// GetLeaderboard builds the board shown to one caller. aroundRank requests
// the neighborhood of an arbitrary rank below the fold; when zero the
// caller's own rank is used instead.
func (b *Back) GetLeaderboard(
	callerDiscordID string,
	scope LeaderboardScope,
	aroundRank int,
) (board Leaderboard, _ error) {
	if err := b.transaction(func(tx *sqlx.Tx) error {
		caller, err := getPlayerByDiscordID(tx, callerDiscordID)
		if err != nil {
			return err
		}

		ranked, err := getRankedPlayers(tx, scope, time.Now())
		if err != nil {
			return err
		}

		board = Leaderboard{
			Scope:          scope,
			Top:            rankedTop(ranked),
			CallerEligible: caller.MatchesPlayed >= LeaderboardEligibilityThreshold,
		}

		target := aroundRank
		if target == 0 && board.CallerEligible {
			for _, e := range ranked {
				if e.DiscordID == callerDiscordID {
					target = e.Rank
					break
				}
			}
		}

		if target > leaderboardSize {
			board.Neighborhood = neighborhood(ranked, target)
		}

		return nil
	}); err != nil {
		return Leaderboard{}, err
	}

	return board, nil
}

// GetRankedPlayers is the read-only full list, used by the web API.
func (b *Back) GetRankedPlayers(scope LeaderboardScope) (ret []LeaderboardEntry, _ error) {
	return ret, b.transaction(func(tx *sqlx.Tx) (err error) {
		ret, err = getRankedPlayers(tx, scope, time.Now())
		return err
	})
}

func rankedTop(ranked []LeaderboardEntry) []LeaderboardEntry {
	if len(ranked) > leaderboardSize {
		return ranked[:leaderboardSize]
	}

	return ranked
}

// neighborhood returns the entries at rank-1, rank and rank+1, clipped at
// both ends of the list.
func neighborhood(ranked []LeaderboardEntry, rank int) []LeaderboardEntry {
	if rank < 1 || rank > len(ranked) {
		return nil
	}

	lo := rank - 2 // index of rank-1
	if lo < 0 {
		lo = 0
	}
	hi := rank + 1 // index past rank+1
	if hi > len(ranked) {
		hi = len(ranked)
	}

	return ranked[lo:hi]
}
