package back

import (
	"fmt"
	"log"
	"time"

	"github.com/CrazyPenguin0111/5D-Chess-Glicko-Bot/internal/glicko"
	"github.com/CrazyPenguin0111/5D-Chess-Glicko-Bot/internal/util"

	"github.com/jmoiron/sqlx"
	"gopkg.in/guregu/null.v4"
)

// PlayerStats are the display fields for one player, used for $stats and in
// confirmation messages.
type PlayerStats struct {
	Name          string
	DiscordID     string
	Rating        float64
	Deviation     float64
	Provisional   bool
	MatchesPlayed int
	Wins          int
	Losses        int
	Draws         int
	LastMatchAt   null.Time
}

func newPlayerStats(p Player) PlayerStats {
	return PlayerStats{
		Name:          p.Name,
		DiscordID:     p.DiscordID,
		Rating:        p.Rating,
		Deviation:     p.Deviation,
		Provisional:   p.GlickoRating().Provisional(),
		MatchesPlayed: p.MatchesPlayed,
		Wins:          p.Wins,
		Losses:        p.Losses,
		Draws:         p.Draws,
		LastMatchAt:   p.LastMatchAt,
	}
}

// ReportSummary is what the command layer renders after a report call.
// Either the match confirmed (both players' post-update stats are set) or
// the report is pending and expires in ExpiresIn.
type ReportSummary struct {
	Confirmed bool
	ExpiresIn time.Duration

	Reporter PlayerStats
	Opponent PlayerStats
}

// ReportResult records a one-sided match report and reconciles it against
// the other party's pending reports. On the first complementary record
// found the match finalizes immediately: both ratings are recomputed from
// each other's pre-match snapshots and both matched rows are removed.
func (b *Back) ReportResult(
	reporterDiscordID, opponentDiscordID, resultToken string,
) (summary ReportSummary, _ error) {
	result, err := ParseMatchResult(resultToken)
	if err != nil {
		return ReportSummary{}, err
	}

	if reporterDiscordID == opponentDiscordID {
		return ReportSummary{}, ErrSelfMatch
	}

	reporterID, opponentID, err := b.resolvePair(reporterDiscordID, opponentDiscordID)
	if err != nil {
		return ReportSummary{}, err
	}

	unlock := b.lockPair(reporterID, opponentID)
	defer unlock()

	now := time.Now()
	if err := b.transaction(func(tx *sqlx.Tx) error {
		reporter, err := getPlayerByID(tx, reporterID)
		if err != nil {
			return err
		}
		opponent, err := getPlayerByID(tx, opponentID)
		if err != nil {
			return err
		}

		fresh := NewPendingMatch(reporter.ID, opponent.ID, result, now)
		if err := fresh.insert(tx); err != nil {
			return err
		}

		pending, err := getPendingMatchesForPair(tx, reporter.ID, opponent.ID)
		if err != nil {
			return err
		}

		matched, ok := findComplementary(pending, fresh)
		if !ok {
			summary = ReportSummary{
				ExpiresIn: PendingMatchTTL,
				Reporter:  newPlayerStats(reporter),
				Opponent:  newPlayerStats(opponent),
			}
			return nil
		}

		summary, err = b.finalize(tx, reporter, opponent, result, matched, fresh, now)
		return err
	}); err != nil {
		return ReportSummary{}, err
	}

	return summary, nil
}

// finalize applies a confirmed match. Both engine calls read the opponent's
// pre-update rating and deviation (the deviation field, not the rating
// field), then both matched ledger rows go away: leaving the triggering row
// behind would let a later opposite report double-count the same match.
func (b *Back) finalize(
	tx *sqlx.Tx,
	reporter, opponent Player,
	result MatchResult,
	matched, triggering PendingMatch,
	now time.Time,
) (ReportSummary, error) {
	score := result.Score()

	newReporter, err := glicko.Update(reporter.GlickoRating(), []glicko.Opponent{{
		Rating:    opponent.Rating,
		Deviation: opponent.Deviation,
		Score:     score,
	}})
	if err != nil {
		return ReportSummary{}, fmt.Errorf("unable to rate reporter %s: %w", reporter.ID, err)
	}

	newOpponent, err := glicko.Update(opponent.GlickoRating(), []glicko.Opponent{{
		Rating:    reporter.Rating,
		Deviation: reporter.Deviation,
		Score:     1 - score,
	}})
	if err != nil {
		return ReportSummary{}, fmt.Errorf("unable to rate opponent %s: %w", opponent.ID, err)
	}

	if err := applyMatchResult(tx, reporter.ID, newReporter, result, now); err != nil {
		return ReportSummary{}, err
	}
	if err := applyMatchResult(tx, opponent.ID, newOpponent, result.Complement(), now); err != nil {
		return ReportSummary{}, err
	}

	if err := deletePendingMatch(tx, matched.ID); err != nil {
		return ReportSummary{}, err
	}
	if err := deletePendingMatch(tx, triggering.ID); err != nil {
		return ReportSummary{}, err
	}

	log.Printf(
		"info: confirmed %s of %s against %s",
		result, reporter.Name, opponent.Name,
	)

	reporter, err = getPlayerByID(tx, reporter.ID)
	if err != nil {
		return ReportSummary{}, err
	}
	opponent, err = getPlayerByID(tx, opponent.ID)
	if err != nil {
		return ReportSummary{}, err
	}

	return ReportSummary{
		Confirmed: true,
		Reporter:  newPlayerStats(reporter),
		Opponent:  newPlayerStats(opponent),
	}, nil
}

// CancelPending removes the requester's own pending reports against the
// given opponent. Reports the opponent filed are left alone.
func (b *Back) CancelPending(requesterDiscordID, opponentDiscordID string) error {
	requesterID, opponentID, err := b.resolvePair(requesterDiscordID, opponentDiscordID)
	if err != nil {
		return err
	}

	unlock := b.lockPair(requesterID, opponentID)
	defer unlock()

	return b.transaction(func(tx *sqlx.Tx) error {
		pending, err := getPendingMatchesForPair(tx, requesterID, opponentID)
		if err != nil {
			return err
		}

		owned := 0
		for _, m := range pending {
			if m.ReporterID != requesterID {
				continue
			}

			if err := deletePendingMatch(tx, m.ID); err != nil {
				return err
			}
			owned++
		}

		if owned == 0 {
			return ErrNoPendingMatch
		}

		return nil
	})
}

// GetPlayerStats returns the display fields for a registered player, read
// only.
func (b *Back) GetPlayerStats(discordID string) (stats PlayerStats, _ error) {
	if err := b.transaction(func(tx *sqlx.Tx) error {
		player, err := getPlayerByDiscordID(tx, discordID)
		if err != nil {
			return err
		}

		stats = newPlayerStats(player)
		return nil
	}); err != nil {
		return PlayerStats{}, err
	}

	return stats, nil
}

// resolvePair maps two Discord IDs to player IDs, which is safe to do
// outside the pair lock: the mapping never changes once registered.
func (b *Back) resolvePair(d1, d2 string) (p1, p2 util.UUIDAsBlob, _ error) {
	err := b.transaction(func(tx *sqlx.Tx) error {
		player1, err := getPlayerByDiscordID(tx, d1)
		if err != nil {
			return err
		}
		player2, err := getPlayerByDiscordID(tx, d2)
		if err != nil {
			return err
		}

		p1, p2 = player1.ID, player2.ID
		return nil
	})

	return p1, p2, err
}
