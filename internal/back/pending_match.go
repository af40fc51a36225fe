package back

import (
	"strings"
	"time"

	"github.com/CrazyPenguin0111/5D-Chess-Glicko-Bot/internal/util"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

type MatchResult int

const ( // this is stored in DB, don't change values
	MatchResultLoss MatchResult = -1
	MatchResultDraw MatchResult = 0
	MatchResultWin  MatchResult = 1
)

// ParseMatchResult reads a user-supplied result token, always from the
// reporter's own perspective.
func ParseMatchResult(token string) (MatchResult, error) {
	switch strings.ToLower(token) {
	case "w", "win":
		return MatchResultWin, nil
	case "l", "loss":
		return MatchResultLoss, nil
	case "d", "draw":
		return MatchResultDraw, nil
	default:
		return 0, ErrInvalidResult
	}
}

// Complement is the result the other party must have reported for the two
// reports to describe the same match.
func (r MatchResult) Complement() MatchResult {
	return -r
}

func (r MatchResult) Score() float64 {
	switch r {
	case MatchResultWin:
		return 1
	case MatchResultLoss:
		return 0
	default:
		return 0.5
	}
}

func (r MatchResult) String() string {
	switch r {
	case MatchResultWin:
		return "win"
	case MatchResultLoss:
		return "loss"
	case MatchResultDraw:
		return "draw"
	default:
		return "invalid"
	}
}

// A PendingMatch is a one-sided report awaiting the other party's
// confirmation. Result is from the reporter's perspective. Duplicate
// reports from one reporter are legal and kept as separate rows.
type PendingMatch struct {
	ID         util.UUIDAsBlob
	CreatedAt  util.TimeAsTimestamp
	ReporterID util.UUIDAsBlob
	OpponentID util.UUIDAsBlob
	Result     MatchResult
}

func NewPendingMatch(reporterID, opponentID util.UUIDAsBlob, result MatchResult, now time.Time) PendingMatch {
	return PendingMatch{
		ID:         util.NewUUIDAsBlob(),
		CreatedAt:  util.TimeAsTimestamp(now),
		ReporterID: reporterID,
		OpponentID: opponentID,
		Result:     result,
	}
}

func (m *PendingMatch) insert(tx *sqlx.Tx) error {
	query, args, err := squirrel.Insert("PendingMatch").SetMap(squirrel.Eq{
		"ID":         m.ID,
		"CreatedAt":  m.CreatedAt,
		"ReporterID": m.ReporterID,
		"OpponentID": m.OpponentID,
		"Result":     m.Result,
	}).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}

// getPendingMatchesForPair returns every pending report between two players
// in either direction, oldest inserted first. There can legitimately be
// more than one per direction.
func getPendingMatchesForPair(tx *sqlx.Tx, p1, p2 util.UUIDAsBlob) ([]PendingMatch, error) {
	var ret []PendingMatch
	query := `
        SELECT * FROM PendingMatch
        WHERE (ReporterID = ? AND OpponentID = ?)
           OR (ReporterID = ? AND OpponentID = ?)
        ORDER BY rowid ASC`
	if err := tx.Select(&ret, query, p1, p2, p2, p1); err != nil {
		return nil, err
	}

	return ret, nil
}

func deletePendingMatch(tx *sqlx.Tx, id util.UUIDAsBlob) error {
	if _, err := tx.Exec(`DELETE FROM PendingMatch WHERE ID = ?`, id); err != nil {
		return err
	}

	return nil
}

// findComplementary returns the first record that confirms the given fresh
// report, in insertion order. The counter-report must come from the
// opponent's side: a reporter's own rows can never confirm their new one,
// which notably keeps a player from self-confirming a draw with two
// identical reports.
func findComplementary(pending []PendingMatch, fresh PendingMatch) (PendingMatch, bool) {
	for _, m := range pending {
		if m.ID == fresh.ID {
			continue
		}
		if m.ReporterID != fresh.OpponentID {
			continue
		}
		if m.Result == fresh.Result.Complement() {
			return m, true
		}
	}

	return PendingMatch{}, false
}
