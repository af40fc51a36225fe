package back

import (
	"log"
	"time"

	"github.com/CrazyPenguin0111/5D-Chess-Glicko-Bot/internal/util"

	"github.com/jmoiron/sqlx"
)

// RunExpirySweep deletes every pending report older than the TTL. Deletion
// happens pair by pair under the same lock as report/finalize so the sweep
// can never remove a record that is being matched right now; a record that
// finalizes while we hold its pair lock is simply gone when we re-check.
func (b *Back) RunExpirySweep(now time.Time) error {
	cutoff := now.Add(-PendingMatchTTL)

	var expired []PendingMatch
	if err := b.transaction(func(tx *sqlx.Tx) error {
		return tx.Select(
			&expired,
			`SELECT * FROM PendingMatch WHERE CreatedAt <= ?`,
			util.TimeAsTimestamp(cutoff),
		)
	}); err != nil {
		return err
	}

	if len(expired) == 0 {
		return nil
	}

	pairs := map[[2]util.UUIDAsBlob][]PendingMatch{}
	for _, m := range expired {
		key := normalizePair(m.ReporterID, m.OpponentID)
		pairs[key] = append(pairs[key], m)
	}

	removed := 0
	for key, records := range pairs {
		if err := func() error {
			unlock := b.lockPair(key[0], key[1])
			defer unlock()

			return b.transaction(func(tx *sqlx.Tx) error {
				for _, m := range records {
					res, err := tx.Exec(
						`DELETE FROM PendingMatch WHERE ID = ? AND CreatedAt <= ?`,
						m.ID, util.TimeAsTimestamp(cutoff),
					)
					if err != nil {
						return err
					}

					if cnt, err := res.RowsAffected(); err == nil {
						removed += int(cnt)
					}
				}

				return nil
			})
		}(); err != nil {
			return err
		}
	}

	if removed > 0 {
		log.Printf("info: removed %d pending reports older than %s", removed, PendingMatchTTL)
	}

	return nil
}
