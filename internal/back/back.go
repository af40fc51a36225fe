package back

import (
	"bytes"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/CrazyPenguin0111/5D-Chess-Glicko-Bot/internal/util"

	"github.com/jmoiron/sqlx"
)

const (
	// PendingMatchTTL is how long an unconfirmed report stays eligible for
	// reconciliation. The sweep period is coarser than the TTL on purpose:
	// an expired record can survive up to TTL+sweepInterval before removal,
	// it just can't be matched after the sweep runs.
	PendingMatchTTL = 20 * time.Minute

	sweepInterval = 5 * time.Minute
)

type Back struct {
	db *sqlx.DB

	// One mutex per unordered player pair. Every mutation of a pair's
	// pending records (report, finalize, cancel, sweep) holds its lock so an
	// expiry can't race a confirmation. The table grows with the number of
	// distinct pairs that ever reported, which is fine at community scale.
	pairMu    sync.Mutex
	pairLocks map[[2]util.UUIDAsBlob]*sync.Mutex
}

func New(sqlDriver string, sqlDSN string) (*Back, error) {
	// Why even bother converting names? A single greppable string across all
	// your source code is better than any odd conversion scheme you could ever
	// come up with.
	// HACK: This is global but putting this in init() makes test ugly.
	// As only the Back relies on the DB, this seems like an okay-ish place.
	sqlx.NameMapper = func(v string) string { return v }

	db, err := sqlx.Connect(sqlDriver, sqlDSN)
	if err != nil {
		return nil, err
	}

	return &Back{
		db:        db,
		pairLocks: map[[2]util.UUIDAsBlob]*sync.Mutex{},
	}, nil
}

func (b *Back) Close() error {
	return b.db.Close()
}

// Run sweeps expired pending reports until done is closed. An in-flight
// sweep finishes before Run returns.
func (b *Back) Run(wg *sync.WaitGroup, done <-chan struct{}) {
	wg.Add(1)
	defer wg.Done()
	log.Print("info: starting Back dæmon")

	for {
		if err := b.RunExpirySweep(time.Now()); err != nil {
			log.Printf("error: expiry sweep: %s", err)
		}

		select {
		case <-time.After(sweepInterval):
		case <-done:
			return
		}
	}
}

type transactionCallback func(*sqlx.Tx) error

func (b *Back) transaction(cb transactionCallback) error {
	tx, err := b.db.Beginx()
	if err != nil {
		return err
	}

	if err := cb(tx); err != nil {
		if err2 := tx.Rollback(); err2 != nil {
			return fmt.Errorf("rollback error: %s\noriginal error: %s", err2, err)
		}

		return err
	}

	return tx.Commit()
}

// lockPair serializes every pending-record mutation for an unordered player
// pair, the returned func releases the lock.
func (b *Back) lockPair(p1, p2 util.UUIDAsBlob) func() {
	key := normalizePair(p1, p2)

	b.pairMu.Lock()
	l, ok := b.pairLocks[key]
	if !ok {
		l = &sync.Mutex{}
		b.pairLocks[key] = l
	}
	b.pairMu.Unlock()

	l.Lock()
	return l.Unlock
}

func normalizePair(p1, p2 util.UUIDAsBlob) [2]util.UUIDAsBlob {
	a, b := [16]byte(p1), [16]byte(p2)
	if bytes.Compare(a[:], b[:]) > 0 {
		return [2]util.UUIDAsBlob{p2, p1}
	}

	return [2]util.UUIDAsBlob{p1, p2}
}
