package back

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/CrazyPenguin0111/5D-Chess-Glicko-Bot/internal/glicko"
	"github.com/CrazyPenguin0111/5D-Chess-Glicko-Bot/internal/util"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"gopkg.in/guregu/null.v4"
)

// A Player is a registered competitor. Created once, mutated only through
// applyMatchResult, never deleted.
type Player struct {
	ID        util.UUIDAsBlob
	CreatedAt util.TimeAsTimestamp
	DiscordID string
	Name      string

	// Glicko-2
	Rating     float64
	Deviation  float64
	Volatility float64

	LastMatchAt   null.Time
	MatchesPlayed int
	Wins          int
	Losses        int
	Draws         int
}

func NewPlayer(discordID, name string) Player {
	rating := glicko.NewRating()

	return Player{
		ID:         util.NewUUIDAsBlob(),
		CreatedAt:  util.TimeAsTimestamp(time.Now()),
		DiscordID:  discordID,
		Name:       name,
		Rating:     rating.Rating,
		Deviation:  rating.Deviation,
		Volatility: rating.Volatility,
	}
}

func (p *Player) GlickoRating() glicko.Rating {
	return glicko.Rating{
		Rating:     p.Rating,
		Deviation:  p.Deviation,
		Volatility: p.Volatility,
	}
}

func (p *Player) insert(tx *sqlx.Tx) error {
	query, args, err := squirrel.Insert("Player").SetMap(squirrel.Eq{
		"ID":            p.ID,
		"CreatedAt":     p.CreatedAt,
		"DiscordID":     p.DiscordID,
		"Name":          p.Name,
		"Rating":        p.Rating,
		"Deviation":     p.Deviation,
		"Volatility":    p.Volatility,
		"LastMatchAt":   p.LastMatchAt,
		"MatchesPlayed": p.MatchesPlayed,
		"Wins":          p.Wins,
		"Losses":        p.Losses,
		"Draws":         p.Draws,
	}).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}

func getPlayerByDiscordID(tx *sqlx.Tx, discordID string) (Player, error) {
	var ret Player
	query := `SELECT * FROM Player WHERE Player.DiscordID = ? LIMIT 1`
	if err := tx.Get(&ret, query, discordID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Player{}, ErrNotFound
		}

		return Player{}, err
	}

	return ret, nil
}

func getPlayerByID(tx *sqlx.Tx, id util.UUIDAsBlob) (Player, error) {
	var ret Player
	query := `SELECT * FROM Player WHERE Player.ID = ? LIMIT 1`
	if err := tx.Get(&ret, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Player{}, ErrNotFound
		}

		return Player{}, err
	}

	return ret, nil
}

// applyMatchResult writes a finalized outcome to a single player row: new
// rating triple, matches counter, last match time, and exactly one of the
// win/loss/draw counters. Runs in the caller's transaction so either both
// sides of a match land or neither does.
func applyMatchResult(
	tx *sqlx.Tx,
	playerID util.UUIDAsBlob,
	rating glicko.Rating,
	result MatchResult,
	now time.Time,
) error {
	var counter string
	switch result {
	case MatchResultWin:
		counter = "Wins"
	case MatchResultLoss:
		counter = "Losses"
	case MatchResultDraw:
		counter = "Draws"
	default:
		return fmt.Errorf("invalid match result: %d", result)
	}

	query, args, err := squirrel.Update("Player").
		Set("Rating", rating.Rating).
		Set("Deviation", rating.Deviation).
		Set("Volatility", rating.Volatility).
		Set("LastMatchAt", null.TimeFrom(now)).
		Set("MatchesPlayed", squirrel.Expr("MatchesPlayed + 1")).
		Set(counter, squirrel.Expr(counter+" + 1")).
		Where("Player.ID = ?", playerID).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}

// Register creates the default rating entry for a Discord user. Exactly
// once: a second call fails with ErrAlreadyExists and leaves the first row
// untouched (the unique constraint on DiscordID backs the check).
func (b *Back) Register(discordID, name string) (player Player, _ error) {
	if err := b.transaction(func(tx *sqlx.Tx) error {
		if _, err := getPlayerByDiscordID(tx, discordID); err == nil {
			return ErrAlreadyExists
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}

		player = NewPlayer(discordID, name)
		return player.insert(tx)
	}); err != nil {
		return Player{}, err
	}

	return player, nil
}
