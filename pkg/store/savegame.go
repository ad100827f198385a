package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"nebulacore/internal/content"
	"nebulacore/internal/sim"
	"nebulacore/internal/simconfig"
	"nebulacore/internal/simid"
	"nebulacore/internal/worldstate"
	"nebulacore/pkg/logger"
)

// hostilePair :
// A serializable stand-in for one entry of `GameState.ExplicitHostile`
// (keyed by a `[2]simid.Id` array, which `encoding/json` cannot use as a
// map key directly). `SetHostile` only ever stores `true` entries (a
// reversal deletes the entry rather than storing `false`), so this is
// always a "these two factions are at war" pair.
type hostilePair struct {
	A simid.Id
	B simid.Id
}

// snapshot :
// The exact shape persisted to the `payload` column: everything spec.md §6
// calls out as persisted state, minus the content DB (reloaded fresh at
// host startup from its own asset source — content/asset loading is
// explicit spec.md Non-goals scope) and minus `SaveID` (that is a column
// of its own, not part of the blob).
type snapshot struct {
	World           *worldstate.State
	Config          simconfig.SimConfig
	ExplicitHostile []hostilePair
}

// SaveGameRepository :
// Postgres-backed persistence for `sim.GameState` (SPEC_FULL.md §3):
// snapshots the world as a JSON blob in a `payload` column alongside a
// metadata row (day, save id, total mineral tonnage) that can be queried
// without deserializing the blob. Mirrors the teacher's `db.DB` +
// proxy-over-a-connection idiom, but the multi-table, stored-procedure
// query builder the teacher used for its dozen OGame tables doesn't fit a
// single save-game table — direct parameterized SQL is clearer here, so
// that generic builder was not carried over (see DESIGN.md).
type SaveGameRepository struct {
	db      *DB
	log     logger.Logger
	limiter *rate.Limiter
}

// NewSaveGameRepository :
// Builds a repository over an already-connected DB. `autosaveInterval`
// rate-limits `Autosave` calls so a host driving `advance_days` in a tight
// loop (spec.md §5: "no internal cancellation... simply receives control
// back after N day-ticks complete") doesn't hammer Postgres once per tick;
// a direct call to `Save` is never throttled.
func NewSaveGameRepository(db *DB, log logger.Logger, autosaveInterval time.Duration) *SaveGameRepository {
	return &SaveGameRepository{
		db:      db,
		log:     log,
		limiter: rate.NewLimiter(rate.Every(autosaveInterval), 1),
	}
}

// EnsureSchema :
// Creates the `saves` table if it does not already exist. A host calls
// this once at startup; it is a no-op on an already-initialized database.
func (r *SaveGameRepository) EnsureSchema() error {
	_, err := r.db.Execute(`
		create table if not exists saves (
			id uuid primary key,
			day bigint not null,
			hour_of_day int not null,
			mineral_total numeric not null,
			payload jsonb not null,
			updated_at timestamptz not null
		)
	`)
	return err
}

// Save :
// Unconditionally snapshots `gs` and upserts it under its `SaveID`.
//
// Returns any DB or marshaling error.
func (r *SaveGameRepository) Save(gs *sim.GameState) error {
	snap := toSnapshot(gs)

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("store: marshal save %s: %w", gs.SaveID, err)
	}

	total := mineralTotal(gs.World)

	_, err = r.db.Execute(`
		insert into saves (id, day, hour_of_day, mineral_total, payload, updated_at)
		values ($1, $2, $3, $4, $5, now())
		on conflict (id) do update set
			day = excluded.day,
			hour_of_day = excluded.hour_of_day,
			mineral_total = excluded.mineral_total,
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, gs.SaveID.String(), gs.World.Day, gs.World.HourOfDay, total.String(), payload)

	if err = formatDBError(err); err != nil {
		r.log.Trace(logger.Error, "store", fmt.Sprintf("save %s failed: %v", gs.SaveID, err))
		return err
	}

	r.log.Trace(logger.Info, "store", fmt.Sprintf("saved %s at day %d (mineral total %s)", gs.SaveID, gs.World.Day, total.String()))
	return nil
}

// Autosave :
// Calls `Save` only if the configured interval has elapsed since the last
// `Autosave` that attempted a save, whether or not that save succeeded
// (direct `Save` calls do not count); otherwise a no-op. Intended to be called after
// every `advance_days` in a host loop without the host tracking its own
// cadence.
//
// Returns whether a save was actually performed, and any error from it.
func (r *SaveGameRepository) Autosave(gs *sim.GameState) (bool, error) {
	if !r.limiter.Allow() {
		return false, nil
	}
	return true, r.Save(gs)
}

// Load :
// Fetches the row for `id` and rehydrates it into a fresh `sim.GameState`
// built against `db` (the caller's already-loaded content database —
// content defs are never persisted, see `snapshot`).
//
// Returns ErrSaveNotFound if no row matches.
func (r *SaveGameRepository) Load(id uuid.UUID, db *content.DB) (*sim.GameState, error) {
	rows, err := r.db.Query(`select payload from saves where id = $1`, id.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ErrSaveNotFound
	}

	var payload []byte
	if err := rows.Scan(&payload); err != nil {
		return nil, err
	}

	var snap snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("store: unmarshal save %s: %w", id, err)
	}

	hostile := make(map[[2]simid.Id]bool, len(snap.ExplicitHostile))
	for _, p := range snap.ExplicitHostile {
		hostile[[2]simid.Id{p.A, p.B}] = true
	}

	return &sim.GameState{
		World:           snap.World,
		DB:              db,
		Config:          snap.Config,
		SaveID:          id,
		ExplicitHostile: hostile,
	}, nil
}

func toSnapshot(gs *sim.GameState) snapshot {
	pairs := make([]hostilePair, 0, len(gs.ExplicitHostile))
	for pair, hostile := range gs.ExplicitHostile {
		if hostile {
			pairs = append(pairs, hostilePair{A: pair[0], B: pair[1]})
		}
	}
	return snapshot{World: gs.World, Config: gs.Config, ExplicitHostile: pairs}
}

// mineralTotal :
// Sums every colony's mineral stockpile using shopspring/decimal so the
// summary column round-trips exactly through Postgres' `numeric` type
// rather than accumulating float64 drift across repeated autosaves of a
// long-running game (SPEC_FULL.md §3 domain stack: decimal is wired here,
// not in the tick core itself, which stays float64 per spec.md §3).
func mineralTotal(w *worldstate.State) decimal.Decimal {
	total := decimal.Zero
	for _, id := range w.SortedColonyIds() {
		c := w.Colonies[id]
		for mineral, tons := range c.Minerals {
			_ = mineral
			total = total.Add(decimal.NewFromFloat(tons))
		}
	}
	return total
}
