// Package store is the host-side save-game repository: a thin Postgres
// connector (adapted from the teacher's `pkg/db`) plus `SaveGameRepository`,
// which snapshots a running `sim.GameState` as a JSON blob and a metadata
// row (SPEC_FULL.md §3). Nothing in the tick core (internal/sim and below)
// imports this package — persistence is a host concern, and the core stays
// a pure function of `(state, dt)` regardless of whether a host ever saves
// it (spec.md §5).
package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx"
	"github.com/spf13/viper"

	"nebulacore/pkg/logger"
)

// configuration :
// Connection parameters for the save-game database, parsed from viper the
// same way the teacher's `pkg/db` configuration is (same `Database.*` keys,
// so a deployment's existing config file needs no changes to also host
// saves).
//
// The `host`/`port`/`name`/`user`/`password` locate and authenticate to the
// Postgres instance.
//
// The `timeout` (seconds) paces the healthcheck ticker between reconnect
// attempts.
//
// The `connectionsPool` bounds how many concurrent connections the pool
// may open; a save-game repository only ever issues one query at a time
// per autosave tick, so this can stay small.
type configuration struct {
	host            string
	port            int
	name            string
	user            string
	password        string
	timeout         int
	connectionsPool int
}

// DB :
// Wraps a pgx connection pool with reconnect-on-healthcheck behavior. This
// is the same shape as the teacher's `pkg/db.DB`, retargeted at the
// save-game database instead of the OGame universe/planet/fleet tables.
type DB struct {
	pool   *pgx.ConnPool
	lock   sync.Mutex
	logger logger.Logger
	config configuration
}

func parseConfiguration() configuration {
	config := configuration{
		host:            "localhost",
		port:            5432,
		timeout:         5,
		connectionsPool: 5,
	}

	if viper.IsSet("Database.Host") {
		config.host = viper.GetString("Database.Host")
	}
	if viper.IsSet("Database.Port") {
		config.port = viper.GetInt("Database.Port")
	}
	if viper.IsSet("Database.Name") {
		config.name = viper.GetString("Database.Name")
	}
	if viper.IsSet("Database.User") {
		config.user = viper.GetString("Database.User")
	}
	if viper.IsSet("Database.Password") {
		config.password = viper.GetString("Database.Password")
	}
	if viper.IsSet("Database.Timeout") {
		config.timeout = viper.GetInt("Database.Timeout")
	}
	if viper.IsSet("Database.ConnectionsPool") {
		config.connectionsPool = viper.GetInt("Database.ConnectionsPool")
	}

	if config.name == "" {
		panic(fmt.Errorf("invalid save-game DB name fetched from configuration"))
	}
	if config.user == "" {
		panic(fmt.Errorf("invalid save-game DB user fetched from configuration"))
	}
	if config.connectionsPool <= 0 {
		panic(fmt.Errorf("invalid save-game DB connections pool %d", config.connectionsPool))
	}

	return config
}

// NewPool :
// Creates a DB object and starts trying to connect; connection attempts
// keep retrying on a background ticker until they succeed, so a host can
// start `cmd/simcore` before Postgres has finished coming up.
//
// The `log` is used to report connection attempts/failures.
//
// Returns the created (possibly not-yet-connected) DB object.
func NewPool(log logger.Logger) *DB {
	config := parseConfiguration()

	maxPort := 1 << 16
	if config.port >= maxPort {
		panic(fmt.Errorf("cannot use port %d to connect to save-game DB %q", config.port, config.name))
	}

	dbase := DB{
		logger: log,
		config: config,
	}

	dbase.createPoolAttempt()

	ticker := time.NewTicker(time.Second * time.Duration(config.timeout))
	go func() {
		for range ticker.C {
			dbase.Healthcheck()
		}
	}()

	return &dbase
}

func (dbase *DB) createPoolAttempt() bool {
	config := dbase.config
	dbase.logger.Trace(logger.Info, "store", fmt.Sprintf("connecting to %q (user %q, host %s:%d)", config.name, config.user, config.host, config.port))

	pool, err := pgx.NewConnPool(pgx.ConnPoolConfig{
		ConnConfig: pgx.ConnConfig{
			Host:     config.host,
			Database: config.name,
			Port:     uint16(config.port),
			User:     config.user,
			Password: config.password,
		},
		MaxConnections: config.connectionsPool,
		AcquireTimeout: 0,
	})

	if err != nil {
		dbase.logger.Trace(logger.Warning, "store", fmt.Sprintf("failed to connect to %q (err: %v)", config.name, err))
		return false
	}

	dbase.logger.Trace(logger.Info, "store", fmt.Sprintf("connected to %q as %q", config.name, config.user))

	dbase.lock.Lock()
	dbase.pool = pool
	dbase.lock.Unlock()

	return true
}

// Healthcheck :
// Reconnects if the pool has gone idle with zero live connections.
func (dbase *DB) Healthcheck() {
	dbase.lock.Lock()
	dbIsNil := dbase.pool == nil
	var stat pgx.ConnPoolStat
	if !dbIsNil {
		stat = dbase.pool.Stat()
	}
	dbase.lock.Unlock()

	if dbIsNil || stat.CurrentConnections == 0 {
		dbase.createPoolAttempt()
	}
}

// Execute :
// Runs a write query against the save-game database.
func (dbase *DB) Execute(query string, args ...interface{}) (pgx.CommandTag, error) {
	dbase.lock.Lock()
	defer dbase.lock.Unlock()
	if dbase.pool == nil {
		return pgx.CommandTag(""), ErrNotConnected
	}
	return dbase.pool.Exec(query, args...)
}

// Query :
// Runs a read query against the save-game database.
func (dbase *DB) Query(query string, args ...interface{}) (*pgx.Rows, error) {
	dbase.lock.Lock()
	defer dbase.lock.Unlock()
	if dbase.pool == nil {
		return nil, ErrNotConnected
	}
	return dbase.pool.Query(query, args...)
}
