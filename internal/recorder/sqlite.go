package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/ducminhle1904/crypto-scalp-bot/pkg/types"
)

// SQLiteRecorder persists the trade journal to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	log *zap.Logger
	mu  sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(dbPath string, log *zap.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so ad-hoc reads do not block the bot's writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log.Named("recorder")}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signals (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			generated_at INTEGER NOT NULL,
			symbol       TEXT NOT NULL,
			side         TEXT NOT NULL,
			price        REAL,
			strength     REAL,
			stop_loss    REAL,
			take_profit  REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_ts ON signals(generated_at)`,

		`CREATE TABLE IF NOT EXISTS trades (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			opened_at       INTEGER NOT NULL,
			closed_at       INTEGER NOT NULL,
			symbol          TEXT NOT NULL,
			side            TEXT NOT NULL,
			entry_price     REAL,
			exit_price      REAL,
			quantity        REAL,
			pnl             REAL,
			reason          TEXT,
			signal_strength REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_ts ON trades(closed_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordSignal stores an emitted entry signal.
func (r *SQLiteRecorder) RecordSignal(sig *types.Signal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO signals
		(generated_at, symbol, side, price, strength, stop_loss, take_profit)
		VALUES (?,?,?,?,?,?,?)`,
		sig.GeneratedAt.Unix(), sig.Symbol, sig.Side.String(),
		sig.Price, sig.Strength, sig.StopLoss, sig.TakeProfit,
	)
	return err
}

// RecordTrade stores a completed round trip.
func (r *SQLiteRecorder) RecordTrade(res *types.TradeResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO trades
		(opened_at, closed_at, symbol, side, entry_price, exit_price, quantity, pnl, reason, signal_strength)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		res.OpenedAt.Unix(), res.ClosedAt.Unix(), res.Symbol, res.Side.String(),
		res.EntryPrice, res.ExitPrice, res.Quantity, res.PnL,
		string(res.Reason), res.SignalStrength,
	)
	return err
}

// Trades returns all recorded trades, oldest first.
func (r *SQLiteRecorder) Trades() ([]types.TradeResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT opened_at, closed_at, symbol, side,
		entry_price, exit_price, quantity, pnl, reason, signal_strength
		FROM trades ORDER BY closed_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.TradeResult
	for rows.Next() {
		var (
			openedAt, closedAt int64
			side, reason       string
			res                types.TradeResult
		)
		if err := rows.Scan(&openedAt, &closedAt, &res.Symbol, &side,
			&res.EntryPrice, &res.ExitPrice, &res.Quantity, &res.PnL,
			&reason, &res.SignalStrength); err != nil {
			return nil, err
		}
		res.OpenedAt = time.Unix(openedAt, 0)
		res.ClosedAt = time.Unix(closedAt, 0)
		res.Side = sideFromString(side)
		res.Reason = types.CloseReason(reason)
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}

func sideFromString(s string) types.Side {
	if s == types.SideSell.String() {
		return types.SideSell
	}
	return types.SideBuy
}
