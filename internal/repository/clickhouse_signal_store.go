package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"StockPulse/internal/domain/models"
	domrepo "StockPulse/internal/domain/repository"
	pkgch "StockPulse/pkg/clickhouse"
	applogger "StockPulse/pkg/logger"
)

// CHSignalStore implements SignalStore backed by ClickHouse.
type CHSignalStore struct {
	ch       *pkgch.Client
	db       *sql.DB
	database string
	table    string
	l        *applogger.Logger
}

var _ domrepo.SignalStore = (*CHSignalStore)(nil)

// NewCHSignalStore creates the store over an established connection.
func NewCHSignalStore(ch *pkgch.Client, database string) *CHSignalStore {
	return &CHSignalStore{
		ch:       ch,
		db:       ch.DB(),
		database: database,
		table:    database + ".signals",
	}
}

// SetLogger injects a structured logger.
func (s *CHSignalStore) SetLogger(l *applogger.Logger) { s.l = l }

// Init ensures the signals table exists. Idempotent.
func (s *CHSignalStore) Init(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", s.database),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			ts           DateTime,
			symbol       LowCardinality(String),
			kind         LowCardinality(String),
			price        Float64,
			rsi          Float64,
			macd_hist    Float64,
			volume_ratio Float64,
			strength     UInt8,
			description  String
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(ts)
		ORDER BY (symbol, ts)
		TTL ts + INTERVAL 180 DAY
	`, s.table),
	}
	return s.ch.InitSchema(ctx, stmts)
}

// Append inserts a sweep's signals. Rows are chunked to keep single
// statements bounded.
func (s *CHSignalStore) Append(ctx context.Context, signals []models.Signal) error {
	if len(signals) == 0 {
		return nil
	}
	const chunkSize = 2000
	for start := 0; start < len(signals); start += chunkSize {
		end := start + chunkSize
		if end > len(signals) {
			end = len(signals)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*9)
		for _, sig := range signals[start:end] {
			if sig.Symbol == "" || !sig.Kind.Valid() {
				continue
			}
			ts := sig.Timestamp
			if ts.IsZero() {
				ts = time.Now()
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				ts,
				sig.Symbol,
				string(sig.Kind),
				sig.Price,
				sig.RSI,
				sig.MACDHist,
				sig.VolumeRatio,
				uint8(sig.Strength),
				sig.Description,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (ts, symbol, kind, price, rsi, macd_hist, volume_ratio, strength, description) VALUES %s",
			s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse append signals error",
					applogger.Int("rows", len(values)),
					applogger.Error(err),
				)
			}
			return fmt.Errorf("append signals: %w", err)
		}
	}
	return nil
}

// Query returns persisted signals, latest first.
func (s *CHSignalStore) Query(ctx context.Context, q models.SignalQuery) ([]models.Signal, error) {
	start := time.Now()
	conds := make([]string, 0, 4)
	args := make([]interface{}, 0, 5)
	if q.Symbol != "" {
		conds = append(conds, "symbol = ?")
		args = append(args, q.Symbol)
	}
	if q.Kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, string(q.Kind))
	}
	if !q.From.IsZero() {
		conds = append(conds, "ts >= ?")
		args = append(args, q.From)
	}
	if !q.To.IsZero() {
		conds = append(conds, "ts <= ?")
		args = append(args, q.To)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf("SELECT ts, symbol, kind, price, rsi, macd_hist, volume_ratio, strength, description FROM %s", s.table)
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY ts DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse query signals error",
				applogger.String("symbol", q.Symbol),
				applogger.String("kind", string(q.Kind)),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	out := make([]models.Signal, 0, limit)
	for rows.Next() {
		var (
			sig      models.Signal
			ts       time.Time
			kind     string
			strength uint8
		)
		if err := rows.Scan(&ts, &sig.Symbol, &kind, &sig.Price, &sig.RSI, &sig.MACDHist, &sig.VolumeRatio, &strength, &sig.Description); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		sig.Timestamp = ts
		sig.Kind = models.SignalKind(kind)
		sig.Strength = int(strength)
		out = append(out, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse query signals ok",
			applogger.String("symbol", q.Symbol),
			applogger.String("kind", string(q.Kind)),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

// Summarize aggregates one window of signals into a digest. A window
// without signals yields a digest with Total zero, not an error.
func (s *CHSignalStore) Summarize(ctx context.Context, from, to time.Time) (*models.DigestEvent, error) {
	digest := &models.DigestEvent{
		Date:   from.Format("2006-01-02"),
		ByKind: make(map[string]int),
	}

	byKind := fmt.Sprintf("SELECT kind, count() FROM %s WHERE ts >= ? AND ts <= ? GROUP BY kind", s.table)
	rows, err := s.db.QueryContext(ctx, byKind, from, to)
	if err != nil {
		return nil, fmt.Errorf("summarize by kind: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			kind  string
			count uint64
		)
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("scan kind count: %w", err)
		}
		digest.ByKind[kind] = int(count)
		digest.Total += int(count)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if digest.Total == 0 {
		return digest, nil
	}

	topSymbols := fmt.Sprintf("SELECT symbol, count() AS c FROM %s WHERE ts >= ? AND ts <= ? GROUP BY symbol ORDER BY c DESC, symbol ASC LIMIT 5", s.table)
	srows, err := s.db.QueryContext(ctx, topSymbols, from, to)
	if err != nil {
		return nil, fmt.Errorf("summarize top symbols: %w", err)
	}
	defer srows.Close()
	for srows.Next() {
		var (
			symbol string
			count  uint64
		)
		if err := srows.Scan(&symbol, &count); err != nil {
			return nil, fmt.Errorf("scan symbol count: %w", err)
		}
		digest.TopSymbols = append(digest.TopSymbols, models.SymbolCount{Symbol: symbol, Count: int(count)})
	}
	if err := srows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	if s.l != nil {
		s.l.Info("clickhouse summarize ok",
			applogger.String("date", digest.Date),
			applogger.Int("total", digest.Total),
		)
	}
	return digest, nil
}

// Health pings the connection.
func (s *CHSignalStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHSignalStore) Close() error {
	return nil // Managed by pkg
}
