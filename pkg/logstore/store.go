// Package logstore is the structured log domain: a Postgres-backed
// store of parsed access-log entries plus the aggregates the query
// router's log tool serves.
package logstore

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xhad/tier0/internal/types"
)

// maxIngestLines caps one ingest pass so a runaway log file cannot
// exhaust memory or the connection.
const maxIngestLines = 10000

const timestampLayout = "02/Jan/2006:15:04:05 -0700"

type StoreConfig struct {
	ConnString string
	TableName  string
}

type Store struct {
	config StoreConfig
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewWithConfig(config StoreConfig, logger *zap.Logger) (*Store, error) {
	if config.TableName == "" {
		config.TableName = "system_logs"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	pool, err := pgxpool.New(context.Background(), config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{config: config, pool: pool, logger: logger}
	if err := s.initialize(); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	ctx := context.Background()

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id BIGSERIAL PRIMARY KEY,
			ip_address TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL,
			method TEXT,
			endpoint TEXT,
			status_code INTEGER,
			response_size INTEGER,
			user_agent TEXT,
			response_time INTEGER
		)`, s.config.TableName)

	if _, err := s.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// Ingest parses lines from r and stores the entries that match the
// access-log shape, stopping at the processing cap. Unparsable lines
// are counted and skipped.
func (s *Store) Ingest(ctx context.Context, r io.Reader) (int, error) {
	stmt := fmt.Sprintf(`
		INSERT INTO %s (ip_address, timestamp, method, endpoint, status_code, response_size, user_agent, response_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, s.config.TableName)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	stored, skipped := 0, 0
	for scanner.Scan() && stored < maxIngestLines {
		entry := ParseLine(scanner.Text())
		if entry == nil {
			skipped++
			continue
		}

		ts, err := time.Parse(timestampLayout, entry.Timestamp)
		if err != nil {
			skipped++
			continue
		}

		if _, err := s.pool.Exec(ctx, stmt,
			entry.IPAddress, ts, entry.Method, entry.Endpoint,
			entry.StatusCode, entry.ResponseSize, entry.UserAgent, entry.ResponseTime,
		); err != nil {
			return stored, fmt.Errorf("failed to insert log entry: %w", err)
		}
		stored++
	}
	if err := scanner.Err(); err != nil {
		return stored, fmt.Errorf("failed reading log input: %w", err)
	}

	s.logger.Info("ingested access logs", zap.Int("stored", stored), zap.Int("skipped", skipped))
	return stored, nil
}

func (s *Store) TopIPs(ctx context.Context, limit int) ([]types.IPStat, error) {
	query := fmt.Sprintf(`
		SELECT ip_address,
			COUNT(*) AS request_count,
			COUNT(*) FILTER (WHERE status_code >= 400) AS error_count,
			AVG(response_time) AS avg_response_time
		FROM %s
		GROUP BY ip_address
		ORDER BY request_count DESC
		LIMIT $1`, s.config.TableName)

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top ips: %w", err)
	}
	defer rows.Close()

	var out []types.IPStat
	for rows.Next() {
		var st types.IPStat
		if err := rows.Scan(&st.IPAddress, &st.RequestCount, &st.ErrorCount, &st.AvgResponseTime); err != nil {
			return nil, fmt.Errorf("failed to scan ip row: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) ErrorAnalysis(ctx context.Context) ([]types.StatusStat, error) {
	query := fmt.Sprintf(`
		SELECT status_code, COUNT(*) AS count, ARRAY_AGG(DISTINCT ip_address) AS ips
		FROM %s
		WHERE status_code >= 400
		GROUP BY status_code
		ORDER BY count DESC`, s.config.TableName)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query errors: %w", err)
	}
	defer rows.Close()

	var out []types.StatusStat
	for rows.Next() {
		var st types.StatusStat
		if err := rows.Scan(&st.StatusCode, &st.Count, &st.IPs); err != nil {
			return nil, fmt.Errorf("failed to scan error row: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) Overview(ctx context.Context) (*types.LogOverview, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(*) AS total_requests,
			COUNT(DISTINCT ip_address) AS unique_ips,
			COUNT(*) FILTER (WHERE status_code >= 400) AS error_count,
			COALESCE(AVG(response_time), 0) AS avg_response_time,
			COALESCE(MAX(response_time), 0) AS max_response_time
		FROM %s`, s.config.TableName)

	var o types.LogOverview
	if err := s.pool.QueryRow(ctx, query).Scan(
		&o.TotalRequests, &o.UniqueIPs, &o.ErrorCount, &o.AvgResponseTime, &o.MaxResponseTime,
	); err != nil {
		return nil, fmt.Errorf("failed to query log overview: %w", err)
	}
	return &o, nil
}

func (s *Store) TopEndpoints(ctx context.Context, limit int) ([]types.EndpointStat, error) {
	query := fmt.Sprintf(`
		SELECT endpoint, COUNT(*) AS count
		FROM %s
		GROUP BY endpoint
		ORDER BY count DESC
		LIMIT $1`, s.config.TableName)

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query endpoints: %w", err)
	}
	defer rows.Close()

	var out []types.EndpointStat
	for rows.Next() {
		var st types.EndpointStat
		if err := rows.Scan(&st.Endpoint, &st.Count); err != nil {
			return nil, fmt.Errorf("failed to scan endpoint row: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
