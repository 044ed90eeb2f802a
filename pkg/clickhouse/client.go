package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"
)

// Client manages the ClickHouse connection pool behind database/sql.
type Client struct {
	db  *sql.DB
	cfg ClientConfig
}

// NewClient opens the pool and pings the server once.
func NewClient(opts ...ClientOption) (*Client, error) {
	cfg := &ClientConfig{
		Port:            9000,
		Database:        "default",
		User:            "default",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		PingTimeout:     5 * time.Second,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Host == "" {
		return nil, fmt.Errorf("host is required")
	}

	db, err := sql.Open("clickhouse", buildDSN(*cfg))
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("clickhouse ping %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	return &Client{db: db, cfg: *cfg}, nil
}

// WriteTimeout is the per-insert deadline callers should apply.
func (c *Client) WriteTimeout() time.Duration {
	return c.cfg.WriteTimeout
}

// DB returns *sql.DB for direct use.
func (c *Client) DB() *sql.DB {
	return c.db
}

// Health performs health check.
func (c *Client) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes connection pool.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// InitSchema runs idempotent DDL statements in order.
func (c *Client) InitSchema(ctx context.Context, stmts []string) error {
	for i, stmt := range stmts {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema stmt %d: %w", i, err)
		}
	}
	return nil
}

func buildDSN(cfg ClientConfig) string {
	scheme := "clickhouse"
	if cfg.UseHTTP {
		scheme = "http"
	}
	u := url.URL{
		Scheme: scheme,
		Host:   cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Path:   "/" + cfg.Database,
	}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}

	q := url.Values{}
	if cfg.DialTimeout > 0 {
		q.Set("dial_timeout", cfg.DialTimeout.String())
	}
	if cfg.ReadTimeout > 0 {
		q.Set("read_timeout", cfg.ReadTimeout.String())
	}
	// write_timeout is not a server setting; stores apply it per insert via WriteTimeout()
	if cfg.MaxExecTime > 0 {
		q.Set("max_execution_time", strconv.Itoa(int(cfg.MaxExecTime.Seconds())))
	}
	if cfg.AsyncInsert {
		q.Set("async_insert", "1")
		if cfg.WaitForAsync {
			q.Set("wait_for_async_insert", "1")
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}
