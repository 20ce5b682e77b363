package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

// PostgresDB is the optional account store connection.
type PostgresDB struct {
	Conn     *sql.DB
	Ctx      context.Context
	Cancel   context.CancelFunc
	URL      string
	MaxConns int
}

func NewPostgresDB(url string, maxConns int) *PostgresDB {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if maxConns <= 0 {
		maxConns = 5
	}
	return &PostgresDB{
		Ctx:      ctx,
		Cancel:   cancel,
		URL:      url,
		MaxConns: maxConns,
	}
}

func (p *PostgresDB) Connect() error {
	conn, err := sql.Open("postgres", p.URL)
	if err != nil {
		return err
	}

	// account lookups are light; a small pool is enough
	conn.SetMaxOpenConns(p.MaxConns)
	conn.SetMaxIdleConns(p.MaxConns / 2)
	conn.SetConnMaxLifetime(30 * time.Minute)

	p.Conn = conn
	return p.Conn.PingContext(p.Ctx)
}

func (p *PostgresDB) Disconnect() error {
	p.Cancel()
	if p.Conn != nil {
		return p.Conn.Close()
	}
	return nil
}

func (p *PostgresDB) GetContext() context.Context {
	return p.Ctx
}
