package probe

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/hamed0406/resourcewatch/internal/domain"
)

// Postgres opens a connection and runs Query.
type Postgres struct {
	config *pgx.ConnConfig
	query  string
}

type postgresOptions struct {
	DSN   string `mapstructure:"dsn"`
	Query string `mapstructure:"query"`
}

func NewPostgres(opts Options) (Checker, error) {
	var o postgresOptions
	if err := opts.Decode(&o); err != nil {
		return nil, err
	}
	cfg, err := pgx.ParseConfig(o.DSN)
	if err != nil {
		return nil, fmt.Errorf("dsn: %w", err)
	}
	if o.Query == "" {
		o.Query = "SELECT 1"
	}
	return &Postgres{config: cfg, query: o.Query}, nil
}

func (p *Postgres) Name() string {
	return fmt.Sprintf("postgres %s:%d/%s", p.config.Host, p.config.Port, p.config.Database)
}

func (p *Postgres) Check(ctx context.Context) (domain.Result, error) {
	conn, err := pgx.ConnectConfig(ctx, p.config.Copy())
	if err != nil {
		return domain.Critical(fmt.Sprintf("connect: %v", err)), nil
	}
	defer conn.Close(context.WithoutCancel(ctx))

	var v any
	if err := conn.QueryRow(ctx, p.query).Scan(&v); err != nil {
		return domain.Critical(fmt.Sprintf("query %q: %v", p.query, err)), nil
	}
	return domain.OK(), nil
}
