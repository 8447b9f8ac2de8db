// Package database persists the route configuration. Postgres (lib/pq) is the
// production backend; any database/sql driver that accepts $N placeholders works.
package database

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RestinGreen/fee-forwarder/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

//go:embed migrations/001_routes.sql
var routesSchema string

var ErrRouteNotFound = errors.New("route not found")

const (
	pingTimeout  = 30 * time.Second
	pingInterval = 2 * time.Second
)

type RouteStore struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// Open connects to postgres and waits for the server to accept connections.
func Open(ctx context.Context, connStr string, logger *zap.Logger) (*RouteStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	for {
		err = db.PingContext(ctx)
		if err == nil {
			break
		}
		logger.Info("waiting for pgsql server to start", zap.Error(err))
		select {
		case <-ctx.Done():
			db.Close()
			return nil, fmt.Errorf("pgsql server connection timeout: %w", err)
		case <-time.After(pingInterval):
		}
	}
	logger.Info("connected to postgres database")

	return NewRouteStore(db, logger), nil
}

func NewRouteStore(db *sql.DB, logger *zap.Logger) *RouteStore {
	return &RouteStore{db: db, logger: logger, now: time.Now}
}

func (s *RouteStore) Close() error {
	return s.db.Close()
}

func (s *RouteStore) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(routesSchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate route tables: %w", err)
		}
	}
	return nil
}

// SaveRoute inserts or replaces the route of route.Token together with all of
// its hops in a single transaction.
func (s *RouteStore) SaveRoute(ctx context.Context, route types.Route) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	token := route.Token.Hex()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO routes (token_address, exchange_name, router_address, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (token_address) DO UPDATE SET
			exchange_name = excluded.exchange_name,
			router_address = excluded.router_address,
			updated_at = excluded.updated_at`,
		token, route.Exchange.Name, route.Exchange.Router.Hex(), s.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to upsert route %s: %w", token, err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM route_hops WHERE token_address = $1`, token); err != nil {
		return fmt.Errorf("failed to clear hops of %s: %w", token, err)
	}
	for i, hop := range route.Path {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO route_hops (token_address, position, hop_address)
			VALUES ($1, $2, $3)`,
			token, i, hop.Hex())
		if err != nil {
			return fmt.Errorf("failed to insert hop %d of %s: %w", i, token, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit route %s: %w", token, err)
	}
	s.logger.Debug("route saved", zap.String("token", token), zap.Int("hops", route.Path.Hops()))
	return nil
}

// LoadRoutes returns every stored route with its hops in path order.
func (s *RouteStore) LoadRoutes(ctx context.Context) ([]types.Route, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.token_address, r.exchange_name, r.router_address, h.hop_address
		FROM routes r
		JOIN route_hops h ON h.token_address = r.token_address
		ORDER BY r.token_address, h.position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query routes: %w", err)
	}
	defer rows.Close()

	var routes []types.Route
	for rows.Next() {
		var token, name, router, hop string
		if err := rows.Scan(&token, &name, &router, &hop); err != nil {
			return nil, fmt.Errorf("failed to scan route row: %w", err)
		}
		address := common.HexToAddress(token)
		if len(routes) == 0 || routes[len(routes)-1].Token != address {
			routes = append(routes, types.Route{
				Token:    address,
				Exchange: types.ExchangeRef{Name: name, Router: common.HexToAddress(router)},
			})
		}
		last := &routes[len(routes)-1]
		last.Path = append(last.Path, common.HexToAddress(hop))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read routes: %w", err)
	}
	return routes, nil
}

func (s *RouteStore) DeleteRoute(ctx context.Context, token common.Address) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// sqlite does not enforce the cascade unless foreign keys are switched on
	if _, err = tx.ExecContext(ctx, `DELETE FROM route_hops WHERE token_address = $1`, token.Hex()); err != nil {
		return fmt.Errorf("failed to delete hops of %s: %w", token.Hex(), err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM routes WHERE token_address = $1`, token.Hex())
	if err != nil {
		return fmt.Errorf("failed to delete route %s: %w", token.Hex(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRouteNotFound, token.Hex())
	}
	return tx.Commit()
}
