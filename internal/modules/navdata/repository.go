// Package navdata provides the raw data collaborators of the statistics engine: a SQLite NAV
// store, externally supplied tables (CSV, optionally from S3), a fetch cache and the
// risk-free index selector.
package navdata

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aristath/navstats/internal/database"
	"github.com/aristath/navstats/internal/domain"
	"github.com/rs/zerolog"
)

// Repository reads and writes observations and hedge costs in the NAV database
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new NAV repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("component", "navdata_repository").Logger(),
	}
}

// FetchSeries returns the entity's observations in [from, to], ascending.
// An entity without any stored observation yields domain.ErrUnknownEntity.
func (r *Repository) FetchSeries(ctx context.Context, entityID string, from, to time.Time) ([]domain.Observation, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM observations WHERE entity_id = ?", entityID).Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("failed to check observations for %s: %w", entityID, err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%s: %w", entityID, domain.ErrUnknownEntity)
	}

	query := `
		SELECT date, value
		FROM observations
		WHERE entity_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`
	rows, err := r.db.QueryContext(ctx, query, entityID, domain.Day(from).Unix(), domain.Day(to).Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	obs, err := scanObservations(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to read observations for %s: %w", entityID, err)
	}

	r.log.Debug().
		Str("entity", entityID).
		Int("count", len(obs)).
		Msg("Fetched observations")
	return obs, nil
}

// FetchHedgeCost returns the pair's annualized hedge costs (percent) starting with the latest
// quote on or before start, ascending. A pair without quotes returns an empty slice.
func (r *Repository) FetchHedgeCost(ctx context.Context, fromCurrency, toCurrency domain.Currency, start time.Time) ([]domain.Observation, error) {
	startUnix := domain.Day(start).Unix()
	query := `
		SELECT date, cost_pct
		FROM hedge_costs
		WHERE from_currency = ? AND to_currency = ?
		  AND date >= COALESCE(
			(SELECT MAX(date) FROM hedge_costs
			 WHERE from_currency = ? AND to_currency = ? AND date <= ?), ?)
		ORDER BY date ASC
	`
	rows, err := r.db.QueryContext(ctx, query,
		string(fromCurrency), string(toCurrency),
		string(fromCurrency), string(toCurrency), startUnix, startUnix)
	if err != nil {
		return nil, fmt.Errorf("failed to query hedge costs: %w", err)
	}
	defer rows.Close()

	obs, err := scanObservations(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to read hedge costs %s/%s: %w", fromCurrency, toCurrency, err)
	}
	return obs, nil
}

// SaveObservations upserts observations for an entity in a single transaction
func (r *Repository) SaveObservations(entityID string, obs []domain.Observation) error {
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT OR REPLACE INTO observations (entity_id, date, value)
			VALUES (?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, o := range obs {
			if _, err := stmt.Exec(entityID, domain.Day(o.Date).Unix(), o.Value); err != nil {
				return fmt.Errorf("failed to insert observation for %s: %w", o.Date.Format(time.DateOnly), err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.Info().
		Str("entity", entityID).
		Int("count", len(obs)).
		Msg("Saved observations")
	return nil
}

// SaveHedgeCosts upserts annualized hedge costs (percent) for a currency pair in a single transaction
func (r *Repository) SaveHedgeCosts(fromCurrency, toCurrency domain.Currency, costs []domain.Observation) error {
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT OR REPLACE INTO hedge_costs (from_currency, to_currency, date, cost_pct)
			VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, c := range costs {
			if _, err := stmt.Exec(string(fromCurrency), string(toCurrency), domain.Day(c.Date).Unix(), c.Value); err != nil {
				return fmt.Errorf("failed to insert hedge cost for %s: %w", c.Date.Format(time.DateOnly), err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.Info().
		Str("pair", string(fromCurrency)+"/"+string(toCurrency)).
		Int("count", len(costs)).
		Msg("Saved hedge costs")
	return nil
}

// Entities lists every entity with stored observations
func (r *Repository) Entities(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT DISTINCT entity_id FROM observations ORDER BY entity_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entities: %w", err)
	}
	return ids, nil
}

func scanObservations(rows *sql.Rows) ([]domain.Observation, error) {
	var obs []domain.Observation
	for rows.Next() {
		var dateUnix int64
		var value float64
		if err := rows.Scan(&dateUnix, &value); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		obs = append(obs, domain.Observation{Date: time.Unix(dateUnix, 0).UTC(), Value: value})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return obs, nil
}
