// Package postgres implements the repository contracts over pgx.
package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/finrisk/internal/contracts"
)

const uniqueViolation = "23505"

// defaultListLimit applies when a filter leaves Limit at 0
const defaultListLimit = 100

// Store groups every repository over one pool
type Store struct {
	Companies *CompanyRepository
	Metrics   *MetricRepository
	Alerts    *AlertRepository
	Analyses  *AnalysisRepository
	Stats     *StatsRepository
}

// NewStore creates all repositories over pool
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		Companies: NewCompanyRepository(pool),
		Metrics:   NewMetricRepository(pool),
		Alerts:    NewAlertRepository(pool),
		Analyses:  NewAnalysisRepository(pool),
		Stats:     NewStatsRepository(pool),
	}
}

// notFound maps pgx.ErrNoRows to contracts.ErrNotFound
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return contracts.ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// where accumulates AND-ed conditions with positional args
type where struct {
	conds []string
	args  []interface{}
}

// add appends a condition; "?" is replaced with the next $n placeholder
func (w *where) add(cond string, arg interface{}) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(w.args))))
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// page appends LIMIT/OFFSET placeholders
func (w *where) page(offset, limit int) string {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	w.args = append(w.args, limit, offset)
	n := len(w.args)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", n-1, n)
}
