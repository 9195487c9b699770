package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/countryrates/country-service/internal/country"
	"github.com/jmoiron/sqlx"
)

const tableCountries = "countries"

var countryColumns = []string{
	"name", "capital", "region", "population", "currency_code",
	"exchange_rate", "estimated_gdp", "flag_url", "last_refreshed_at",
}

const upsertSuffix = `ON CONFLICT (name) DO UPDATE SET
	capital = excluded.capital,
	region = excluded.region,
	population = excluded.population,
	currency_code = excluded.currency_code,
	exchange_rate = excluded.exchange_rate,
	estimated_gdp = excluded.estimated_gdp,
	flag_url = excluded.flag_url,
	last_refreshed_at = excluded.last_refreshed_at`

var mapping = map[error]error{sql.ErrNoRows: country.ErrNotFound}

func wrapErr(err error) error {
	for k, v := range mapping {
		if errors.Is(err, k) {
			return v
		}
	}
	return err
}

// builder returns a squirrel statement builder using Postgres placeholders.
func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// PostgresRepo stores countries in the relational countries table.
type PostgresRepo struct {
	db *sqlx.DB
}

func NewPostgresRepo(db *sqlx.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (p *PostgresRepo) Upsert(ctx context.Context, c *country.Country) error {
	if c.LastRefreshedAt.IsZero() {
		c.LastRefreshedAt = time.Now().UTC()
	}
	query, args, err := builder().Insert(tableCountries).
		Columns(countryColumns...).
		Values(c.Name, c.Capital, c.Region, c.Population, c.CurrencyCode,
			c.ExchangeRate, c.EstimatedGDP, c.FlagURL, c.LastRefreshedAt).
		Suffix(upsertSuffix).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert %q: %w", c.Name, err)
	}
	return nil
}

func (p *PostgresRepo) List(ctx context.Context) ([]country.Country, error) {
	return p.selectMany(ctx, selectCountries().OrderBy("name ASC"))
}

func (p *PostgresRepo) ListByRegion(ctx context.Context, region string) ([]country.Country, error) {
	return p.selectMany(ctx, selectCountries().Where(squirrel.Eq{"region": region}).OrderBy("name ASC"))
}

func (p *PostgresRepo) ListByCurrency(ctx context.Context, code string) ([]country.Country, error) {
	return p.selectMany(ctx, selectCountries().Where(squirrel.Eq{"currency_code": code}).OrderBy("name ASC"))
}

func (p *PostgresRepo) ListByGDPDesc(ctx context.Context) ([]country.Country, error) {
	return p.selectMany(ctx, selectCountries().OrderBy("estimated_gdp DESC", "name ASC"))
}

func (p *PostgresRepo) Get(ctx context.Context, name string) (*country.Country, error) {
	query, args, err := selectCountries().Where(squirrel.Eq{"name": name}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get: %w", err)
	}
	var c country.Country
	if err := p.db.GetContext(ctx, &c, query, args...); err != nil {
		return nil, wrapErr(err)
	}
	return &c, nil
}

func (p *PostgresRepo) Delete(ctx context.Context, name string) (bool, error) {
	query, args, err := builder().Delete(tableCountries).Where(squirrel.Eq{"name": name}).ToSql()
	if err != nil {
		return false, fmt.Errorf("build delete: %w", err)
	}
	res, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (p *PostgresRepo) Stats(ctx context.Context) (country.Stats, error) {
	query, args, err := builder().
		Select("COUNT(*) AS total", "MAX(last_refreshed_at) AS last_refreshed_at").
		From(tableCountries).
		ToSql()
	if err != nil {
		return country.Stats{}, fmt.Errorf("build stats: %w", err)
	}
	var st country.Stats
	if err := p.db.GetContext(ctx, &st, query, args...); err != nil {
		return country.Stats{}, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}

func selectCountries() squirrel.SelectBuilder {
	return builder().Select(countryColumns...).From(tableCountries)
}

func (p *PostgresRepo) selectMany(ctx context.Context, q squirrel.SelectBuilder) ([]country.Country, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}
	out := []country.Country{}
	if err := p.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("select countries: %w", err)
	}
	return out, nil
}
