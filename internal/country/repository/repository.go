package repository

import (
	"context"

	"github.com/countryrates/country-service/internal/country"
)

// Repository persists merged country records keyed by name.
// Region and currency arguments are expected already normalized.
type Repository interface {
	// Upsert inserts c or overwrites every non-key column of the row with the same name.
	Upsert(ctx context.Context, c *country.Country) error
	List(ctx context.Context) ([]country.Country, error)
	ListByRegion(ctx context.Context, region string) ([]country.Country, error)
	ListByCurrency(ctx context.Context, code string) ([]country.Country, error)
	ListByGDPDesc(ctx context.Context) ([]country.Country, error)
	Get(ctx context.Context, name string) (*country.Country, error)
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, name string) (bool, error)
	Stats(ctx context.Context) (country.Stats, error)
}
