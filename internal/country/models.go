package country

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	ErrNotFound = errors.New("Country not found")
	ErrNoData   = errors.New("No data found")
)

// Country is the persisted, merged record for one country. It is keyed by Name.
type Country struct {
	Name            string    `json:"name" db:"name" bson:"_id"`
	Capital         *string   `json:"capital" db:"capital" bson:"capital"`
	Region          *string   `json:"region" db:"region" bson:"region"`
	Population      int64     `json:"population" db:"population" bson:"population"`
	CurrencyCode    *string   `json:"currency_code" db:"currency_code" bson:"currency_code"`
	ExchangeRate    *float64  `json:"exchange_rate" db:"exchange_rate" bson:"exchange_rate"`
	EstimatedGDP    float64   `json:"estimated_gdp" db:"estimated_gdp" bson:"estimated_gdp"`
	FlagURL         *string   `json:"flag_url" db:"flag_url" bson:"flag_url"`
	LastRefreshedAt time.Time `json:"last_refreshed_at" db:"last_refreshed_at" bson:"last_refreshed_at"`
}

// Stats summarizes the countries table.
type Stats struct {
	Total           int64      `json:"total_countries" db:"total"`
	LastRefreshedAt *time.Time `json:"last_refreshed_at" db:"last_refreshed_at"`
}

// ValidationError reports a request field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Field + " " + e.Message
}

// Details returns the field map rendered in 400 responses.
func (e *ValidationError) Details() map[string]string {
	return map[string]string{e.Field: e.Message}
}

// NormalizeRegion maps a region filter onto the stored form ("asia" -> "Asia").
// A Caser is stateful, so one is built per call.
func NormalizeRegion(region string) string {
	return cases.Title(language.Und).String(strings.TrimSpace(region))
}

// NormalizeCurrency maps a currency filter onto the stored form ("ngn" -> "NGN").
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// Float64Ptr returns a pointer to f.
func Float64Ptr(f float64) *float64 { return &f }
