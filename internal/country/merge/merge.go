package merge

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/countryrates/country-service/internal/country"
	"github.com/countryrates/country-service/pkg/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// rawCountry is one entry of the restcountries v2 payload.
type rawCountry struct {
	Name       string        `json:"name"`
	Capital    *string       `json:"capital"`
	Region     *string       `json:"region"`
	Population json.Number   `json:"population"`
	Flag       *string       `json:"flag"`
	Currencies []rawCurrency `json:"currencies"`
}

type rawCurrency struct {
	Code *string `json:"code"`
}

// Result is the outcome of one merge pass.
type Result struct {
	Countries []country.Country
	// Skipped counts entries dropped entirely (no name, undecodable, unusable rate or GDP).
	Skipped int
}

type Merger struct {
	multiplier MultiplierSource
}

func New(multiplier MultiplierSource) *Merger {
	return &Merger{multiplier: multiplier}
}

// Merge joins raw country entries with USD exchange rates keyed by uppercase
// currency code. Every named country yields a record; entries missing a
// population, currency or rate are emitted as stubs with zero GDP.
func (m *Merger) Merge(raw []json.RawMessage, rates map[string]float64) Result {
	log := logger.L()
	res := Result{Countries: make([]country.Country, 0, len(raw))}

	for i, entry := range raw {
		var rc rawCountry
		if err := json.Unmarshal(entry, &rc); err != nil {
			log.Warn("skipping undecodable country entry", zap.Int("index", i), zap.Error(err))
			res.Skipped++
			continue
		}
		name := strings.TrimSpace(rc.Name)
		if name == "" {
			log.Warn("skipping country with missing name", zap.Int("index", i))
			res.Skipped++
			continue
		}

		c := country.Country{
			Name:    name,
			Capital: rc.Capital,
			Region:  rc.Region,
			FlagURL: rc.Flag,
		}
		c.Population = population(name, rc.Population)

		code := currencyCode(rc.Currencies)
		if code == "" {
			if len(rc.Currencies) > 0 {
				log.Warn("country has no valid currency code", zap.String("country", name))
			}
			res.Countries = append(res.Countries, c)
			continue
		}
		c.CurrencyCode = country.StringPtr(code)

		rate, ok := rates[code]
		if !ok {
			res.Countries = append(res.Countries, c)
			continue
		}
		if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
			log.Warn("skipping country with unusable exchange rate", zap.String("country", name), zap.Float64("rate", rate))
			res.Skipped++
			continue
		}
		if c.Population > 0 {
			gdp, ok := EstimateGDP(c.Population, m.multiplier.Sample(), rate)
			if !ok {
				log.Warn("skipping country with out-of-range GDP estimate", zap.String("country", name), zap.Float64("rate", rate))
				res.Skipped++
				continue
			}
			c.EstimatedGDP = gdp
		}
		c.ExchangeRate = country.Float64Ptr(rate)
		res.Countries = append(res.Countries, c)
	}

	logger.Infof("merged %d countries, skipped %d", len(res.Countries), res.Skipped)
	return res
}

// EstimateGDP computes population * multiplier / rate rounded to one decimal.
// It reports false when the quotient is not a finite number.
func EstimateGDP(population int64, multiplier, rate float64) (float64, bool) {
	v := float64(population) * multiplier / rate
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return decimal.NewFromFloat(v).Round(1).InexactFloat64(), true
}

func population(name string, n json.Number) int64 {
	if n == "" {
		logger.L().Warn("missing population, GDP set to 0", zap.String("country", name))
		return 0
	}
	v, err := n.Int64()
	if err != nil {
		f, ferr := n.Float64()
		if ferr != nil || math.IsNaN(f) || f >= math.MaxInt64 || f < math.MinInt64 {
			logger.L().Warn("unreadable population, GDP set to 0", zap.String("country", name), zap.String("population", n.String()))
			return 0
		}
		v = int64(f)
	}
	if v < 0 {
		logger.L().Warn("negative population treated as 0", zap.String("country", name), zap.Int64("population", v))
		return 0
	}
	return v
}

// currencyCode returns the uppercased code of the first listed currency, or "".
func currencyCode(currencies []rawCurrency) string {
	if len(currencies) == 0 || currencies[0].Code == nil {
		return ""
	}
	return country.NormalizeCurrency(*currencies[0].Code)
}
