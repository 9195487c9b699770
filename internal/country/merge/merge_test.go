package merge

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func raws(entries ...string) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(entries))
	for _, e := range entries {
		out = append(out, json.RawMessage(e))
	}
	return out
}

func TestMergeWakanda(t *testing.T) {
	m := New(Fixed(1500))
	res := m.Merge(raws(`{"name":"Wakanda","population":1000000,"currencies":[{"code":"wkd"}]}`),
		map[string]float64{"WKD": 2.0})

	require.Len(t, res.Countries, 1)
	c := res.Countries[0]
	require.Equal(t, "Wakanda", c.Name)
	require.Equal(t, int64(1000000), c.Population)
	require.NotNil(t, c.CurrencyCode)
	require.Equal(t, "WKD", *c.CurrencyCode)
	require.NotNil(t, c.ExchangeRate)
	require.Equal(t, 2.0, *c.ExchangeRate)
	require.Equal(t, 750000000.0, c.EstimatedGDP)
}

func TestMergeWithoutCurrencies(t *testing.T) {
	m := New(Fixed(1500))
	res := m.Merge(raws(`{"name":"Wakanda","population":1000000}`), map[string]float64{"WKD": 2.0})

	require.Len(t, res.Countries, 1)
	c := res.Countries[0]
	require.Nil(t, c.CurrencyCode)
	require.Nil(t, c.ExchangeRate)
	require.Zero(t, c.EstimatedGDP)
}

func TestMergeStubs(t *testing.T) {
	rates := map[string]float64{"NGN": 1600.5, "EUR": 0.9}
	m := New(Fixed(1000))

	res := m.Merge(raws(
		`{"name":"Nigeria","capital":"Abuja","region":"Africa","population":0,"currencies":[{"code":"NGN"}]}`,
		`{"name":"Nowhere","population":10,"currencies":[{"code":null}]}`,
		`{"name":"Emptyland","population":10,"currencies":[{}]}`,
		`{"name":"Unknownia","population":10,"currencies":[{"code":"xyz"}]}`,
		`{"name":"Nullpop","population":null,"currencies":[{"code":"EUR"}]}`,
	), rates)

	require.Zero(t, res.Skipped)
	require.Len(t, res.Countries, 5)
	for _, c := range res.Countries {
		require.Zero(t, c.EstimatedGDP, c.Name)
	}

	nigeria := res.Countries[0]
	require.Equal(t, "Abuja", *nigeria.Capital)
	require.Equal(t, "NGN", *nigeria.CurrencyCode)
	require.Equal(t, 1600.5, *nigeria.ExchangeRate)

	require.Nil(t, res.Countries[1].CurrencyCode)
	require.Nil(t, res.Countries[2].CurrencyCode)

	unknown := res.Countries[3]
	require.Equal(t, "XYZ", *unknown.CurrencyCode)
	require.Nil(t, unknown.ExchangeRate)

	require.Equal(t, int64(0), res.Countries[4].Population)
}

func TestMergeSkipsBadEntries(t *testing.T) {
	m := New(Fixed(1000))
	res := m.Merge(raws(
		`{"capital":"Nameless"}`,
		`{"name":"   "}`,
		`"not an object"`,
		`{"name":"Zeroland","population":5,"currencies":[{"code":"ZRO"}]}`,
		`{"name":"Goodland","population":5,"currencies":[{"code":"GBP"}]}`,
	), map[string]float64{"ZRO": 0, "GBP": 0.5})

	require.Equal(t, 4, res.Skipped)
	require.Len(t, res.Countries, 1)
	require.Equal(t, "Goodland", res.Countries[0].Name)
	require.Equal(t, 10000.0, res.Countries[0].EstimatedGDP)
}

func TestMergePopulationEdgeCases(t *testing.T) {
	m := New(Fixed(1000))
	res := m.Merge(raws(
		`{"name":"Negative","population":-5,"currencies":[{"code":"USD"}]}`,
		`{"name":"Fraction","population":12.9,"currencies":[{"code":"USD"}]}`,
	), map[string]float64{"USD": 1})

	require.Len(t, res.Countries, 2)
	require.Equal(t, int64(0), res.Countries[0].Population)
	require.Zero(t, res.Countries[0].EstimatedGDP)
	require.Equal(t, int64(12), res.Countries[1].Population)
	require.Equal(t, 12000.0, res.Countries[1].EstimatedGDP)
}

func TestMergeOutOfRangePopulation(t *testing.T) {
	m := New(Fixed(1000))
	res := m.Merge(raws(
		`{"name":"Huge","population":99999999999999999999,"currencies":[{"code":"USD"}]}`,
		`{"name":"Exponent","population":1e30,"currencies":[{"code":"USD"}]}`,
	), map[string]float64{"USD": 1})

	require.Zero(t, res.Skipped)
	require.Len(t, res.Countries, 2)
	for _, c := range res.Countries {
		require.Equal(t, int64(0), c.Population, c.Name)
		require.Zero(t, c.EstimatedGDP, c.Name)
	}
}

func TestMergeSkipsOverflowingGDP(t *testing.T) {
	m := New(Fixed(2000))
	res := m.Merge(raws(
		`{"name":"Tiny","population":1000000000,"currencies":[{"code":"TNY"}]}`,
		`{"name":"Fine","population":10,"currencies":[{"code":"USD"}]}`,
	), map[string]float64{"TNY": 1e-300, "USD": 2})

	require.Equal(t, 1, res.Skipped)
	require.Len(t, res.Countries, 1)
	require.Equal(t, "Fine", res.Countries[0].Name)
	require.Equal(t, 10000.0, res.Countries[0].EstimatedGDP)
}

func TestEstimateGDPRoundsToOneDecimal(t *testing.T) {
	v, ok := EstimateGDP(1, 1000, 3)
	require.True(t, ok)
	require.Equal(t, 333.3, v)
	v, ok = EstimateGDP(2, 1000, 3)
	require.True(t, ok)
	require.Equal(t, 666.7, v)

	_, ok = EstimateGDP(1000000000, 2000, 1e-300)
	require.False(t, ok)
}

func TestUniformStaysInRange(t *testing.T) {
	u := NewUniform(1000, 2000)
	for i := 0; i < 500; i++ {
		v := u.Sample()
		require.GreaterOrEqual(t, v, 1000.0)
		require.Less(t, v, 2000.0)
	}
	require.Equal(t, 1500.0, NewUniform(1500, 1500).Sample())
}
