package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/countryrates/country-service/internal/country/merge"
	"github.com/countryrates/country-service/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestFetchSuccess(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/countries", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"name":"Ghana","population":31072940,"currencies":[{"code":"GHS"}]},{"name":"Togo"}]`))
	})
	mux.HandleFunc("/rates", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":"success","rates":{"usd":1,"GHS":15.3,"BAD":"x"}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL+"/countries", srv.URL+"/rates", time.Second)

	countries := c.FetchCountries(context.Background())
	require.Len(t, countries, 2)

	rates := c.FetchRates(context.Background())
	require.Equal(t, map[string]float64{"USD": 1, "GHS": 15.3}, rates)
}

func TestNullRateMergesAsStub(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/countries", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name":"Xyzland","population":1000,"currencies":[{"code":"XYZ"}]}]`))
	})
	mux.HandleFunc("/rates", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rates":{"XYZ":null,"USD":1}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL+"/countries", srv.URL+"/rates", time.Second)
	rates := c.FetchRates(context.Background())
	require.NotContains(t, rates, "XYZ")
	require.Equal(t, 1.0, rates["USD"])

	res := merge.New(merge.Fixed(2000)).Merge(c.FetchCountries(context.Background()), rates)
	require.Zero(t, res.Skipped)
	require.Len(t, res.Countries, 1)
	got := res.Countries[0]
	require.Equal(t, "Xyzland", got.Name)
	require.Equal(t, "XYZ", *got.CurrencyCode)
	require.Nil(t, got.ExchangeRate)
	require.Zero(t, got.EstimatedGDP)
}

func TestFetchFailuresDegradeToEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			w.Write([]byte(`{not json`))
			return
		}
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	beforeCountries := testutil.ToFloat64(metrics.UpstreamFailures.WithLabelValues(SourceCountries))
	beforeRates := testutil.ToFloat64(metrics.UpstreamFailures.WithLabelValues(SourceRates))

	c := New(srv.URL+"/down", srv.URL+"/broken", time.Second)
	require.Empty(t, c.FetchCountries(context.Background()))
	rates := c.FetchRates(context.Background())
	require.NotNil(t, rates)
	require.Empty(t, rates)

	require.Equal(t, beforeCountries+1, testutil.ToFloat64(metrics.UpstreamFailures.WithLabelValues(SourceCountries)))
	require.Equal(t, beforeRates+1, testutil.ToFloat64(metrics.UpstreamFailures.WithLabelValues(SourceRates)))
}

func TestFetchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New(srv.URL, srv.URL, 50*time.Millisecond)
	require.Nil(t, c.FetchCountries(context.Background()))
}

func TestFetchUnreachable(t *testing.T) {
	c := New("http://127.0.0.1:1/countries", "http://127.0.0.1:1/rates", time.Second)
	require.Nil(t, c.FetchCountries(context.Background()))
	require.Empty(t, c.FetchRates(context.Background()))
}
