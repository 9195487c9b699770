package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/countryrates/country-service/internal/country"
	"github.com/countryrates/country-service/internal/country/merge"
	"github.com/countryrates/country-service/internal/country/repository"
	"github.com/countryrates/country-service/internal/refreshlog"
	"github.com/countryrates/country-service/internal/storage"
	"github.com/countryrates/country-service/internal/summary"
	"github.com/countryrates/country-service/pkg/logger"
	"github.com/countryrates/country-service/pkg/metrics"
	"go.uber.org/zap"
)

var (
	ErrNoMergedData = errors.New("merge produced no countries")
	ErrNoRuns       = errors.New("No refresh runs recorded")
)

const SortGDPDesc = "gdp_desc"

// Fetcher pulls the upstream datasets. Failures surface as empty results.
type Fetcher interface {
	FetchCountries(ctx context.Context) []json.RawMessage
	FetchRates(ctx context.Context) map[string]float64
}

// Renderer draws the summary image.
type Renderer interface {
	Render(ctx context.Context, countries []country.Country) ([]byte, summary.Report, error)
}

// Deps wires a Service. Runs may be nil to disable the journal.
type Deps struct {
	Repo     repository.Repository
	Fetcher  Fetcher
	Merger   *merge.Merger
	Renderer Renderer
	Images   storage.ImageStore
	Runs     refreshlog.Repository
	Now      func() time.Time
}

type Service struct {
	repo     repository.Repository
	fetcher  Fetcher
	merger   *merge.Merger
	renderer Renderer
	images   storage.ImageStore
	runs     refreshlog.Repository
	now      func() time.Time
}

func New(d Deps) *Service {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:     d.Repo,
		fetcher:  d.Fetcher,
		merger:   d.Merger,
		renderer: d.Renderer,
		images:   d.Images,
		runs:     d.Runs,
		now:      now,
	}
}

// ListOptions selects one read path. Precedence: Region, then Currency,
// then Sort, then the plain name-ordered list.
type ListOptions struct {
	Region   string
	Currency string
	Sort     string
}

// RefreshResult is returned by a successful refresh.
type RefreshResult struct {
	Run            *refreshlog.Run
	TotalCountries int
}

// Refresh fetches both upstreams, merges, upserts every record, re-reads the
// table and renders the summary image. Image failures do not fail the refresh.
func (s *Service) Refresh(ctx context.Context) (*RefreshResult, error) {
	start := s.now()
	run := refreshlog.NewRun(start)

	total, err := s.refresh(ctx, run)
	run.Finish(s.now(), err)
	s.record(ctx, run)

	metrics.RefreshDuration.Observe(s.now().Sub(start).Seconds())
	if err != nil {
		metrics.RefreshRuns.WithLabelValues(refreshlog.StatusFailed).Inc()
		logger.L().Error("refresh failed", zap.String("run", run.ID), zap.Error(err))
		return nil, err
	}
	metrics.RefreshRuns.WithLabelValues(refreshlog.StatusSuccess).Inc()
	logger.L().Info("refresh complete", zap.String("run", run.ID), zap.Int("countries", total))
	return &RefreshResult{Run: run, TotalCountries: total}, nil
}

func (s *Service) refresh(ctx context.Context, run *refreshlog.Run) (int, error) {
	// upstream calls are bounded by their own timeout, not by the inbound request
	fctx := context.WithoutCancel(ctx)
	raw := s.fetcher.FetchCountries(fctx)
	rates := s.fetcher.FetchRates(fctx)
	run.CountriesFetched = len(raw)
	run.RatesFetched = len(rates)

	res := s.merger.Merge(raw, rates)
	run.Merged = len(res.Countries)
	run.Skipped = res.Skipped
	if len(res.Countries) == 0 {
		return 0, ErrNoMergedData
	}

	stamp := s.now().UTC()
	for i := range res.Countries {
		c := &res.Countries[i]
		c.LastRefreshedAt = stamp
		if err := s.repo.Upsert(ctx, c); err != nil {
			return 0, err
		}
	}

	all, err := s.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("re-read countries: %w", err)
	}
	run.Stored = int64(len(all))
	metrics.CountriesStored.Set(float64(len(all)))

	if err := s.renderSummary(ctx, all); err != nil {
		run.ImageError = err.Error()
		logger.L().Warn("summary image not updated", zap.String("run", run.ID), zap.Error(err))
	} else {
		run.ImageGenerated = true
	}
	return len(all), nil
}

func (s *Service) renderSummary(ctx context.Context, all []country.Country) error {
	png, rep, err := s.renderer.Render(ctx, all)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := s.images.Save(ctx, png); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	logger.L().Debug("summary image saved", zap.Int("flags_drawn", rep.FlagsDrawn), zap.Int("flags_failed", rep.FlagsFailed))
	return nil
}

func (s *Service) record(ctx context.Context, run *refreshlog.Run) {
	if s.runs == nil {
		return
	}
	if err := s.runs.Append(context.WithoutCancel(ctx), run); err != nil {
		logger.L().Warn("could not record refresh run", zap.String("run", run.ID), zap.Error(err))
	}
}

// List returns the countries selected by opts, or country.ErrNotFound when empty.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]country.Country, error) {
	var (
		out []country.Country
		err error
	)
	switch {
	case strings.TrimSpace(opts.Region) != "":
		out, err = s.repo.ListByRegion(ctx, country.NormalizeRegion(opts.Region))
	case strings.TrimSpace(opts.Currency) != "":
		out, err = s.repo.ListByCurrency(ctx, country.NormalizeCurrency(opts.Currency))
	case strings.EqualFold(strings.TrimSpace(opts.Sort), SortGDPDesc):
		out, err = s.repo.ListByGDPDesc(ctx)
	default:
		out, err = s.repo.List(ctx)
	}
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, country.ErrNotFound
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, name string) (*country.Country, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &country.ValidationError{Field: "name", Message: "is required"}
	}
	return s.repo.Get(ctx, name)
}

func (s *Service) Delete(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return &country.ValidationError{Field: "name", Message: "is required"}
	}
	removed, err := s.repo.Delete(ctx, name)
	if err != nil {
		return err
	}
	if !removed {
		return country.ErrNotFound
	}
	return nil
}

// Status returns the row count and latest refresh time, or country.ErrNoData.
func (s *Service) Status(ctx context.Context) (country.Stats, error) {
	st, err := s.repo.Stats(ctx)
	if err != nil {
		return country.Stats{}, err
	}
	if st.Total == 0 {
		return country.Stats{}, country.ErrNoData
	}
	if st.LastRefreshedAt != nil {
		t := st.LastRefreshedAt.UTC()
		st.LastRefreshedAt = &t
	}
	return st, nil
}

// OpenImage returns the last rendered summary, or storage.ErrImageNotFound.
func (s *Service) OpenImage(ctx context.Context) (io.ReadCloser, int64, error) {
	return s.images.Open(ctx)
}

// RecentRuns returns up to limit journal entries, newest first, or ErrNoRuns.
func (s *Service) RecentRuns(ctx context.Context, limit int) ([]refreshlog.Run, error) {
	if s.runs == nil {
		return nil, ErrNoRuns
	}
	runs, err := s.runs.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, ErrNoRuns
	}
	return runs, nil
}
