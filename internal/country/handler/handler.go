package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/countryrates/country-service/internal/country"
	"github.com/countryrates/country-service/internal/country/service"
	"github.com/countryrates/country-service/internal/refreshlog"
	"github.com/countryrates/country-service/internal/storage"
	"github.com/countryrates/country-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultRunsLimit = 10

// CountryService is the set of operations the HTTP layer needs.
type CountryService interface {
	Refresh(ctx context.Context) (*service.RefreshResult, error)
	List(ctx context.Context, opts service.ListOptions) ([]country.Country, error)
	Get(ctx context.Context, name string) (*country.Country, error)
	Delete(ctx context.Context, name string) error
	Status(ctx context.Context) (country.Stats, error)
	OpenImage(ctx context.Context) (io.ReadCloser, int64, error)
	RecentRuns(ctx context.Context, limit int) ([]refreshlog.Run, error)
}

func RegisterRoutes(r *gin.Engine, svc CountryService) {
	countries := r.Group("/countries")

	countries.POST("/refresh", func(c *gin.Context) {
		res, err := svc.Refresh(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":          "success",
			"message":         fmt.Sprintf("Refreshed %d countries successfully.", res.TotalCountries),
			"total_countries": res.TotalCountries,
			"run_id":          res.Run.ID,
		})
	})

	countries.GET("", func(c *gin.Context) {
		list, err := svc.List(c.Request.Context(), service.ListOptions{
			Region:   c.Query("region"),
			Currency: c.Query("currency"),
			Sort:     c.Query("sort"),
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	})

	countries.GET("/image", func(c *gin.Context) {
		rc, size, err := svc.OpenImage(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		defer rc.Close()
		c.DataFromReader(http.StatusOK, size, "image/png", rc, map[string]string{
			"Content-Disposition": `attachment; filename="summary.png"`,
		})
	})

	countries.GET("/:name", func(c *gin.Context) {
		ct, err := svc.Get(c.Request.Context(), c.Param("name"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, ct)
	})

	countries.DELETE("/:name", func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), c.Param("name")); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	r.GET("/status", func(c *gin.Context) {
		st, err := svc.Status(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, st)
	})

	r.GET("/status/refreshes", func(c *gin.Context) {
		limit := defaultRunsLimit
		if v := c.Query("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				writeError(c, &country.ValidationError{Field: "limit", Message: "must be a positive integer"})
				return
			}
			limit = n
		}
		runs, err := svc.RecentRuns(c.Request.Context(), limit)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, runs)
	})
}

var notFound = []error{
	country.ErrNotFound,
	country.ErrNoData,
	storage.ErrImageNotFound,
	service.ErrNoRuns,
}

func writeError(c *gin.Context, err error) {
	var verr *country.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": verr.Details()})
		return
	}
	for _, nf := range notFound {
		if errors.Is(err, nf) {
			c.JSON(http.StatusNotFound, gin.H{"detail": nf.Error()})
			return
		}
	}
	logger.L().Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
}
