package controller

import (
	"context"
	"encoding/csv"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ougirez/cancensus/internal/domain"
	"github.com/ougirez/cancensus/internal/pkg/logger"
	"github.com/ougirez/cancensus/internal/service/census"
)

type censusRequest struct {
	domain.CensusRequest
	Format string `query:"format"`
}

func (c *Controller) GetCensus(ctx echo.Context) error {
	return c.retrieve(ctx, false)
}

func (c *Controller) GetCensusGeometry(ctx echo.Context) error {
	return c.retrieve(ctx, true)
}

func (c *Controller) retrieve(ctx echo.Context, geometryOnly bool) error {
	var req censusRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	if geometryOnly {
		req.Vectors = nil
		if req.GeoFormat == "" {
			req.GeoFormat = string(domain.GeoFormatGeoJSON)
		}
	}

	params, err := census.NormalizeParams(req.CensusRequest)
	if err != nil {
		return err
	}
	key, err := census.CacheKey(params)
	if err != nil {
		return err
	}
	if params.NoCache {
		key += ":no_cache"
	}

	// callers joining the flight must not fail when the first one goes away
	fetchCtx := context.WithoutCancel(ctx.Request().Context())
	v, err, shared := c.flight.Do(key, func() (any, error) {
		return c.service.Census.Retrieve(fetchCtx, params)
	})
	if err != nil {
		return err
	}
	if shared {
		logger.Debugf(ctx.Request().Context(), "census %s shared with a concurrent request", key)
	}

	table := v.(*domain.Table)
	if req.Format == "csv" {
		return writeCSV(ctx, table)
	}
	return ctx.JSON(http.StatusOK, table)
}

func writeCSV(ctx echo.Context, t *domain.Table) error {
	ctx.Response().Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	ctx.Response().WriteHeader(http.StatusOK)

	w := csv.NewWriter(ctx.Response())
	if err := w.Write(t.ColumnNames()); err != nil {
		return err
	}
	for i := 0; i < t.Rows(); i++ {
		if err := w.Write(t.Row(i)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
