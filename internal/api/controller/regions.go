package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/paulmach/orb/geojson"

	"github.com/ougirez/cancensus/internal/domain"
)

type searchRegionsRequest struct {
	Dataset string `param:"dataset"`
	Query   string `query:"q"`
	Level   string `query:"level"`
	domain.FetchOptions
}

func (c *Controller) SearchRegions(ctx echo.Context) error {
	var req searchRegionsRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}

	regions, err := c.service.Regions.SearchRegions(ctx.Request().Context(), req.Query, req.Dataset, req.Level, req.FetchOptions)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, regions)
}

type intersectingRequest struct {
	Dataset  string            `param:"dataset"`
	Level    string            `json:"level" validate:"required"`
	Geometry *geojson.Geometry `json:"geometry" validate:"required"`
	NoCache  bool              `json:"no_cache"`
}

func (c *Controller) IntersectingGeometries(ctx echo.Context) error {
	var req intersectingRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	if err := ctx.Validate(&req); err != nil {
		return err
	}

	sel, err := c.service.Regions.IntersectingGeometries(ctx.Request().Context(), req.Dataset, req.Level,
		req.Geometry.Geometry(), domain.FetchOptions{NoCache: req.NoCache, Quiet: true})
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, sel)
}
