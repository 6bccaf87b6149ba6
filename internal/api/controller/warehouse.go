package controller

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ougirez/cancensus/internal/domain"
	"github.com/ougirez/cancensus/internal/pkg/constants"
	"github.com/ougirez/cancensus/internal/pkg/store"
)

type exportRequest struct {
	Requests []domain.CensusRequest `json:"requests"`
}

func (c *Controller) ExportCensus(ctx echo.Context) error {
	var req exportRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}

	results, err := c.service.Export.ExportCensus(ctx.Request().Context(), req.Requests)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, results)
}

func (c *Controller) ListWarehouseRegions(ctx echo.Context) error {
	regions, err := c.service.Export.ListRegions(ctx.Request().Context(), ctx.Param("dataset"))
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, regions)
}

func (c *Controller) GetWarehouseRegion(ctx echo.Context) error {
	region, err := c.service.Export.GetRegion(ctx.Request().Context(), ctx.Param("dataset"), ctx.Param("geo_uid"))
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, region)
}

func (c *Controller) ListWarehouseValues(ctx echo.Context) error {
	opts := store.ListValuesOpts{
		Dataset: ctx.Param("dataset"),
		Vector:  ctx.Param("vector"),
		GeoUIDs: splitList(ctx.QueryParams()["geo_uid"]),
	}
	if opts.Vector == "" {
		return fmt.Errorf("%w: vector is required", constants.ErrInvalidParameter)
	}

	values, err := c.service.Export.ListValues(ctx.Request().Context(), opts)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, values)
}
