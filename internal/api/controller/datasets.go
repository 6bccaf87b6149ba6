package controller

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ougirez/cancensus/internal/domain"
	"github.com/ougirez/cancensus/internal/pkg/constants"
)

func (c *Controller) ListDatasets(ctx echo.Context) error {
	var opts domain.FetchOptions
	if err := ctx.Bind(&opts); err != nil {
		return err
	}

	datasets, err := c.service.Datasets.ListDatasets(ctx.Request().Context(), opts)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, datasets)
}

func (c *Controller) GetAttribution(ctx echo.Context) error {
	codes := splitList(ctx.QueryParams()["dataset"])
	if len(codes) == 0 {
		return fmt.Errorf("%w: dataset is required", constants.ErrInvalidParameter)
	}

	attribution, err := c.service.Datasets.Attribution(ctx.Request().Context(), codes)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, map[string][]string{"attribution": attribution})
}
