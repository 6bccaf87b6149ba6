package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (c *Controller) ListCache(ctx echo.Context) error {
	entries, err := c.service.ListCache(ctx.Request().Context())
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, entries)
}

func (c *Controller) RemoveCache(ctx echo.Context) error {
	if err := c.service.RemoveCache(ctx.Request().Context(), ctx.Param("key")); err != nil {
		return err
	}

	return ctx.NoContent(http.StatusNoContent)
}

func (c *Controller) ClearCache(ctx echo.Context) error {
	removed, err := c.service.ClearCache(ctx.Request().Context())
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, map[string]int{"removed": removed})
}
