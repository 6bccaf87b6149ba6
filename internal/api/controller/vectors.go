package controller

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ougirez/cancensus/internal/domain"
	"github.com/ougirez/cancensus/internal/pkg/constants"
	"github.com/ougirez/cancensus/internal/service/vectors"
)

type searchVectorsRequest struct {
	Dataset string `param:"dataset"`
	Query   string `query:"q"`
	Type    string `query:"type"`
	Units   string `query:"units"`
	// Words switches to all-words matching.
	Words bool `query:"words"`
}

func (c *Controller) SearchVectors(ctx echo.Context) error {
	var req searchVectorsRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}

	var (
		found []domain.Vector
		err   error
	)
	if req.Words {
		found, err = c.service.Vectors.Find(ctx.Request().Context(), req.Dataset, req.Query)
	} else {
		found, err = c.service.Vectors.Search(ctx.Request().Context(), req.Dataset, vectors.SearchFilter{
			Term:  req.Query,
			Type:  req.Type,
			Units: req.Units,
		})
	}
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, found)
}

// vectorParam returns the vector of the path after checking it belongs to
// the dataset of the path.
func vectorParam(ctx echo.Context) (string, error) {
	vector := strings.TrimSpace(ctx.Param("vector"))
	ds, ok := vectors.DatasetOf(vector)
	if !ok || !strings.EqualFold(ds, ctx.Param("dataset")) {
		return "", fmt.Errorf("%w: %s in %s", constants.ErrUnknownVector, vector, ctx.Param("dataset"))
	}
	return vector, nil
}

func (c *Controller) GetParentVector(ctx echo.Context) error {
	vector, err := vectorParam(ctx)
	if err != nil {
		return err
	}

	parent, err := c.service.Vectors.Parent(ctx.Request().Context(), vector)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, parent)
}

func (c *Controller) GetChildVectors(ctx echo.Context) error {
	vector, err := vectorParam(ctx)
	if err != nil {
		return err
	}

	children, err := c.service.Vectors.Children(ctx.Request().Context(), vector)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, children)
}

func (c *Controller) GetAncestorVectors(ctx echo.Context) error {
	vector, err := vectorParam(ctx)
	if err != nil {
		return err
	}

	ancestors, err := c.service.Vectors.Ancestors(ctx.Request().Context(), vector)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, ancestors)
}

type descendantsRequest struct {
	LeavesOnly bool `query:"leaves_only"`
	MaxDepth   int  `query:"max_depth" validate:"min=0"`
	KeepParent bool `query:"keep_parent"`
}

func (c *Controller) GetDescendantVectors(ctx echo.Context) error {
	vector, err := vectorParam(ctx)
	if err != nil {
		return err
	}

	var req descendantsRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	if err := ctx.Validate(&req); err != nil {
		return err
	}

	descendants, err := c.service.Vectors.Descendants(ctx.Request().Context(), vector, vectors.DescendantOptions{
		LeavesOnly: req.LeavesOnly,
		MaxDepth:   req.MaxDepth,
		KeepParent: req.KeepParent,
	})
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, descendants)
}
