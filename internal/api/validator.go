package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/ougirez/cancensus/internal/pkg/constants"
	"github.com/ougirez/cancensus/internal/pkg/validation"
)

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validate: validation.Engine()}
}

func (v *Validator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q", constants.ErrInvalidParameter, strings.ToLower(fe.Field()), fe.Tag())
		}
		return fmt.Errorf("%w: %s", constants.ErrInvalidParameter, err.Error())
	}
	return nil
}

// Binder is echo's default binder with its errors turned into
// ErrInvalidParameter.
type Binder struct {
	echo.DefaultBinder
}

func NewBinder() *Binder {
	return &Binder{}
}

func (b *Binder) Bind(i any, c echo.Context) error {
	if err := b.DefaultBinder.Bind(i, c); err != nil {
		return bindError(err)
	}
	// DefaultBinder skips query parameters on POST
	if c.Request().Method == http.MethodPost {
		if err := b.BindQueryParams(c, i); err != nil {
			return bindError(err)
		}
	}
	return nil
}

func bindError(err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return fmt.Errorf("%w: %v", constants.ErrInvalidParameter, he.Message)
	}
	return fmt.Errorf("%w: %s", constants.ErrInvalidParameter, err.Error())
}

// JSONSerializer encodes and decodes echo bodies with sonic.
type JSONSerializer struct{}

func (JSONSerializer) Serialize(c echo.Context, i any, indent string) error {
	enc := sonic.ConfigDefault.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (JSONSerializer) Deserialize(c echo.Context, i any) error {
	if err := sonic.ConfigDefault.NewDecoder(c.Request().Body).Decode(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	return nil
}
