package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/infinitepl/infinite/internal/access"
	"github.com/infinitepl/infinite/internal/catalog"
	"github.com/infinitepl/infinite/internal/view"
	"github.com/infinitepl/infinite/internal/webserver"
)

// FieldErrors maps payload field names to their validation messages
type FieldErrors map[string][]string

func (fe FieldErrors) Add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

// PageResult list response when pagination was requested
type PageResult struct {
	Items    interface{} `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// GetDB returns the request scoped database handle
func GetDB(c echo.Context) *gorm.DB {
	return webserver.GetAppContext(c).DB().WithContext(c.Request().Context())
}

func ok(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

func created(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusCreated, data)
}

func fail(c echo.Context, status int, code, message string, details interface{}) error {
	return c.JSON(status, webserver.ErrorResponse{Code: code, Message: message, Details: details})
}

func validationFail(c echo.Context, fe FieldErrors) error {
	return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", fe)
}

func databaseFail(c echo.Context, message string, err error) error {
	zap.L().Error(message, zap.String("uri", c.Request().RequestURI), zap.Error(err))
	return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", message, err.Error())
}

// accessFail maps access errors to 401/403
func accessFail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, access.ErrNotAuthenticated):
		return fail(c, http.StatusUnauthorized, "NOT_AUTHENTICATED", err.Error(), nil)
	case errors.Is(err, access.ErrPermissionDenied):
		return fail(c, http.StatusForbidden, "PERMISSION_DENIED", err.Error(), nil)
	}
	return fail(c, http.StatusForbidden, "PERMISSION_DENIED", err.Error(), nil)
}

// require gates a route on the access policy
func require(r access.Resource, a access.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := access.Check(webserver.GetPrincipal(c), r, a); err != nil {
				return accessFail(c, err)
			}
			return next(c)
		}
	}
}

// handleValidationError converts validator errors into field errors
func handleValidationError(c echo.Context, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
	}
	fe := FieldErrors{}
	for _, fieldErr := range verrs {
		fe.Add(fieldErr.Field(), validationMessage(fieldErr))
	}
	return validationFail(c, fe)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "min":
		return "Ensure this field has at least " + fe.Param() + " characters."
	case "max":
		return "Ensure this field has no more than " + fe.Param() + " characters."
	case "gte":
		return "Ensure this value is greater than or equal to " + fe.Param() + "."
	case "lte":
		return "Ensure this value is less than or equal to " + fe.Param() + "."
	case "email":
		return "Enter a valid email address."
	case "oneof":
		return "Must be one of: " + fe.Param() + "."
	}
	return "Invalid value."
}

// bindPayload parses the body and runs struct validation.
// It writes the error response itself and returns false when the payload was rejected.
func bindPayload(c echo.Context, payload interface{}) (bool, error) {
	if err := c.Bind(payload); err != nil {
		return false, fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request body", err.Error())
	}
	if err := c.Validate(payload); err != nil {
		return false, handleValidationError(c, err)
	}
	return true, nil
}

// parsePagination returns ok=false when the caller did not ask for a page
func parsePagination(c echo.Context) (page, pageSize int, paginate bool) {
	pageStr := c.QueryParam("page")
	perPageStr := c.QueryParam("perPage")
	if pageStr == "" && perPageStr == "" {
		return 0, 0, false
	}
	page = 1
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	pageSize = 20
	if ps, err := strconv.Atoi(perPageStr); err == nil && ps > 0 && ps <= 500 {
		pageSize = ps
	}
	return page, pageSize, true
}

// findList runs the query, paginating when requested, and renders the rows.
// load scopes (preloads) only apply to the row query, never to the count.
func findList[T any](c echo.Context, db *gorm.DB, what string, render func([]T) interface{}, load ...func(*gorm.DB) *gorm.DB) error {
	var rows []T
	page, pageSize, paginate := parsePagination(c)
	if !paginate {
		if err := db.Scopes(load...).Find(&rows).Error; err != nil {
			return databaseFail(c, "Failed to query "+what, err)
		}
		return ok(c, render(rows))
	}
	var total int64
	if err := db.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return databaseFail(c, "Failed to query "+what, err)
	}
	if err := db.Scopes(load...).Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return databaseFail(c, "Failed to query "+what, err)
	}
	return ok(c, PageResult{Items: render(rows), Total: total, Page: page, PageSize: pageSize})
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

// paramFail reports a bad listing query parameter
func paramFail(c echo.Context, err error) error {
	var perr *catalog.ParamError
	if errors.As(err, &perr) {
		return validationFail(c, FieldErrors{perr.Param: {perr.Message}})
	}
	return fail(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
}

// renderer builds image urls from the configured public url or the request host
func renderer(c echo.Context) view.Renderer {
	cfg := webserver.GetAppContext(c).Config()
	base := cfg.Web.PublicURL
	if base == "" {
		base = c.Scheme() + "://" + c.Request().Host
	}
	return view.NewRenderer(base, cfg.Media.URL)
}

func notFound(c echo.Context, code, what string) error {
	return fail(c, http.StatusNotFound, code, what+" not found", nil)
}

// lookupErr maps a First() error to 404 or 500
func lookupErr(c echo.Context, err error, code, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(c, code, what)
	}
	return databaseFail(c, "Failed to query "+strings.ToLower(what), err)
}
