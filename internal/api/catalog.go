package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/infinitepl/infinite/internal/access"
	"github.com/infinitepl/infinite/internal/catalog"
	"github.com/infinitepl/infinite/internal/webserver"
)

// catalogHandlers the six viewset style operations of one catalog kind
type catalogHandlers struct {
	list, retrieve, create, update, partialUpdate, destroy echo.HandlerFunc
}

// registerCatalogRoutes mounts list/retrieve/create/update/partial-update/delete for one kind
func registerCatalogRoutes(path string, r access.Resource, h catalogHandlers) {
	webserver.ApiGET(path, h.list, require(r, access.List))
	webserver.ApiGET(path+"/:id", h.retrieve, require(r, access.Retrieve))
	webserver.ApiPOST(path, h.create, require(r, access.Create))
	webserver.ApiPUT(path+"/:id", h.update, require(r, access.Update))
	webserver.ApiPATCH(path+"/:id", h.partialUpdate, require(r, access.PartialUpdate))
	webserver.ApiDELETE(path+"/:id", h.destroy, require(r, access.Destroy))
}

// listCatalog applies the kind's filter rules to the query parameters
func listCatalog[T any](c echo.Context, kind catalog.Kind, render func([]T) interface{}, load ...func(*gorm.DB) *gorm.DB) error {
	q, err := kind.Spec.Apply(GetDB(c).Model(new(T)), c.QueryParams())
	if err != nil {
		return paramFail(c, err)
	}
	return findList[T](c, q, kind.Name+" list", render, load...)
}

// loadRecord fetches a row by the :id path parameter, writing 400/404/500 itself.
// It returns false when the response has been written.
func loadRecord[T any](c echo.Context, row *T, code, what string, load ...func(*gorm.DB) *gorm.DB) (bool, error) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return false, fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+what+" ID", nil)
	}
	if err := GetDB(c).Scopes(load...).Where("id = ?", id).First(row).Error; err != nil {
		return false, lookupErr(c, err, code, what)
	}
	return true, nil
}

// deleteRecord removes the row addressed by :id
func deleteRecord[T any](c echo.Context, code, what string) error {
	var row T
	if found, err := loadRecord(c, &row, code, what); !found {
		return err
	}
	if err := GetDB(c).Delete(&row).Error; err != nil {
		return databaseFail(c, "Failed to delete "+what, err)
	}
	zap.L().Info(what+" deleted", zap.String("id", c.Param("id")))
	return c.NoContent(http.StatusNoContent)
}
