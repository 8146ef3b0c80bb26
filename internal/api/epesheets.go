package api

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/infinitepl/infinite/internal/access"
	"github.com/infinitepl/infinite/internal/catalog"
	"github.com/infinitepl/infinite/internal/domain"
)

type epeSheetPayload struct {
	Name        string           `json:"name" validate:"required,max=255"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price" validate:"required,gte=0"`
	Size        string           `json:"size" validate:"required,max=50"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
	Image       string           `json:"image" validate:"max=1024"`
}

type epeSheetPatchPayload struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price" validate:"omitempty,gte=0"`
	Size        *string          `json:"size" validate:"omitempty,min=1,max=50"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
	Image       *string          `json:"image" validate:"omitempty,max=1024"`
}

func registerEPESheetRoutes() {
	registerCatalogRoutes("/epe-sheets", access.EPESheets, catalogHandlers{
		list:          listEPESheets,
		retrieve:      getEPESheet,
		create:        createEPESheet,
		update:        updateEPESheet,
		partialUpdate: patchEPESheet,
		destroy: func(c echo.Context) error {
			return deleteRecord[domain.EPESheet](c, "EPE_SHEET_NOT_FOUND", "EPE sheet")
		},
	})
}

func listEPESheets(c echo.Context) error {
	r := renderer(c)
	return listCatalog(c, catalog.EPESheetKind, func(rows []domain.EPESheet) interface{} {
		return r.EPESheets(rows)
	})
}

func getEPESheet(c echo.Context) error {
	var s domain.EPESheet
	if found, err := loadRecord(c, &s, "EPE_SHEET_NOT_FOUND", "EPE sheet"); !found {
		return err
	}
	return ok(c, renderer(c).EPESheet(s))
}

func createEPESheet(c echo.Context) error {
	var payload epeSheetPayload
	if valid, err := bindPayload(c, &payload); !valid {
		return err
	}
	s := domain.EPESheet{
		Name:        strings.TrimSpace(payload.Name),
		Description: payload.Description,
		Price:       *payload.Price,
		Size:        strings.TrimSpace(payload.Size),
		Image:       strings.TrimSpace(payload.Image),
	}
	if payload.Stock != nil {
		s.Stock = *payload.Stock
	}
	if err := GetDB(c).Create(&s).Error; err != nil {
		return databaseFail(c, "Failed to create EPE sheet", err)
	}
	zap.L().Info("epe sheet created", zap.Int64("id", s.ID), zap.String("name", s.Name))
	return created(c, renderer(c).EPESheet(s))
}

func updateEPESheet(c echo.Context) error {
	var s domain.EPESheet
	if found, err := loadRecord(c, &s, "EPE_SHEET_NOT_FOUND", "EPE sheet"); !found {
		return err
	}
	var payload epeSheetPayload
	if valid, err := bindPayload(c, &payload); !valid {
		return err
	}
	s.Name = strings.TrimSpace(payload.Name)
	s.Description = payload.Description
	s.Price = *payload.Price
	s.Size = strings.TrimSpace(payload.Size)
	s.Image = strings.TrimSpace(payload.Image)
	if payload.Stock != nil {
		s.Stock = *payload.Stock
	}
	if err := GetDB(c).Save(&s).Error; err != nil {
		return databaseFail(c, "Failed to update EPE sheet", err)
	}
	return ok(c, renderer(c).EPESheet(s))
}

func patchEPESheet(c echo.Context) error {
	var s domain.EPESheet
	if found, err := loadRecord(c, &s, "EPE_SHEET_NOT_FOUND", "EPE sheet"); !found {
		return err
	}
	var payload epeSheetPatchPayload
	if valid, err := bindPayload(c, &payload); !valid {
		return err
	}
	if payload.Name != nil {
		s.Name = strings.TrimSpace(*payload.Name)
	}
	if payload.Description != nil {
		s.Description = *payload.Description
	}
	if payload.Price != nil {
		s.Price = *payload.Price
	}
	if payload.Size != nil {
		s.Size = strings.TrimSpace(*payload.Size)
	}
	if payload.Stock != nil {
		s.Stock = *payload.Stock
	}
	if payload.Image != nil {
		s.Image = strings.TrimSpace(*payload.Image)
	}
	if err := GetDB(c).Save(&s).Error; err != nil {
		return databaseFail(c, "Failed to update EPE sheet", err)
	}
	return ok(c, renderer(c).EPESheet(s))
}
