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

type pillowPayload struct {
	Name        string           `json:"name" validate:"required,max=255"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price" validate:"required,gte=0"`
	Color       string           `json:"color" validate:"max=50"`
	Size        string           `json:"size" validate:"max=50"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
	Image       string           `json:"image" validate:"max=1024"`
}

type pillowPatchPayload struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price" validate:"omitempty,gte=0"`
	Color       *string          `json:"color" validate:"omitempty,max=50"`
	Size        *string          `json:"size" validate:"omitempty,max=50"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
	Image       *string          `json:"image" validate:"omitempty,max=1024"`
}

func (p pillowPayload) apply(row *domain.Pillow) {
	row.Name = strings.TrimSpace(p.Name)
	row.Description = p.Description
	row.Price = *p.Price
	row.Color = strings.TrimSpace(p.Color)
	row.Size = strings.TrimSpace(p.Size)
	row.Image = strings.TrimSpace(p.Image)
	if p.Stock != nil {
		row.Stock = *p.Stock
	}
}

func registerPillowRoutes() {
	registerCatalogRoutes("/pillows", access.Pillows, catalogHandlers{
		list:          listPillows,
		retrieve:      getPillow,
		create:        createPillow,
		update:        updatePillow,
		partialUpdate: patchPillow,
		destroy: func(c echo.Context) error {
			return deleteRecord[domain.Pillow](c, "PILLOW_NOT_FOUND", "Pillow")
		},
	})
}

func listPillows(c echo.Context) error {
	r := renderer(c)
	return listCatalog(c, catalog.PillowKind, func(rows []domain.Pillow) interface{} {
		return r.Pillows(rows)
	})
}

func getPillow(c echo.Context) error {
	var p domain.Pillow
	if found, err := loadRecord(c, &p, "PILLOW_NOT_FOUND", "Pillow"); !found {
		return err
	}
	return ok(c, renderer(c).Pillow(p))
}

func createPillow(c echo.Context) error {
	var payload pillowPayload
	if valid, err := bindPayload(c, &payload); !valid {
		return err
	}
	var p domain.Pillow
	payload.apply(&p)
	if err := GetDB(c).Create(&p).Error; err != nil {
		return databaseFail(c, "Failed to create pillow", err)
	}
	zap.L().Info("pillow created", zap.Int64("id", p.ID), zap.String("name", p.Name))
	return created(c, renderer(c).Pillow(p))
}

func updatePillow(c echo.Context) error {
	var p domain.Pillow
	if found, err := loadRecord(c, &p, "PILLOW_NOT_FOUND", "Pillow"); !found {
		return err
	}
	var payload pillowPayload
	if valid, err := bindPayload(c, &payload); !valid {
		return err
	}
	payload.apply(&p)
	if err := GetDB(c).Save(&p).Error; err != nil {
		return databaseFail(c, "Failed to update pillow", err)
	}
	return ok(c, renderer(c).Pillow(p))
}

func patchPillow(c echo.Context) error {
	var p domain.Pillow
	if found, err := loadRecord(c, &p, "PILLOW_NOT_FOUND", "Pillow"); !found {
		return err
	}
	var payload pillowPatchPayload
	if valid, err := bindPayload(c, &payload); !valid {
		return err
	}
	if payload.Name != nil {
		p.Name = strings.TrimSpace(*payload.Name)
	}
	if payload.Description != nil {
		p.Description = *payload.Description
	}
	if payload.Price != nil {
		p.Price = *payload.Price
	}
	if payload.Color != nil {
		p.Color = strings.TrimSpace(*payload.Color)
	}
	if payload.Size != nil {
		p.Size = strings.TrimSpace(*payload.Size)
	}
	if payload.Stock != nil {
		p.Stock = *payload.Stock
	}
	if payload.Image != nil {
		p.Image = strings.TrimSpace(*payload.Image)
	}
	if err := GetDB(c).Save(&p).Error; err != nil {
		return databaseFail(c, "Failed to update pillow", err)
	}
	return ok(c, renderer(c).Pillow(p))
}
