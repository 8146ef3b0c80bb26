package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/infinitepl/infinite/internal/access"
	"github.com/infinitepl/infinite/internal/catalog"
	"github.com/infinitepl/infinite/internal/domain"
)

type productPayload struct {
	Name        string           `json:"name" validate:"required,max=200"`
	Density     *float64         `json:"density" validate:"required,gte=0"`
	Size        string           `json:"size" validate:"required,max=100"`
	Color       string           `json:"color" validate:"max=50"`
	Price       *decimal.Decimal `json:"price" validate:"required,gte=0"`
	Image       string           `json:"image" validate:"max=1024"`
	Description string           `json:"description"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
}

type productPatchPayload struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Density     *float64         `json:"density" validate:"omitempty,gte=0"`
	Size        *string          `json:"size" validate:"omitempty,min=1,max=100"`
	Color       *string          `json:"color" validate:"omitempty,max=50"`
	Price       *decimal.Decimal `json:"price" validate:"omitempty,gte=0"`
	Image       *string          `json:"image" validate:"omitempty,max=1024"`
	Description *string          `json:"description"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
}

// registerProductRoutes registers product CRUD endpoints
func registerProductRoutes() {
	registerCatalogRoutes("/products", access.Products, catalogHandlers{
		list:          listProducts,
		retrieve:      getProduct,
		create:        createProduct,
		update:        updateProduct,
		partialUpdate: patchProduct,
		destroy:       deleteProduct,
	})
}

// withReviews loads reviews newest first together with their authors
func withReviews(db *gorm.DB) *gorm.DB {
	return db.Preload("Reviews", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at DESC, id DESC")
	}).Preload("Reviews.User")
}

func listProducts(c echo.Context) error {
	r := renderer(c)
	return listCatalog(c, catalog.ProductKind, func(rows []domain.Product) interface{} {
		return r.Products(rows)
	}, withReviews)
}

func getProduct(c echo.Context) error {
	var p domain.Product
	if found, err := loadRecord(c, &p, "PRODUCT_NOT_FOUND", "Product", withReviews); !found {
		return err
	}
	return ok(c, renderer(c).Product(p))
}

func createProduct(c echo.Context) error {
	var payload productPayload
	if valid, err := bindPayload(c, &payload); !valid {
		return err
	}
	p := domain.Product{
		Name:        strings.TrimSpace(payload.Name),
		Density:     *payload.Density,
		Size:        strings.TrimSpace(payload.Size),
		Color:       strings.TrimSpace(payload.Color),
		Price:       *payload.Price,
		Image:       strings.TrimSpace(payload.Image),
		Description: payload.Description,
	}
	if payload.Stock != nil {
		p.Stock = *payload.Stock
	}
	if err := GetDB(c).Create(&p).Error; err != nil {
		return databaseFail(c, "Failed to create product", err)
	}
	zap.L().Info("product created", zap.Int64("id", p.ID), zap.String("name", p.Name))
	return created(c, renderer(c).Product(p))
}

func updateProduct(c echo.Context) error {
	var p domain.Product
	if found, err := loadRecord(c, &p, "PRODUCT_NOT_FOUND", "Product"); !found {
		return err
	}
	var payload productPayload
	if valid, err := bindPayload(c, &payload); !valid {
		return err
	}
	p.Name = strings.TrimSpace(payload.Name)
	p.Density = *payload.Density
	p.Size = strings.TrimSpace(payload.Size)
	p.Color = strings.TrimSpace(payload.Color)
	p.Price = *payload.Price
	p.Image = strings.TrimSpace(payload.Image)
	p.Description = payload.Description
	if payload.Stock != nil {
		p.Stock = *payload.Stock
	}
	return saveProduct(c, &p)
}

func patchProduct(c echo.Context) error {
	var p domain.Product
	if found, err := loadRecord(c, &p, "PRODUCT_NOT_FOUND", "Product"); !found {
		return err
	}
	var payload productPatchPayload
	if valid, err := bindPayload(c, &payload); !valid {
		return err
	}
	if payload.Name != nil {
		p.Name = strings.TrimSpace(*payload.Name)
	}
	if payload.Density != nil {
		p.Density = *payload.Density
	}
	if payload.Size != nil {
		p.Size = strings.TrimSpace(*payload.Size)
	}
	if payload.Color != nil {
		p.Color = strings.TrimSpace(*payload.Color)
	}
	if payload.Price != nil {
		p.Price = *payload.Price
	}
	if payload.Image != nil {
		p.Image = strings.TrimSpace(*payload.Image)
	}
	if payload.Description != nil {
		p.Description = *payload.Description
	}
	if payload.Stock != nil {
		p.Stock = *payload.Stock
	}
	return saveProduct(c, &p)
}

func saveProduct(c echo.Context, p *domain.Product) error {
	if err := GetDB(c).Omit("Reviews").Save(p).Error; err != nil {
		return databaseFail(c, "Failed to update product", err)
	}
	if err := GetDB(c).Scopes(withReviews).Where("id = ?", p.ID).First(p).Error; err != nil {
		return databaseFail(c, "Failed to query product", err)
	}
	return ok(c, renderer(c).Product(*p))
}

func deleteProduct(c echo.Context) error {
	var p domain.Product
	if found, err := loadRecord(c, &p, "PRODUCT_NOT_FOUND", "Product"); !found {
		return err
	}
	err := GetDB(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", p.ID).Delete(&domain.Review{}).Error; err != nil {
			return err
		}
		return tx.Delete(&p).Error
	})
	if err != nil {
		return databaseFail(c, "Failed to delete product", err)
	}
	zap.L().Info("product deleted", zap.Int64("id", p.ID))
	return c.NoContent(http.StatusNoContent)
}
