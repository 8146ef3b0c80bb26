package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/infinitepl/infinite/internal/access"
	"github.com/infinitepl/infinite/internal/domain"
	"github.com/infinitepl/infinite/internal/webserver"
)

type inquiryPayload struct {
	Name         string `json:"name" validate:"required,max=200"`
	Company      string `json:"company" validate:"max=200"`
	Email        string `json:"email" validate:"required,email,max=254"`
	Phone        string `json:"phone" validate:"required,max=50"`
	Product      string `json:"product" validate:"required,max=200"`
	Quantity     *int   `json:"quantity" validate:"omitempty,gte=0"`
	Requirements string `json:"requirements"`
}

func registerInquiryRoutes() {
	webserver.ApiGET("/inquiries", listInquiries, require(access.Inquiries, access.List))
	webserver.ApiGET("/inquiries/:id", getInquiry, require(access.Inquiries, access.Retrieve))
	webserver.ApiPOST("/inquiries", createInquiry, require(access.Inquiries, access.Create))
	webserver.ApiPUT("/inquiries/:id", inquiryImmutable, require(access.Inquiries, access.Update))
	webserver.ApiPATCH("/inquiries/:id", inquiryImmutable, require(access.Inquiries, access.PartialUpdate))
	webserver.ApiDELETE("/inquiries/:id", func(c echo.Context) error {
		return deleteRecord[domain.Inquiry](c, "INQUIRY_NOT_FOUND", "Inquiry")
	}, require(access.Inquiries, access.Destroy))
}

func listInquiries(c echo.Context) error {
	q := GetDB(c).Model(&domain.Inquiry{}).Order("created_at DESC, id DESC")
	return findList(c, q, "inquiries", func(rows []domain.Inquiry) interface{} {
		if rows == nil {
			return []domain.Inquiry{}
		}
		return rows
	})
}

func getInquiry(c echo.Context) error {
	var inq domain.Inquiry
	if found, err := loadRecord(c, &inq, "INQUIRY_NOT_FOUND", "Inquiry"); !found {
		return err
	}
	return ok(c, inq)
}

func createInquiry(c echo.Context) error {
	var payload inquiryPayload
	if valid, err := bindPayload(c, &payload); !valid {
		return err
	}
	inq := domain.Inquiry{
		Name:         strings.TrimSpace(payload.Name),
		Company:      strings.TrimSpace(payload.Company),
		Email:        strings.TrimSpace(payload.Email),
		Phone:        strings.TrimSpace(payload.Phone),
		Product:      strings.TrimSpace(payload.Product),
		Requirements: payload.Requirements,
	}
	if payload.Quantity != nil {
		inq.Quantity = *payload.Quantity
	}
	if err := GetDB(c).Create(&inq).Error; err != nil {
		return databaseFail(c, "Failed to create inquiry", err)
	}
	zap.L().Info("inquiry received", zap.Int64("id", inq.ID), zap.String("product", inq.Product))
	return created(c, inq)
}

func inquiryImmutable(c echo.Context) error {
	return fail(c, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Inquiries cannot be modified", nil)
}
