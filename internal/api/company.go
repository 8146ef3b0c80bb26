package api

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/infinitepl/infinite/internal/access"
	"github.com/infinitepl/infinite/internal/domain"
	"github.com/infinitepl/infinite/internal/webserver"
)

type companyPayload struct {
	Name         string `json:"name" validate:"max=200"`
	Description  string `json:"description"`
	Mission      string `json:"mission"`
	ContactEmail string `json:"contact_email" validate:"omitempty,email,max=254"`
	ContactPhone string `json:"contact_phone" validate:"max=50"`
	Address      string `json:"address"`
}

type companyPatchPayload struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=200"`
	Description  *string `json:"description"`
	Mission      *string `json:"mission"`
	ContactEmail *string `json:"contact_email" validate:"omitempty,email,max=254"`
	ContactPhone *string `json:"contact_phone" validate:"omitempty,max=50"`
	Address      *string `json:"address"`
}

// ChartSeries monthly figures shown on the company page
type ChartSeries struct {
	Months        []string `json:"months"`
	Manufacturing []int    `json:"manufacturing"`
	Sales         []int    `json:"sales"`
}

// companyChart is presentation data, it does not follow the order book
var companyChart = ChartSeries{
	Months:        []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
	Manufacturing: []int{120, 135, 150, 160, 170, 180, 175, 190, 200, 210, 205, 220},
	Sales:         []int{100, 125, 140, 150, 165, 170, 168, 180, 190, 205, 198, 210},
}

func registerCompanyRoutes() {
	webserver.ApiGET("/company/single", singleCompany, require(access.Company, access.Retrieve))
	webserver.ApiGET("/company/analytics/chart", companyAnalyticsChart, require(access.Company, access.Retrieve))
	webserver.ApiGET("/company", listCompany, require(access.Company, access.List))
	webserver.ApiGET("/company/:id", getCompany, require(access.Company, access.Retrieve))
	webserver.ApiPOST("/company", createCompany, require(access.Company, access.Create))
	webserver.ApiPUT("/company/:id", updateCompany, require(access.Company, access.Update))
	webserver.ApiPATCH("/company/:id", patchCompany, require(access.Company, access.PartialUpdate))
	webserver.ApiDELETE("/company/:id", func(c echo.Context) error {
		return deleteRecord[domain.CompanyInfo](c, "COMPANY_NOT_FOUND", "Company info")
	}, require(access.Company, access.Destroy))
}

func listCompany(c echo.Context) error {
	return findList(c, GetDB(c).Model(&domain.CompanyInfo{}).Order("id"), "company info", func(rows []domain.CompanyInfo) interface{} {
		if rows == nil {
			return []domain.CompanyInfo{}
		}
		return rows
	})
}

// singleCompany returns the canonical company row, {} when none exists
func singleCompany(c echo.Context) error {
	var info domain.CompanyInfo
	err := GetDB(c).Order("id").First(&info).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ok(c, echo.Map{})
	}
	if err != nil {
		return databaseFail(c, "Failed to query company info", err)
	}
	return ok(c, info)
}

func companyAnalyticsChart(c echo.Context) error {
	return ok(c, companyChart)
}

func getCompany(c echo.Context) error {
	var info domain.CompanyInfo
	if found, err := loadRecord(c, &info, "COMPANY_NOT_FOUND", "Company info"); !found {
		return err
	}
	return ok(c, info)
}

func (p companyPayload) apply(info *domain.CompanyInfo) {
	info.Name = strings.TrimSpace(p.Name)
	if info.Name == "" {
		info.Name = domain.DefaultCompanyName
	}
	info.Description = p.Description
	info.Mission = p.Mission
	info.ContactEmail = strings.TrimSpace(p.ContactEmail)
	info.ContactPhone = strings.TrimSpace(p.ContactPhone)
	info.Address = p.Address
}

func createCompany(c echo.Context) error {
	var payload companyPayload
	if valid, err := bindPayload(c, &payload); !valid {
		return err
	}
	var info domain.CompanyInfo
	payload.apply(&info)
	if err := GetDB(c).Create(&info).Error; err != nil {
		return databaseFail(c, "Failed to create company info", err)
	}
	zap.L().Info("company info created", zap.Int64("id", info.ID))
	return created(c, info)
}

func updateCompany(c echo.Context) error {
	var info domain.CompanyInfo
	if found, err := loadRecord(c, &info, "COMPANY_NOT_FOUND", "Company info"); !found {
		return err
	}
	var payload companyPayload
	if valid, err := bindPayload(c, &payload); !valid {
		return err
	}
	payload.apply(&info)
	if err := GetDB(c).Save(&info).Error; err != nil {
		return databaseFail(c, "Failed to update company info", err)
	}
	return ok(c, info)
}

func patchCompany(c echo.Context) error {
	var info domain.CompanyInfo
	if found, err := loadRecord(c, &info, "COMPANY_NOT_FOUND", "Company info"); !found {
		return err
	}
	var payload companyPatchPayload
	if valid, err := bindPayload(c, &payload); !valid {
		return err
	}
	if payload.Name != nil {
		info.Name = strings.TrimSpace(*payload.Name)
	}
	if payload.Description != nil {
		info.Description = *payload.Description
	}
	if payload.Mission != nil {
		info.Mission = *payload.Mission
	}
	if payload.ContactEmail != nil {
		info.ContactEmail = strings.TrimSpace(*payload.ContactEmail)
	}
	if payload.ContactPhone != nil {
		info.ContactPhone = strings.TrimSpace(*payload.ContactPhone)
	}
	if payload.Address != nil {
		info.Address = *payload.Address
	}
	if err := GetDB(c).Save(&info).Error; err != nil {
		return databaseFail(c, "Failed to update company info", err)
	}
	return ok(c, info)
}
