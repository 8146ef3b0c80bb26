package app

import (
	"errors"
	"strings"
	"time"

	"github.com/infinitepl/infinite/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// checkSuper makes sure the configured staff account exists and is usable
func (a *Application) checkSuper() {
	username := a.appConfig.Auth.AdminUsername
	password := a.appConfig.Auth.AdminPassword
	if username == "" || password == "" {
		return
	}

	var user domain.User
	err := a.gormDB.Where("username = ?", username).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			zap.L().Error("failed to hash default staff password", zap.Error(err))
			return
		}
		if err := a.gormDB.Create(&domain.User{
			Username: username,
			Email:    "",
			Password: string(hashed),
			IsStaff:  true,
			IsActive: true,
		}).Error; err != nil {
			zap.L().Error("failed to create default staff account", zap.Error(err))
		} else {
			zap.L().Info("initialized default staff account", zap.String("username", username))
		}
		return
	case err != nil:
		zap.L().Error("failed to query staff account", zap.Error(err))
		return
	}

	resetPassword := strings.TrimSpace(user.Password) == ""
	resetStaff := !user.IsStaff
	resetActive := !user.IsActive

	if !resetPassword && !resetStaff && !resetActive {
		return
	}

	updates := map[string]interface{}{
		"updated_at": time.Now(),
		"is_staff":   true,
		"is_active":  true,
	}
	if resetPassword {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			zap.L().Error("failed to hash default staff password", zap.Error(err))
			return
		}
		updates["password"] = string(hashed)
	}

	if err := a.gormDB.Model(&domain.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
		zap.L().Error("failed to repair staff account", zap.Error(err))
		return
	}

	zap.L().Warn("repaired default staff account",
		zap.String("username", username),
		zap.Bool("passwordReset", resetPassword),
		zap.Bool("staffReset", resetStaff),
		zap.Bool("activeReset", resetActive))
}

// checkCompanyInfo creates the canonical company profile row when the table is empty
func (a *Application) checkCompanyInfo() {
	var count int64
	if err := a.gormDB.Model(&domain.CompanyInfo{}).Count(&count).Error; err != nil {
		zap.L().Error("failed to query company info", zap.Error(err))
		return
	}
	if count > 0 {
		return
	}
	if err := a.gormDB.Create(&domain.CompanyInfo{Name: domain.DefaultCompanyName}).Error; err != nil {
		zap.L().Error("failed to create default company info", zap.Error(err))
		return
	}
	zap.L().Info("initialized default company info", zap.String("name", domain.DefaultCompanyName))
}
