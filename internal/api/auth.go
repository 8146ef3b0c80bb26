package api

import (
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/infinitepl/infinite/internal/access"
	"github.com/infinitepl/infinite/internal/domain"
	"github.com/infinitepl/infinite/internal/view"
	"github.com/infinitepl/infinite/internal/webserver"
)

const (
	minUsernameLength = 4
	minPasswordLength = 8
)

type credentialsPayload struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshPayload struct {
	Refresh string `json:"refresh" validate:"required"`
}

type registerPayload struct {
	Username string `json:"username" validate:"required,max=150"`
	Email    string `json:"email" validate:"omitempty,email,max=254"`
	Password string `json:"password" validate:"required"`
}

type accessResponse struct {
	Access string `json:"access"`
}

func registerAuthRoutes() {
	webserver.ApiPOST("/auth/token", obtainToken)
	webserver.ApiPOST("/auth/token/refresh", refreshToken)
	webserver.ApiPOST("/auth/register", register, require(access.Accounts, access.Register))
	webserver.ApiGET("/auth/user", currentUser, require(access.Accounts, access.Me))
}

// obtainToken exchanges username/password for an access/refresh pair
func obtainToken(c echo.Context) error {
	var payload credentialsPayload
	if valid, err := bindPayload(c, &payload); !valid {
		return err
	}
	var user domain.User
	err := GetDB(c).Where("username = ?", payload.Username).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return databaseFail(c, "Failed to query user", err)
	}
	if err != nil || !user.IsActive ||
		bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(payload.Password)) != nil {
		zap.L().Warn("login failed", zap.String("username", payload.Username), zap.String("remote_ip", c.RealIP()))
		return fail(c, http.StatusUnauthorized, "AUTHENTICATION_FAILED", "No active account found with the given credentials", nil)
	}

	pair, err := webserver.GetAppContext(c).Tokens().IssuePair(user.ID, user.Username)
	if err != nil {
		zap.L().Error("issue token", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "TOKEN_ERROR", "Failed to issue token", nil)
	}
	now := time.Now()
	if err := GetDB(c).Model(&user).UpdateColumn("last_login", &now).Error; err != nil {
		zap.L().Warn("update last login", zap.Int64("user_id", user.ID), zap.Error(err))
	}
	return ok(c, pair)
}

func refreshToken(c echo.Context) error {
	var payload refreshPayload
	if valid, err := bindPayload(c, &payload); !valid {
		return err
	}
	signed, err := webserver.GetAppContext(c).Tokens().Refresh(payload.Refresh)
	if err != nil {
		return fail(c, http.StatusUnauthorized, "TOKEN_NOT_VALID", "Token is invalid or expired", nil)
	}
	return ok(c, accessResponse{Access: signed})
}

// register creates a regular (non-staff) account
func register(c echo.Context) error {
	var payload registerPayload
	if valid, err := bindPayload(c, &payload); !valid {
		return err
	}
	username := strings.TrimSpace(payload.Username)
	fe := FieldErrors{}
	if utf8.RuneCountInString(username) < minUsernameLength {
		fe.Add("username", "Username must be at least 4 characters long")
	} else {
		var count int64
		if err := GetDB(c).Model(&domain.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return databaseFail(c, "Failed to query user", err)
		}
		if count > 0 {
			fe.Add("username", "Username already taken")
		}
	}
	if utf8.RuneCountInString(payload.Password) < minPasswordLength {
		fe.Add("password", "Password must be at least 8 characters long")
	}
	if len(fe) > 0 {
		return validationFail(c, fe)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		zap.L().Error("hash password", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "SERVER_ERROR", "Failed to register user", nil)
	}
	user := domain.User{
		Username: username,
		Email:    strings.TrimSpace(payload.Email),
		Password: string(hashed),
		IsActive: true,
	}
	err = GetDB(c).Create(&user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return validationFail(c, FieldErrors{"username": {"Username already taken"}})
	}
	if err != nil {
		return databaseFail(c, "Failed to register user", err)
	}
	zap.L().Info("user registered", zap.Int64("id", user.ID), zap.String("username", user.Username))
	return created(c, view.NewUser(user))
}

func currentUser(c echo.Context) error {
	var user domain.User
	err := GetDB(c).Where("id = ?", webserver.GetPrincipal(c).UserID).First(&user).Error
	if err != nil {
		return lookupErr(c, err, "USER_NOT_FOUND", "User")
	}
	return ok(c, view.NewUser(user))
}
