package app

import (
	"testing"

	"github.com/infinitepl/infinite/config"
	"github.com/infinitepl/infinite/internal/domain"
	"github.com/infinitepl/infinite/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestApp(t *testing.T) *Application {
	cfg := config.DefaultAppConfig()
	cfg.Auth.AdminUsername = "boss"
	cfg.Auth.AdminPassword = "boss-password"
	a := NewApplication(cfg)
	a.OverrideDB(testutil.NewDB(t))
	return a
}

func TestCheckSuperCreatesStaff(t *testing.T) {
	a := newTestApp(t)
	a.checkSuper()

	var u domain.User
	require.NoError(t, a.DB().Where("username = ?", "boss").First(&u).Error)
	assert.True(t, u.IsStaff)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("boss-password")))

	// running twice keeps a single account
	a.checkSuper()
	var n int64
	a.DB().Model(&domain.User{}).Count(&n)
	assert.EqualValues(t, 1, n)
}

func TestCheckSuperRepairsRole(t *testing.T) {
	a := newTestApp(t)
	require.NoError(t, a.DB().Create(&domain.User{Username: "boss", Password: "x"}).Error)
	a.checkSuper()

	var u domain.User
	require.NoError(t, a.DB().Where("username = ?", "boss").First(&u).Error)
	assert.True(t, u.IsStaff)
	assert.Equal(t, "x", u.Password)
}

func TestCheckCompanyInfo(t *testing.T) {
	a := newTestApp(t)
	a.checkCompanyInfo()
	a.checkCompanyInfo()

	var rows []domain.CompanyInfo
	require.NoError(t, a.DB().Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.DefaultCompanyName, rows[0].Name)
}

func TestMigrateDB(t *testing.T) {
	a := newTestApp(t)
	assert.NoError(t, a.MigrateDB(false))
	assert.True(t, a.DB().Migrator().HasTable(&domain.Review{}))
}

func TestCheckSuperSkipsWithoutPassword(t *testing.T) {
	a := NewApplication(config.DefaultAppConfig())
	a.OverrideDB(testutil.NewDB(t))
	a.checkSuper()

	var n int64
	require.NoError(t, a.DB().Model(&domain.User{}).Count(&n).Error)
	assert.Zero(t, n)
}
