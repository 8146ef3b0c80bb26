package app

import (
	"github.com/infinitepl/infinite/config"
	"github.com/infinitepl/infinite/internal/token"
	"gorm.io/gorm"
)

// DBProvider provides database access
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// TokenProvider provides the bearer token issuer
type TokenProvider interface {
	Tokens() *token.Issuer
}

// AppContext combines all provider interfaces for full application context
// Handlers should depend on specific providers or this combined interface
type AppContext interface {
	DBProvider
	ConfigProvider
	TokenProvider

	// Application lifecycle methods
	MigrateDB(track bool) error
	InitDb()
	DropAll()
}
