package webserver

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/infinitepl/infinite/internal/access"
	"github.com/infinitepl/infinite/internal/app"
	"github.com/infinitepl/infinite/internal/domain"
	"github.com/infinitepl/infinite/internal/token"
)

const (
	AppContextKey = "appctx"
	ClaimsKey     = "claims"
	PrincipalKey  = "principal"
)

// ErrorResponse is the body of every failed api call
type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type route struct {
	method     string
	path       string
	handler    echo.HandlerFunc
	middleware []echo.MiddlewareFunc
}

var (
	routesMu sync.Mutex
	routes   []route
)

func addRoute(method, path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	routesMu.Lock()
	defer routesMu.Unlock()
	routes = append(routes, route{method: method, path: path, handler: h, middleware: m})
}

func ApiGET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	addRoute(http.MethodGet, path, h, m...)
}

func ApiPOST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	addRoute(http.MethodPost, path, h, m...)
}

func ApiPUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	addRoute(http.MethodPut, path, h, m...)
}

func ApiPATCH(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	addRoute(http.MethodPatch, path, h, m...)
}

func ApiDELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) {
	addRoute(http.MethodDelete, path, h, m...)
}

type WebServer struct {
	root   *echo.Echo
	appCtx app.AppContext
}

// NewWebServer builds the echo instance and mounts every registered api route
func NewWebServer(appCtx app.AppContext) *WebServer {
	cfg := appCtx.Config()
	s := &WebServer{root: echo.New(), appCtx: appCtx}
	e := s.root
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			zap.L().Info("request", fields...)
			return nil
		},
	}))
	corsConfig := middleware.DefaultCORSConfig
	if len(cfg.Web.CorsOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Web.CorsOrigins
	}
	e.Use(middleware.CORSWithConfig(corsConfig))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(AppContextKey, appCtx)
			return next(c)
		}
	})

	if cfg.Media.URL != "" {
		e.Static(cfg.Media.URL, cfg.GetMediaDir())
	}

	api := e.Group(cfg.Web.ApiPrefix, s.jwtMiddleware(), s.principalMiddleware)
	routesMu.Lock()
	for _, r := range routes {
		api.Add(r.method, r.path, r.handler, r.middleware...)
	}
	routesMu.Unlock()
	return s
}

// Echo exposes the underlying router (used in tests)
func (s *WebServer) Echo() *echo.Echo {
	return s.root
}

func (s *WebServer) Start() error {
	addr := s.appCtx.Config().Addr()
	zap.S().Infof("Starting web server at %s", addr)
	err := s.root.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *WebServer) Shutdown(ctx context.Context) error {
	return s.root.Shutdown(ctx)
}

// jwtMiddleware validates bearer tokens; requests without an Authorization header stay anonymous
func (s *WebServer) jwtMiddleware() echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		Skipper: func(c echo.Context) bool {
			return c.Request().Header.Get(echo.HeaderAuthorization) == ""
		},
		ContextKey: ClaimsKey,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return s.appCtx.Tokens().ParseAccess(auth)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Code:    "TOKEN_NOT_VALID",
				Message: "Given token not valid for any token type",
			})
		},
	})
}

// principalMiddleware resolves token claims to the current user record
func (s *WebServer) principalMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, ok := c.Get(ClaimsKey).(*token.Claims)
		if !ok || claims == nil {
			return next(c)
		}
		var user domain.User
		err := s.appCtx.DB().WithContext(c.Request().Context()).Where("id = ?", claims.UserID).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !user.IsActive) {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Code:    "USER_NOT_FOUND",
				Message: "User not found or inactive",
			})
		} else if err != nil {
			return c.JSON(http.StatusInternalServerError, ErrorResponse{
				Code:    "DATABASE_ERROR",
				Message: "Failed to load user",
				Details: err.Error(),
			})
		}
		c.Set(PrincipalKey, &access.Principal{UserID: user.ID, Username: user.Username, IsStaff: user.IsStaff})
		return next(c)
	}
}

func (s *WebServer) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	resp := ErrorResponse{Code: "SERVER_ERROR", Message: http.StatusText(status)}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		resp.Code = codeForStatus(status)
		if msg, ok := he.Message.(string); ok {
			resp.Message = msg
		} else {
			resp.Message = http.StatusText(status)
		}
	} else {
		zap.L().Error("unhandled api error", zap.String("uri", c.Request().RequestURI), zap.Error(err))
	}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, resp)
	}
	if err != nil {
		zap.L().Error("write error response", zap.Error(err))
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusUnauthorized:
		return "NOT_AUTHENTICATED"
	case http.StatusForbidden:
		return "PERMISSION_DENIED"
	case http.StatusBadRequest:
		return "INVALID_REQUEST"
	}
	return "SERVER_ERROR"
}

// GetAppContext returns the application bound to the request
func GetAppContext(c echo.Context) app.AppContext {
	return c.Get(AppContextKey).(app.AppContext)
}

// GetPrincipal returns the authenticated caller, nil for anonymous requests
func GetPrincipal(c echo.Context) *access.Principal {
	p, _ := c.Get(PrincipalKey).(*access.Principal)
	return p
}

// requestTimeout bounds graceful shutdown
const requestTimeout = 10 * time.Second

// ShutdownTimeout returns a context for graceful shutdown
func ShutdownTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}
