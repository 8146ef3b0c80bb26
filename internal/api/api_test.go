package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/infinitepl/infinite/config"
	"github.com/infinitepl/infinite/internal/app"
	"github.com/infinitepl/infinite/internal/domain"
	"github.com/infinitepl/infinite/internal/testutil"
	"github.com/infinitepl/infinite/internal/webserver"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type testEnv struct {
	t   *testing.T
	e   *echo.Echo
	app *app.Application
	db  *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	Init()
	cfg := config.DefaultAppConfig()
	cfg.Web.PublicURL = "http://testserver"
	cfg.Auth.Secret = "test-signing-secret"
	cfg.Media.Root = t.TempDir()
	appCtx := app.NewApplication(cfg)
	db := testutil.NewDB(t)
	appCtx.OverrideDB(db)
	return &testEnv{t: t, e: webserver.NewWebServer(appCtx).Echo(), app: appCtx, db: db}
}

func (env *testEnv) user(username string, staff bool) (domain.User, string) {
	env.t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(env.t, err)
	u := domain.User{Username: username, Password: string(hashed), IsStaff: staff, IsActive: true}
	require.NoError(env.t, env.db.Create(&u).Error)
	pair, err := env.app.Tokens().IssuePair(u.ID, u.Username)
	require.NoError(env.t, err)
	return u, pair.Access
}

func (env *testEnv) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api"+path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func (env *testEnv) product(name string, price string, stock int, created time.Time) domain.Product {
	env.t.Helper()
	p := domain.Product{
		Name:      name,
		Density:   24,
		Size:      "6x4",
		Color:     "Blue",
		Price:     decimal.RequireFromString(price),
		Stock:     stock,
		CreatedAt: created,
	}
	require.NoError(env.t, env.db.Create(&p).Error)
	return p
}

func TestRegistration(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/auth/register", map[string]string{"username": "abc", "password": "longenough1"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var errResp struct {
		Code    string              `json:"code"`
		Details map[string][]string `json:"details"`
	}
	decode(t, rec, &errResp)
	assert.Equal(t, "VALIDATION_ERROR", errResp.Code)
	assert.Contains(t, errResp.Details, "username")

	rec = env.do(http.MethodPost, "/auth/register", map[string]string{"username": "abcdef01", "password": "short"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errResp.Details = nil
	decode(t, rec, &errResp)
	assert.Contains(t, errResp.Details, "password")
	assert.NotContains(t, errResp.Details, "username")

	rec = env.do(http.MethodPost, "/auth/register", map[string]string{"username": "validuser", "password": "longenough1"}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(http.MethodPost, "/auth/register", map[string]string{"username": "validuser", "password": "longenough1"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/auth/token", map[string]string{"username": "validuser", "password": "longenough1"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var pair struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	decode(t, rec, &pair)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)

	rec = env.do(http.MethodGet, "/auth/user", nil, pair.Access)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var me map[string]interface{}
	decode(t, rec, &me)
	assert.Equal(t, "validuser", me["username"])
	assert.Equal(t, false, me["is_staff"])
	assert.NotContains(t, me, "password")

	rec = env.do(http.MethodPost, "/auth/token/refresh", map[string]string{"refresh": pair.Refresh}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var refreshed map[string]string
	decode(t, rec, &refreshed)
	assert.NotEmpty(t, refreshed["access"])
	assert.NotContains(t, refreshed, "refresh")

	rec = env.do(http.MethodPost, "/auth/token", map[string]string{"username": "validuser", "password": "wrong-password"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegistrationCountsCharacters(t *testing.T) {
	env := newTestEnv(t)

	// four bytes, two characters
	rec := env.do(http.MethodPost, "/auth/register", map[string]string{"username": "éé", "password": "longenough1"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var errResp struct {
		Details map[string][]string `json:"details"`
	}
	decode(t, rec, &errResp)
	assert.Contains(t, errResp.Details, "username")

	// eight bytes, four characters
	errResp.Details = nil
	rec = env.do(http.MethodPost, "/auth/register", map[string]string{"username": "ivanov", "password": "паро"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	decode(t, rec, &errResp)
	assert.Contains(t, errResp.Details, "password")

	rec = env.do(http.MethodPost, "/auth/register", map[string]string{"username": "éééé", "password": "пароль12"}, "")
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestCurrentUserRequiresAuthentication(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodGet, "/auth/user", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodGet, "/auth/user", nil, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCatalogWritesAreStaffOnly(t *testing.T) {
	env := newTestEnv(t)
	_, userToken := env.user("customer", false)
	_, staffToken := env.user("manager", true)
	body := map[string]interface{}{"name": "Sheet", "density": 18, "size": "6x3", "price": "450.00", "stock": 4}

	rec := env.do(http.MethodPost, "/products", body, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodPost, "/products", body, userToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodPost, "/products", body, staffToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created map[string]interface{}
	decode(t, rec, &created)
	assert.Equal(t, "Sheet", created["name"])
	assert.Nil(t, created["image"])
	assert.Contains(t, created, "image")
	assert.Equal(t, float64(0), created["average_rating"])
	assert.Equal(t, float64(0), created["review_count"])

	rec = env.do(http.MethodGet, "/products", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodPost, "/products", map[string]interface{}{"name": "NoPrice", "density": 18, "size": "6x3"}, staffToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var errResp struct {
		Details map[string][]string `json:"details"`
	}
	decode(t, rec, &errResp)
	assert.Contains(t, errResp.Details, "price")
}

func TestProductOrdering(t *testing.T) {
	env := newTestEnv(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	env.product("Cheap", "100.00", 1, base)
	env.product("Pricey", "900.00", 1, base.Add(time.Hour))
	env.product("Middle", "500.00", 1, base.Add(2*time.Hour))

	names := func(rec *httptest.ResponseRecorder) []string {
		var rows []struct {
			Name string `json:"name"`
		}
		decode(t, rec, &rows)
		out := make([]string, 0, len(rows))
		for _, r := range rows {
			out = append(out, r.Name)
		}
		return out
	}

	rec := env.do(http.MethodGet, "/products?ordering=-price", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Pricey", "Middle", "Cheap"}, names(rec))

	rec = env.do(http.MethodGet, "/products?ordering=bogus", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Middle", "Pricey", "Cheap"}, names(rec))

	rec = env.do(http.MethodGet, "/products?min_price=abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodGet, "/products?page=1&perPage=2", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Items []interface{} `json:"items"`
		Total int64         `json:"total"`
	}
	decode(t, rec, &page)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, int64(3), page.Total)
}

func TestProductDetailEmbedsReviews(t *testing.T) {
	env := newTestEnv(t)
	p := env.product("Mattress", "1000.00", 3, time.Now())
	u1, _ := env.user("alice", false)
	u2, _ := env.user("bobby", false)
	require.NoError(t, env.db.Create(&domain.Review{ProductID: p.ID, UserID: u1.ID, Rating: 3}).Error)
	require.NoError(t, env.db.Create(&domain.Review{ProductID: p.ID, UserID: u2.ID, Rating: 5}).Error)

	rec := env.do(http.MethodGet, "/products/"+itoa(p.ID), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var detail struct {
		AverageRating float64 `json:"average_rating"`
		ReviewCount   int     `json:"review_count"`
		Reviews       []struct {
			User struct {
				Username string `json:"username"`
			} `json:"user"`
		} `json:"reviews"`
	}
	decode(t, rec, &detail)
	assert.Equal(t, 4.0, detail.AverageRating)
	assert.Equal(t, 2, detail.ReviewCount)
	require.Len(t, detail.Reviews, 2)
	assert.NotEmpty(t, detail.Reviews[0].User.Username)

	rec = env.do(http.MethodGet, "/products/999", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrderVisibility(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceToken := env.user("alice", false)
	bob, bobToken := env.user("bobby", false)
	_, staffToken := env.user("manager", true)
	require.NoError(t, env.db.Create(&domain.Order{UserID: alice.ID, Address: "A", Phone: "1"}).Error)
	bobOrder := domain.Order{UserID: bob.ID, Address: "B", Phone: "2"}
	require.NoError(t, env.db.Create(&bobOrder).Error)

	count := func(token string) int {
		rec := env.do(http.MethodGet, "/orders", nil, token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var rows []map[string]interface{}
		decode(t, rec, &rows)
		return len(rows)
	}
	assert.Equal(t, 1, count(aliceToken))
	assert.Equal(t, 1, count(bobToken))
	assert.Equal(t, 2, count(staffToken))

	rec := env.do(http.MethodGet, "/orders", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodGet, "/orders/"+itoa(bobOrder.ID), nil, aliceToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodPatch, "/orders/"+itoa(bobOrder.ID), map[string]bool{"paid": true}, bobToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodPatch, "/orders/"+itoa(bobOrder.ID), map[string]bool{"paid": true}, staffToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated struct {
		Paid bool `json:"paid"`
		User struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	decode(t, rec, &updated)
	assert.True(t, updated.Paid)
	assert.Equal(t, "bobby", updated.User.Username)
}

func TestOrderPlacement(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.user("alice", false)
	p := env.product("Mattress", "1250.50", 3, time.Now())
	pillow := domain.Pillow{Name: "Soft", Price: decimal.RequireFromString("300.00"), Stock: 5}
	require.NoError(t, env.db.Create(&pillow).Error)

	body := map[string]interface{}{
		"items": []map[string]interface{}{
			{"product_id": p.ID, "qty": 2},
			{"product_id": pillow.ID, "kind": "pillow", "qty": 1},
		},
		"address": "12 Industrial Area",
		"phone":   "9999999999",
	}
	rec := env.do(http.MethodPost, "/orders", body, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var order struct {
		TotalAmount decimal.Decimal `json:"total_amount"`
		Products    []struct {
			Name string `json:"name"`
			Qty  int    `json:"qty"`
		} `json:"products"`
	}
	decode(t, rec, &order)
	assert.True(t, decimal.RequireFromString("2801.00").Equal(order.TotalAmount), order.TotalAmount.String())
	require.Len(t, order.Products, 2)
	assert.Equal(t, "Mattress", order.Products[0].Name)

	var reloaded domain.Product
	require.NoError(t, env.db.First(&reloaded, p.ID).Error)
	assert.Equal(t, 1, reloaded.Stock)

	// not enough left, nothing changes
	body["items"] = []map[string]interface{}{
		{"product_id": pillow.ID, "kind": "pillow", "qty": 1},
		{"product_id": p.ID, "qty": 2},
	}
	rec = env.do(http.MethodPost, "/orders", body, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var reloadedPillow domain.Pillow
	require.NoError(t, env.db.First(&reloadedPillow, pillow.ID).Error)
	assert.Equal(t, 4, reloadedPillow.Stock)

	var orders int64
	require.NoError(t, env.db.Model(&domain.Order{}).Count(&orders).Error)
	assert.Equal(t, int64(1), orders)
}

func TestDuplicateReview(t *testing.T) {
	env := newTestEnv(t)
	p := env.product("Mattress", "1000.00", 3, time.Now())
	_, aliceToken := env.user("alice", false)
	_, bobToken := env.user("bobby", false)
	body := map[string]interface{}{"product": p.ID, "rating": 4, "comment": "good"}

	rec := env.do(http.MethodPost, "/reviews", body, aliceToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID   int64 `json:"id"`
		User struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	decode(t, rec, &created)
	assert.Equal(t, "alice", created.User.Username)

	rec = env.do(http.MethodPost, "/reviews", body, aliceToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/reviews", body, bobToken)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(http.MethodPost, "/reviews", map[string]interface{}{"product": p.ID, "rating": 6}, bobToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPatch, "/reviews/"+itoa(created.ID), map[string]interface{}{"rating": 1}, bobToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodPatch, "/reviews/"+itoa(created.ID), map[string]interface{}{"rating": 2}, aliceToken)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodPost, "/reviews", body, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProductReviews(t *testing.T) {
	env := newTestEnv(t)
	p1 := env.product("One", "10.00", 1, time.Now())
	p2 := env.product("Two", "20.00", 1, time.Now())
	alice, token := env.user("alice", false)
	bob, _ := env.user("bobby", false)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, env.db.Create(&domain.Review{ProductID: p1.ID, UserID: alice.ID, Rating: 2, Comment: "older", CreatedAt: base}).Error)
	require.NoError(t, env.db.Create(&domain.Review{ProductID: p1.ID, UserID: bob.ID, Rating: 5, Comment: "newer", CreatedAt: base.Add(time.Hour)}).Error)
	require.NoError(t, env.db.Create(&domain.Review{ProductID: p2.ID, UserID: alice.ID, Rating: 3, Comment: "other", CreatedAt: base}).Error)

	for _, query := range []string{"", "?product_id=", "?product_id=abc"} {
		rec := env.do(http.MethodGet, "/reviews/product_reviews"+query, nil, token)
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
		var missing []interface{}
		decode(t, rec, &missing)
		assert.NotNil(t, missing, query)
		assert.Empty(t, missing, query)
	}

	rec := env.do(http.MethodGet, "/reviews/product_reviews?product_id="+itoa(p1.ID), nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []struct {
		Comment string `json:"comment"`
		Product int64  `json:"product"`
	}
	decode(t, rec, &rows)
	require.Len(t, rows, 2)
	assert.Equal(t, "newer", rows[0].Comment)
	assert.Equal(t, "older", rows[1].Comment)
}

func TestCompanyAndInquiries(t *testing.T) {
	env := newTestEnv(t)
	_, userToken := env.user("customer", false)

	rec := env.do(http.MethodGet, "/company/single", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())

	rec = env.do(http.MethodPost, "/company", map[string]string{"description": "Foam"}, userToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	require.NoError(t, env.db.Create(&domain.CompanyInfo{Name: domain.DefaultCompanyName}).Error)
	rec = env.do(http.MethodGet, "/company/single", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var info map[string]interface{}
	decode(t, rec, &info)
	assert.Equal(t, domain.DefaultCompanyName, info["name"])

	rec = env.do(http.MethodGet, "/company/analytics/chart", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var chart ChartSeries
	decode(t, rec, &chart)
	assert.Len(t, chart.Manufacturing, 12)
	assert.Len(t, chart.Sales, 12)

	inquiry := map[string]interface{}{
		"name": "Ravi", "email": "ravi@example.com", "phone": "12345", "product": "EPE sheet", "quantity": 50,
	}
	rec = env.do(http.MethodPost, "/inquiries", inquiry, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var createdInquiry domain.Inquiry
	decode(t, rec, &createdInquiry)

	rec = env.do(http.MethodPatch, "/inquiries/"+itoa(createdInquiry.ID), map[string]int{"quantity": 1}, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = env.do(http.MethodGet, "/inquiries/", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var inquiries []domain.Inquiry
	decode(t, rec, &inquiries)
	assert.Len(t, inquiries, 1)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
