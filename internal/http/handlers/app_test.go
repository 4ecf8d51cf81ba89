package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"shopapi/internal/cache"
	"shopapi/internal/config"
	"shopapi/internal/domain"
	"shopapi/internal/http/handlers"
	"shopapi/internal/repos"
)

type testApp struct {
	t   *testing.T
	app *fiber.App
	d   *handlers.Deps
}

func newTestApp(t *testing.T, o handlers.Options) *testApp {
	t.Helper()
	cfg := config.Config{DBDSN: ":memory:", JWTSecret: "test-secret", TokenTTL: time.Minute, CacheTTL: time.Minute}
	db, err := repos.OpenDB(cfg.DBDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	d := handlers.NewDeps(db, cfg, cache.NewMemory(cfg.CacheTTL))
	d.Auth.Cost = bcrypt.MinCost
	return &testApp{t: t, app: handlers.NewApp(d, o), d: d}
}

// do sends a JSON request and decodes the JSON response into out when given.
func (a *testApp) do(method, path, token string, body any, out any) int {
	a.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		r = strings.NewReader(string(b))
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(a.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// register creates the account and returns a bearer token for it.
func (a *testApp) register(username string) string {
	a.t.Helper()
	pw := "password-" + username
	status := a.do("POST", "/register", "", map[string]string{
		"username": username, "email": username + "@example.com",
		"password": pw, "confirm_password": pw,
	}, nil)
	require.Equal(a.t, http.StatusCreated, status)
	return a.login(username, pw)
}

func (a *testApp) login(username, password string) string {
	a.t.Helper()
	var out struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	status := a.do("POST", "/login", "", map[string]string{"username": username, "password": password}, &out)
	require.Equal(a.t, http.StatusOK, status)
	require.Equal(a.t, "bearer", out.TokenType)
	return out.AccessToken
}

func (a *testApp) admin() string {
	a.t.Helper()
	_, _, err := a.d.Auth.EnsureAdmin(context.Background(), domain.NewUser{
		Username: "admin", Email: "admin@example.com", Password: "admin-password",
	})
	require.NoError(a.t, err)
	return a.login("admin", "admin-password")
}

type cartOut struct {
	Items []struct {
		ProductID int64  `json:"product_id"`
		Name      string `json:"name"`
		Price     string `json:"price"`
		Quantity  int    `json:"quantity"`
		SubTotal  string `json:"sub_total"`
	} `json:"items"`
	TotalItems  int    `json:"total_items"`
	TotalAmount string `json:"total_amount"`
}

type message struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
	Success bool   `json:"success"`
}

func TestCartFlow(t *testing.T) {
	a := newTestApp(t, handlers.Options{})
	tok := a.register("alice")

	var empty cartOut
	require.Equal(t, http.StatusOK, a.do("GET", "/cart/", tok, nil, &empty))
	assert.Empty(t, empty.Items)
	assert.Equal(t, "0.00", empty.TotalAmount)

	var m message
	require.Equal(t, http.StatusCreated, a.do("POST", "/cart/items/", tok, map[string]any{"product_id": 1, "quantity": 2}, &m))
	assert.True(t, m.Success)
	require.Equal(t, http.StatusCreated, a.do("POST", "/cart/items", tok, map[string]any{"product_id": 3}, nil))
	require.Equal(t, http.StatusCreated, a.do("POST", "/cart/items", tok, map[string]any{"product_id": 1, "quantity": 1}, nil))

	var cart cartOut
	require.Equal(t, http.StatusOK, a.do("GET", "/cart", tok, nil, &cart))
	require.Len(t, cart.Items, 2)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, "89.99", cart.Items[0].Price)
	assert.Equal(t, "269.97", cart.Items[0].SubTotal)
	assert.Equal(t, 4, cart.TotalItems)
	assert.Equal(t, "282.47", cart.TotalAmount)

	require.Equal(t, http.StatusOK, a.do("PUT", "/cart/items/1/", tok, map[string]any{"quantity": 1}, nil))
	require.Equal(t, http.StatusOK, a.do("DELETE", "/cart/items/3/", tok, nil, nil))
	assert.Equal(t, http.StatusNotFound, a.do("DELETE", "/cart/items/3/", tok, nil, nil))

	require.Equal(t, http.StatusOK, a.do("GET", "/cart/", tok, nil, &cart))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "89.99", cart.TotalAmount)

	require.Equal(t, http.StatusOK, a.do("DELETE", "/cart/", tok, nil, &m))
	assert.Equal(t, "Removed 1 item(s) from cart", m.Message)
}

func TestCartErrors(t *testing.T) {
	a := newTestApp(t, handlers.Options{})
	tok := a.register("bob")

	var m message
	assert.Equal(t, http.StatusBadRequest, a.do("POST", "/cart/items", tok, map[string]any{"product_id": 1, "quantity": 26}, &m))
	assert.False(t, m.Success)
	assert.Equal(t, http.StatusBadRequest, a.do("POST", "/cart/items", tok, map[string]any{"product_id": 5}, nil))
	assert.Equal(t, http.StatusNotFound, a.do("POST", "/cart/items", tok, map[string]any{"product_id": 999}, nil))
	assert.Equal(t, http.StatusUnprocessableEntity, a.do("POST", "/cart/items", tok, map[string]any{"product_id": 1, "quantity": 0}, nil))
	assert.Equal(t, http.StatusUnprocessableEntity, a.do("POST", "/cart/items", tok, map[string]any{"quantity": 1}, nil))
	assert.Equal(t, http.StatusUnprocessableEntity, a.do("PUT", "/cart/items/abc", tok, map[string]any{"quantity": 1}, nil))
	assert.Equal(t, http.StatusNotFound, a.do("PUT", "/cart/items/2", tok, map[string]any{"quantity": 1}, nil))
}

func TestCartRequiresToken(t *testing.T) {
	a := newTestApp(t, handlers.Options{})

	req := httptest.NewRequest("GET", "/cart/", nil)
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))

	assert.Equal(t, http.StatusUnauthorized, a.do("GET", "/cart/", "garbage", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, a.do("GET", "/me", "", nil, nil))
}

func TestLoginFailures(t *testing.T) {
	a := newTestApp(t, handlers.Options{})
	a.register("carol")

	var m message
	assert.Equal(t, http.StatusUnauthorized, a.do("POST", "/login", "", map[string]string{"username": "carol", "password": "nope"}, &m))
	assert.Equal(t, "Invalid Credentials", m.Detail)
	assert.Equal(t, http.StatusUnprocessableEntity, a.do("POST", "/login", "", map[string]string{"username": "carol"}, nil))
	assert.Equal(t, http.StatusConflict, a.do("POST", "/register", "", map[string]string{
		"username": "carol", "email": "c2@example.com", "password": "password-x", "confirm_password": "password-x",
	}, nil))
	assert.Equal(t, http.StatusUnprocessableEntity, a.do("POST", "/register", "", map[string]string{
		"username": "dan", "email": "dan@example.com", "password": "password-x", "confirm_password": "different",
	}, nil))
}

func TestLoginAcceptsForm(t *testing.T) {
	a := newTestApp(t, handlers.Options{})
	a.register("erin")

	form := url.Values{"username": {"erin@example.com"}, "password": {"password-erin"}}
	req := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var me domain.User
	tok := a.login("erin", "password-erin")
	require.Equal(t, http.StatusOK, a.do("GET", "/me", tok, nil, &me))
	assert.Equal(t, "erin", me.Username)
}

func TestLoginRateLimited(t *testing.T) {
	a := newTestApp(t, handlers.Options{LoginAttempts: 2})
	bad := map[string]string{"username": "x", "password": "y"}
	assert.Equal(t, http.StatusUnauthorized, a.do("POST", "/login", "", bad, nil))
	assert.Equal(t, http.StatusUnauthorized, a.do("POST", "/login", "", bad, nil))
	assert.Equal(t, http.StatusTooManyRequests, a.do("POST", "/login", "", bad, nil))
}

func TestProductReads(t *testing.T) {
	a := newTestApp(t, handlers.Options{})

	var list []domain.Product
	require.Equal(t, http.StatusOK, a.do("GET", "/products/", "", nil, &list))
	assert.Len(t, list, 4)

	require.Equal(t, http.StatusOK, a.do("GET", "/products/?q=shoe&limit=1&skip=1", "", nil, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Canvas Shoe", list[0].Name)

	var p domain.Product
	require.Equal(t, http.StatusOK, a.do("GET", "/products/4/", "", nil, &p))
	assert.Equal(t, "Olive Oil", p.Name)
	assert.Equal(t, "18.75", p.Price.StringFixed(2))

	assert.Equal(t, http.StatusNotFound, a.do("GET", "/products/999", "", nil, nil))
	assert.Equal(t, http.StatusUnprocessableEntity, a.do("GET", "/products/abc", "", nil, nil))
	assert.Equal(t, http.StatusUnprocessableEntity, a.do("GET", "/products/?limit=0", "", nil, nil))
	assert.Equal(t, http.StatusUnprocessableEntity, a.do("GET", "/products/?q=%3Cscript%3E", "", nil, nil))
}

func TestProductAdmin(t *testing.T) {
	a := newTestApp(t, handlers.Options{})
	user := a.register("frank")
	admin := a.admin()

	body := map[string]any{"name": "Sandals", "category_id": 1, "price": "24.50", "stock": 8}
	assert.Equal(t, http.StatusUnauthorized, a.do("POST", "/products/", "", body, nil))
	assert.Equal(t, http.StatusForbidden, a.do("POST", "/products/", user, body, nil))

	var created domain.Product
	require.Equal(t, http.StatusCreated, a.do("POST", "/products/", admin, body, &created))
	assert.Equal(t, "sandals", created.Slug)
	assert.True(t, created.IsAvailable)
	assert.Equal(t, http.StatusConflict, a.do("POST", "/products/", admin, body, nil))

	bad := map[string]any{"name": "Cheap", "category_id": 1, "price": "1.999", "stock": 1}
	assert.Equal(t, http.StatusUnprocessableEntity, a.do("POST", "/products/", admin, bad, nil))
	bad = map[string]any{"name": "Odd", "category_id": 1, "price": "1.00", "stock": 1, "unit": "BARREL"}
	assert.Equal(t, http.StatusUnprocessableEntity, a.do("POST", "/products/", admin, bad, nil))

	// Warm the listing, then make sure the write is visible.
	var list []domain.Product
	require.Equal(t, http.StatusOK, a.do("GET", "/products/?q=sandals", "", nil, &list))
	require.Len(t, list, 1)

	var updated domain.Product
	path := "/products/" + strconv.FormatInt(created.ID, 10) + "/"
	require.Equal(t, http.StatusOK, a.do("PATCH", path, admin, map[string]any{"price": "19.99"}, &updated))
	assert.Equal(t, "19.99", updated.Price.StringFixed(2))
	assert.Equal(t, 8, updated.Stock)
	require.Equal(t, http.StatusOK, a.do("GET", "/products/?q=sandals", "", nil, &list))
	assert.Equal(t, "19.99", list[0].Price.StringFixed(2))

	assert.Equal(t, http.StatusNotFound, a.do("PATCH", "/products/999", admin, map[string]any{"stock": 1}, nil))
	assert.Equal(t, http.StatusConflict, a.do("PATCH", path, admin, map[string]any{"name": "Running Shoe"}, nil))

	assert.Equal(t, http.StatusNoContent, a.do("DELETE", path, admin, nil, nil))
	assert.Equal(t, http.StatusNotFound, a.do("DELETE", path, admin, nil, nil))
	assert.Equal(t, http.StatusNotFound, a.do("GET", path, "", nil, nil))
}

func TestCategories(t *testing.T) {
	a := newTestApp(t, handlers.Options{})
	admin := a.admin()

	var cats []domain.Category
	require.Equal(t, http.StatusOK, a.do("GET", "/categories", "", nil, &cats))
	assert.Len(t, cats, 3)
	assert.Equal(t, http.StatusCreated, a.do("POST", "/categories/", admin, map[string]string{"name": "Toys"}, nil))
	assert.Equal(t, http.StatusConflict, a.do("POST", "/categories/", admin, map[string]string{"name": "toys"}, nil))
}

func TestHealthAndFallback(t *testing.T) {
	a := newTestApp(t, handlers.DefaultOptions())

	var h struct {
		OK    bool `json:"ok"`
		Cache bool `json:"cache"`
	}
	require.Equal(t, http.StatusOK, a.do("GET", "/healthz", "", nil, &h))
	assert.True(t, h.OK)
	assert.True(t, h.Cache)

	var m message
	assert.Equal(t, http.StatusNotFound, a.do("GET", "/nope", "", nil, &m))
	assert.Equal(t, "Not Found", m.Detail)
}
