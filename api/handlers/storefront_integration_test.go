// api/handlers/storefront_integration_test.go
package handlers_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderkaro/orderkaro-backend/api/models"
	"github.com/orderkaro/orderkaro-backend/internal/domain"
	"github.com/orderkaro/orderkaro-backend/internal/storage"
)

// doJSON issues a request with an optional bearer token and JSON body.
func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return res
}

func decodeBody(t *testing.T, res *http.Response, dest any) {
	t.Helper()
	defer res.Body.Close()
	require.NoError(t, json.NewDecoder(res.Body).Decode(dest))
}

// signupAndLogin registers a fresh user and returns their token and user id.
func signupAndLogin(t *testing.T, server *httptest.Server, email string) (string, string) {
	t.Helper()

	res := doJSON(t, http.MethodPost, server.URL+"/auth/signup", "",
		models.SignupRequest{Name: "Flow Tester", Email: email, Password: "StrongPassword123!"})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	res.Body.Close()

	res = doJSON(t, http.MethodPost, server.URL+"/auth/login", "",
		models.LoginRequest{Email: email, Password: "StrongPassword123!"})
	require.Equal(t, http.StatusOK, res.StatusCode)

	var login models.LoginResponse
	decodeBody(t, res, &login)
	return login.Token, login.User.UserId
}

// promoteToAdmin flips the admin flag directly in the store and returns a
// fresh token carrying the admin claim.
func promoteToAdmin(t *testing.T, server *httptest.Server, db *sql.DB, email, userId string) string {
	t.Helper()

	_, err := db.ExecContext(context.Background(), "UPDATE users SET is_admin = 1 WHERE user_id = ?", userId)
	require.NoError(t, err)

	res := doJSON(t, http.MethodPost, server.URL+"/auth/login", "",
		models.LoginRequest{Email: email, Password: "StrongPassword123!"})
	require.Equal(t, http.StatusOK, res.StatusCode)

	var login models.LoginResponse
	decodeBody(t, res, &login)
	return login.Token
}

// TestStorefrontFlow walks the whole shopping path: admin seeds the catalog,
// a customer browses, fills a cart, saves an address and checks out.
func TestStorefrontFlow(t *testing.T) {
	server, db, cleanup := setupTestServer(t)
	defer cleanup()

	adminToken, adminID := signupAndLogin(t, server, "admin@orderkaro.test")
	adminToken = promoteToAdmin(t, server, db, "admin@orderkaro.test", adminID)
	userToken, _ := signupAndLogin(t, server, "shopper@orderkaro.test")

	var categoryID int64
	t.Run("Admin Creates Category", func(t *testing.T) {
		res := doJSON(t, http.MethodPost, server.URL+"/api/v1/admin/categories", adminToken,
			map[string]string{"name": "staples"})
		assert.Equal(t, http.StatusCreated, res.StatusCode)

		var body struct {
			ID int64 `json:"id"`
		}
		decodeBody(t, res, &body)
		assert.NotZero(t, body.ID)
		categoryID = body.ID
	})

	var productID int64
	t.Run("Admin Creates Product", func(t *testing.T) {
		res := doJSON(t, http.MethodPost, server.URL+"/api/v1/admin/products", adminToken,
			models.CreateProductRequest{
				Name:       "Basmati Rice 5kg",
				Price:      499,
				Stock:      10,
				CategoryID: categoryID,
			})
		assert.Equal(t, http.StatusCreated, res.StatusCode)

		var p domain.Product
		decodeBody(t, res, &p)
		assert.NotZero(t, p.ID)
		productID = p.ID
	})

	t.Run("Non-Admin Cannot Create Product", func(t *testing.T) {
		res := doJSON(t, http.MethodPost, server.URL+"/api/v1/admin/products", userToken,
			models.CreateProductRequest{Name: "Nope", Price: 1, Stock: 1, CategoryID: categoryID})
		assert.Equal(t, http.StatusForbidden, res.StatusCode)
		res.Body.Close()
	})

	t.Run("Customer Lists Products", func(t *testing.T) {
		res := doJSON(t, http.MethodGet, server.URL+"/api/v1/products?category="+fmt.Sprint(categoryID), userToken, nil)
		assert.Equal(t, http.StatusOK, res.StatusCode)

		var body struct {
			Products []domain.Product `json:"products"`
			Count    int              `json:"count"`
		}
		decodeBody(t, res, &body)
		if assert.Equal(t, 1, body.Count) {
			assert.Equal(t, "Basmati Rice 5kg", body.Products[0].Name)
		}

		// A category no product belongs to filters everything out.
		res = doJSON(t, http.MethodGet, server.URL+fmt.Sprintf("/api/v1/products?category=%d", categoryID+1000), userToken, nil)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		decodeBody(t, res, &body)
		assert.Equal(t, 0, body.Count)
	})

	t.Run("Adding Same Product Twice Merges The Line", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			res := doJSON(t, http.MethodPost, server.URL+"/api/v1/cart/items", userToken,
				models.AddCartItemRequest{ProductID: productID, Quantity: 2})
			assert.Equal(t, http.StatusCreated, res.StatusCode)
			res.Body.Close()
		}

		res := doJSON(t, http.MethodGet, server.URL+"/api/v1/cart", userToken, nil)
		assert.Equal(t, http.StatusOK, res.StatusCode)

		var body struct {
			Items []domain.CartLine `json:"items"`
			Total float64           `json:"total"`
		}
		decodeBody(t, res, &body)
		if assert.Len(t, body.Items, 1, "repeated adds collapse into one line") {
			assert.Equal(t, 4, body.Items[0].Quantity)
		}
		assert.InDelta(t, 4*499.0, body.Total, 0.001)
	})

	t.Run("Cart Add Unknown Product Is 404", func(t *testing.T) {
		res := doJSON(t, http.MethodPost, server.URL+"/api/v1/cart/items", userToken,
			models.AddCartItemRequest{ProductID: 99999, Quantity: 1})
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
		res.Body.Close()
	})

	var addressID int64
	t.Run("Customer Saves Default Address", func(t *testing.T) {
		// Mixed-case type is normalized, not rejected.
		res := doJSON(t, http.MethodPost, server.URL+"/api/v1/addresses", userToken,
			models.AddressRequest{
				Line: "12 MG Road", City: "Bengaluru", State: "Karnataka",
				Pincode: "560001", Type: "Home", IsDefault: true,
			})
		assert.Equal(t, http.StatusCreated, res.StatusCode)

		var a domain.Address
		decodeBody(t, res, &a)
		assert.True(t, a.IsDefault)
		assert.Equal(t, domain.AddressTypeHome, a.Type)
		addressID = a.ID
	})

	t.Run("Address With Leading-Zero Pincode Is Rejected", func(t *testing.T) {
		res := doJSON(t, http.MethodPost, server.URL+"/api/v1/addresses", userToken,
			models.AddressRequest{
				Line: "1 Zero Lane", City: "Nowhere", State: "NA",
				Pincode: "060001", Type: "home",
			})
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		res.Body.Close()
	})

	t.Run("Address With Unknown Type Is Rejected", func(t *testing.T) {
		res := doJSON(t, http.MethodPost, server.URL+"/api/v1/addresses", userToken,
			models.AddressRequest{
				Line: "2 Office Park", City: "Bengaluru", State: "Karnataka",
				Pincode: "560001", Type: "office",
			})
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		res.Body.Close()
	})

	var orderID int64
	t.Run("Checkout Snapshots Cart And Debits Stock", func(t *testing.T) {
		res := doJSON(t, http.MethodPost, server.URL+"/api/v1/orders", userToken,
			models.CheckoutRequest{AddressID: addressID})
		assert.Equal(t, http.StatusCreated, res.StatusCode)

		var order domain.Order
		decodeBody(t, res, &order)
		orderID = order.ID
		assert.InDelta(t, 4*499.0, order.TotalPrice, 0.001)
		if assert.Len(t, order.Items, 1) {
			assert.Equal(t, 4, order.Items[0].Quantity)
		}

		// Stock was debited and the cart emptied (direct DB checks).
		p, err := storage.GetProduct(context.Background(), db, productID)
		require.NoError(t, err)
		assert.Equal(t, 6, p.Stock)

		lines, err := storage.ListCartLines(context.Background(), db, order.UserId)
		require.NoError(t, err)
		assert.Empty(t, lines)
	})

	t.Run("Checkout With Empty Cart Fails", func(t *testing.T) {
		res := doJSON(t, http.MethodPost, server.URL+"/api/v1/orders", userToken,
			models.CheckoutRequest{AddressID: addressID})
		assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
		res.Body.Close()
	})

	t.Run("Order History Contains The Order", func(t *testing.T) {
		res := doJSON(t, http.MethodGet, server.URL+"/api/v1/orders", userToken, nil)
		assert.Equal(t, http.StatusOK, res.StatusCode)

		var body struct {
			Orders []domain.Order `json:"orders"`
			Count  int            `json:"count"`
		}
		decodeBody(t, res, &body)
		assert.Equal(t, 1, body.Count)

		res = doJSON(t, http.MethodGet, server.URL+fmt.Sprintf("/api/v1/orders/%d", orderID), userToken, nil)
		assert.Equal(t, http.StatusOK, res.StatusCode)

		var order domain.Order
		decodeBody(t, res, &order)
		assert.Len(t, order.Items, 1)
	})

	t.Run("Orders Are Owner Scoped", func(t *testing.T) {
		res := doJSON(t, http.MethodGet, server.URL+fmt.Sprintf("/api/v1/orders/%d", orderID), adminToken, nil)
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
		res.Body.Close()
	})

	t.Run("Diagnostics Reports Query Activity", func(t *testing.T) {
		res := doJSON(t, http.MethodGet, server.URL+"/health/diagnostics", "", nil)
		assert.Equal(t, http.StatusOK, res.StatusCode)

		var body struct {
			Connection struct {
				Queries struct {
					Count int `json:"count"`
				} `json:"queries"`
				Recommendations []string `json:"recommendations"`
			} `json:"connection"`
			Cache struct {
				Hits   int64 `json:"hits"`
				Misses int64 `json:"misses"`
			} `json:"cache"`
		}
		decodeBody(t, res, &body)
		assert.Greater(t, body.Connection.Queries.Count, 0)
		assert.NotEmpty(t, body.Connection.Recommendations)
		assert.Greater(t, body.Cache.Misses, int64(0))
	})
}
