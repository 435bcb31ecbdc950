// internal/storage/storage_test.go
package storage

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderkaro/orderkaro-backend/config"
	"github.com/orderkaro/orderkaro-backend/internal/core"
	"github.com/orderkaro/orderkaro-backend/internal/domain"
)

// testDBSetup creates a temporary SQLite DB with the full schema.
func testDBSetup(t *testing.T) *sql.DB {
	t.Helper()

	cfg := &config.Config{
		StoreDbDir:  t.TempDir(),
		StoreDbFile: "test_store.db",
	}
	db, err := ConnectStoreDB(cfg)
	require.NoError(t, err, "failed to open test database")

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: failed to close test database: %v", err)
		}
	})
	return db
}

func seedUser(t *testing.T, db *sql.DB) string {
	t.Helper()
	userId := uuid.New().String()
	_, err := CreateUser(context.Background(), db, userId, "Test User", userId+"@test.local", "hash")
	require.NoError(t, err)
	return userId
}

func seedProduct(t *testing.T, db *sql.DB, name string, price float64, stock int) int64 {
	t.Helper()
	ctx := context.Background()
	catID, err := CreateCategory(ctx, db, "staples")
	require.NoError(t, err)

	id, err := CreateProduct(ctx, db, &domain.Product{
		Name: name, Price: price, Stock: stock, CategoryID: catID,
	})
	require.NoError(t, err)
	return id
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	db := testDBSetup(t)
	ctx := context.Background()

	_, err := CreateUser(ctx, db, uuid.New().String(), "A", "dup@test.local", "h1")
	require.NoError(t, err)

	_, err = CreateUser(ctx, db, uuid.New().String(), "B", "dup@test.local", "h2")
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestAddCartItemMergesSequentialAdds(t *testing.T) {
	db := testDBSetup(t)
	ctx := context.Background()
	userId := seedUser(t, db)
	productID := seedProduct(t, db, "Atta 5kg", 299, 5)

	require.NoError(t, AddCartItem(ctx, db, userId, productID, 2))
	require.NoError(t, AddCartItem(ctx, db, userId, productID, 1))

	lines, err := ListCartLines(ctx, db, userId)
	require.NoError(t, err)
	require.Len(t, lines, 1, "no duplicate row for the same (user, product)")
	assert.Equal(t, 3, lines[0].Quantity, "second add increments the existing line")
	assert.Equal(t, "Atta 5kg", lines[0].ProductName)
}

func TestAddCartItemUnknownProduct(t *testing.T) {
	db := testDBSetup(t)
	userId := seedUser(t, db)

	err := AddCartItem(context.Background(), db, userId, 9999, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestSetCartItemQuantityMissingLine(t *testing.T) {
	db := testDBSetup(t)
	userId := seedUser(t, db)
	productID := seedProduct(t, db, "Milk 1L", 60, 10)

	err := SetCartItemQuantity(context.Background(), db, userId, productID, 4)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
}

func TestDefaultAddressIsExclusive(t *testing.T) {
	db := testDBSetup(t)
	ctx := context.Background()
	userId := seedUser(t, db)

	first, err := CreateAddress(ctx, db, &domain.Address{
		UserId: userId, Line: "12 MG Road", City: "Bengaluru", State: "KA",
		Pincode: "560001", Type: domain.AddressTypeHome, IsDefault: true,
	})
	require.NoError(t, err)

	second, err := CreateAddress(ctx, db, &domain.Address{
		UserId: userId, Line: "4 Park Street", City: "Kolkata", State: "WB",
		Pincode: "700016", Type: domain.AddressTypeWork, IsDefault: true,
	})
	require.NoError(t, err)

	addresses, err := ListAddresses(ctx, db, userId)
	require.NoError(t, err)
	require.Len(t, addresses, 2)

	defaults := 0
	for _, a := range addresses {
		if a.IsDefault {
			defaults++
			assert.Equal(t, second, a.ID)
		}
	}
	assert.Equal(t, 1, defaults, "exactly one default after creating a second default")

	require.NoError(t, SetDefaultAddress(ctx, db, userId, first))
	addresses, err = ListAddresses(ctx, db, userId)
	require.NoError(t, err)
	defaults = 0
	for _, a := range addresses {
		if a.IsDefault {
			defaults++
			assert.Equal(t, first, a.ID)
		}
	}
	assert.Equal(t, 1, defaults, "exactly one default after moving the flag")
}

func TestSetDefaultAddressWrongOwner(t *testing.T) {
	db := testDBSetup(t)
	ctx := context.Background()
	owner := seedUser(t, db)
	other := seedUser(t, db)

	id, err := CreateAddress(ctx, db, &domain.Address{
		UserId: owner, Line: "1 Lane", City: "Pune", State: "MH",
		Pincode: "411001", Type: domain.AddressTypeHome,
	})
	require.NoError(t, err)

	assert.ErrorIs(t, SetDefaultAddress(ctx, db, other, id), ErrAddressNotFound)
}

func TestCreateOrderFromCart(t *testing.T) {
	db := testDBSetup(t)
	ctx := context.Background()
	userId := seedUser(t, db)
	atta := seedProduct(t, db, "Atta 5kg", 299, 5)
	milk := seedProduct(t, db, "Milk 1L", 60, 10)

	addressID, err := CreateAddress(ctx, db, &domain.Address{
		UserId: userId, Line: "12 MG Road", City: "Bengaluru", State: "KA",
		Pincode: "560001", Type: domain.AddressTypeHome, IsDefault: true,
	})
	require.NoError(t, err)

	require.NoError(t, AddCartItem(ctx, db, userId, atta, 2))
	require.NoError(t, AddCartItem(ctx, db, userId, milk, 3))

	order, err := CreateOrderFromCart(ctx, db, userId, addressID)
	require.NoError(t, err)
	assert.InDelta(t, 299*2+60*3, order.TotalPrice, 0.001)
	assert.Len(t, order.Items, 2)
	assert.Equal(t, domain.OrderStatusPending, order.Status)

	// Stock was debited and the cart cleared.
	p, err := GetProduct(ctx, db, atta)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Stock)

	lines, err := ListCartLines(ctx, db, userId)
	require.NoError(t, err)
	assert.Empty(t, lines)

	// Snapshot survives a later price change.
	require.NoError(t, UpdateProduct(ctx, db, atta, []string{"price = ?"}, []any{349.0}))
	got, err := GetOrder(ctx, db, userId, order.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, 299.0, got.Items[0].ProductPrice, "order items keep the purchase-time price")
}

func TestCreateOrderInsufficientStockRollsBack(t *testing.T) {
	db := testDBSetup(t)
	ctx := context.Background()
	userId := seedUser(t, db)
	productID := seedProduct(t, db, "Ghee 1kg", 650, 1)

	addressID, err := CreateAddress(ctx, db, &domain.Address{
		UserId: userId, Line: "1 Lane", City: "Pune", State: "MH",
		Pincode: "411001", Type: domain.AddressTypeHome,
	})
	require.NoError(t, err)

	require.NoError(t, AddCartItem(ctx, db, userId, productID, 2))

	_, err = CreateOrderFromCart(ctx, db, userId, addressID)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// Nothing committed: stock intact, cart intact, no orders.
	p, err := GetProduct(ctx, db, productID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Stock)

	lines, err := ListCartLines(ctx, db, userId)
	require.NoError(t, err)
	assert.Len(t, lines, 1)

	orders, err := ListOrders(ctx, db, userId)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreateOrderEmptyCart(t *testing.T) {
	db := testDBSetup(t)
	ctx := context.Background()
	userId := seedUser(t, db)

	addressID, err := CreateAddress(ctx, db, &domain.Address{
		UserId: userId, Line: "1 Lane", City: "Pune", State: "MH",
		Pincode: "411001", Type: domain.AddressTypeHome,
	})
	require.NoError(t, err)

	_, err = CreateOrderFromCart(ctx, db, userId, addressID)
	assert.ErrorIs(t, err, ErrCartEmpty)
}

func TestListProductsFilterComposition(t *testing.T) {
	db := testDBSetup(t)
	ctx := context.Background()

	staples, err := CreateCategory(ctx, db, "staples")
	require.NoError(t, err)
	snacks, err := CreateCategory(ctx, db, "snacks")
	require.NoError(t, err)

	for _, p := range []domain.Product{
		{Name: "Basmati Rice 5kg", Price: 499, Stock: 10, CategoryID: staples},
		{Name: "Toor Dal 1kg", Price: 180, Stock: 25, CategoryID: staples},
		{Name: "Potato Chips", Price: 30, Stock: 100, CategoryID: snacks},
	} {
		_, err := CreateProduct(ctx, db, &p)
		require.NoError(t, err)
	}

	names := func(products []domain.Product) []string {
		out := make([]string, 0, len(products))
		for _, p := range products {
			out = append(out, p.Name)
		}
		return out
	}

	t.Run("category", func(t *testing.T) {
		got, err := ListProducts(ctx, db, &core.ProductQuery{Limit: 50, CategoryID: &staples})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"Basmati Rice 5kg", "Toor Dal 1kg"}, names(got))
	})

	t.Run("price range", func(t *testing.T) {
		min, max := 100.0, 200.0
		got, err := ListProducts(ctx, db, &core.ProductQuery{Limit: 50, MinPrice: &min, MaxPrice: &max})
		require.NoError(t, err)
		assert.Equal(t, []string{"Toor Dal 1kg"}, names(got))
	})

	t.Run("search", func(t *testing.T) {
		got, err := ListProducts(ctx, db, &core.ProductQuery{Limit: 50, Search: "rice"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Basmati Rice 5kg"}, names(got))
	})

	t.Run("search escapes wildcards", func(t *testing.T) {
		got, err := ListProducts(ctx, db, &core.ProductQuery{Limit: 50, Search: "100%"})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("filters combine", func(t *testing.T) {
		max := 200.0
		got, err := ListProducts(ctx, db, &core.ProductQuery{
			Limit: 50, CategoryID: &staples, MaxPrice: &max,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Toor Dal 1kg"}, names(got))
	})

	t.Run("sorted by price desc", func(t *testing.T) {
		got, err := ListProducts(ctx, db, &core.ProductQuery{
			Limit: 50, SortBy: "price", SortOrder: "desc",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Basmati Rice 5kg", "Toor Dal 1kg", "Potato Chips"}, names(got))
	})
}
