package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/ecobazaar/internal/cart/application"
	"github.com/dmehra2102/ecobazaar/internal/cart/domain"
	catalog "github.com/dmehra2102/ecobazaar/internal/catalog/domain"
)

type fakeService struct {
	cart       domain.Cart
	gotFilter  domain.Filter
	gotSort    domain.SortKey
	gotAddQty  int
	removedID  int64
	clearedFor int64
}

func (f *fakeService) Get(context.Context, int64) (domain.Cart, error) { return f.cart, nil }

func (f *fakeService) View(_ context.Context, _ int64, flt domain.Filter, key domain.SortKey) (application.View, error) {
	f.gotFilter, f.gotSort = flt, key
	items := domain.FilterAndSort(f.cart.Items, flt, key)
	return application.View{CartID: f.cart.ID, Items: items, Summary: domain.Summarize(items)}, nil
}

func (f *fakeService) AddItem(_ context.Context, _ int64, productID int64, qty int) (domain.CartItem, error) {
	if productID == 404 {
		return domain.CartItem{}, catalog.ErrProductNotFound
	}
	if err := domain.ValidateQuantity(qty); err != nil {
		return domain.CartItem{}, err
	}
	f.gotAddQty = qty
	return domain.CartItem{ID: 11, Quantity: qty}, nil
}

func (f *fakeService) UpdateQuantity(_ context.Context, _ int64, itemID int64, qty int) (domain.CartItem, error) {
	if err := domain.ValidateQuantity(qty); err != nil {
		return domain.CartItem{}, err
	}
	return domain.CartItem{ID: itemID, Quantity: qty}, nil
}

func (f *fakeService) RemoveItem(_ context.Context, _ int64, itemID int64) error {
	if itemID == 404 {
		return domain.ErrItemNotFound
	}
	f.removedID = itemID
	return nil
}

func (f *fakeService) Clear(_ context.Context, userID int64) error {
	f.clearedFor = userID
	return nil
}

func newServer() (http.Handler, *fakeService) {
	svc := &fakeService{cart: domain.Cart{ID: 3, UserID: 1, Items: []domain.CartItem{
		{ID: 1, Quantity: 2, Product: catalog.Product{ID: 10, Name: "Brush", Category: "Personal Care", Price: 4, CarbonFootprint: 0.5, EcoRating: catalog.RatingAPlus, ImageURL: "b.png"}},
		{ID: 2, Quantity: 1, Product: catalog.Product{ID: 20, Name: "Jacket", Category: "Clothing", Price: 60, CarbonFootprint: 12, EcoRating: catalog.RatingC}},
	}}}
	r := chi.NewRouter()
	r.Mount("/api/cart", NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).Routes())
	return r, svc
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	h.ServeHTTP(rec, httptest.NewRequest(method, path, rd))
	return rec
}

func TestGetCart(t *testing.T) {
	h, _ := newServer()
	rec := do(h, http.MethodGet, "/api/cart/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":3,"items":[
		{"id":1,"productId":10,"productName":"Brush","price":4,"quantity":2,"imageUrl":"b.png","category":"Personal Care","carbonFootprint":0.5,"ecoRating":"A+"},
		{"id":2,"productId":20,"productName":"Jacket","price":60,"quantity":1,"imageUrl":"","category":"Clothing","carbonFootprint":12,"ecoRating":"C"}
	]}`, rec.Body.String())
}

func TestFilteredCart(t *testing.T) {
	h, svc := newServer()
	rec := do(h, http.MethodGet, "/api/cart/1/filtered?category=Clothing&minPrice=10&sortBy=price_desc", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "Clothing", svc.gotFilter.Category)
	require.NotNil(t, svc.gotFilter.MinPrice)
	assert.Equal(t, 10.0, *svc.gotFilter.MinPrice)
	assert.Nil(t, svc.gotFilter.MaxCarbon)
	assert.Equal(t, domain.SortPriceDesc, svc.gotSort)
	assert.Contains(t, rec.Body.String(), `"totalItems":1`)
	assert.Contains(t, rec.Body.String(), `"totalAmount":60`)
	assert.Contains(t, rec.Body.String(), `"totalCarbon":12`)

	rec = do(h, http.MethodGet, "/api/cart/1/filtered?maxCarbon=lots", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddItem(t *testing.T) {
	h, svc := newServer()

	rec := do(h, http.MethodPost, "/api/cart/1/items", `{"productId":10}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.gotAddQty, "quantity defaults to one")
	assert.JSONEq(t, `{"message":"Item added to cart","itemId":11,"quantity":1}`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, do(h, http.MethodPost, "/api/cart/1/items", `{"productId":404}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodPost, "/api/cart/1/items", `{"productId":10,"quantity":0}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodPost, "/api/cart/1/items", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodPost, "/api/cart/x/items", `{"productId":10}`).Code)
}

func TestUpdateRemoveClear(t *testing.T) {
	h, svc := newServer()

	rec := do(h, http.MethodPut, "/api/cart/1/items/2", `{"quantity":5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"quantity":5`)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodPut, "/api/cart/1/items/2", `{"quantity":100}`).Code)

	rec = do(h, http.MethodDelete, "/api/cart/1/items/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(2), svc.removedID)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodDelete, "/api/cart/1/items/404", "").Code)

	rec = do(h, http.MethodDelete, "/api/cart/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), svc.clearedFor)
}
