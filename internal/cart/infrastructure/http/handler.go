package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/ecobazaar/internal/cart/application"
	"github.com/dmehra2102/ecobazaar/internal/cart/domain"
	catalog "github.com/dmehra2102/ecobazaar/internal/catalog/domain"
	"github.com/dmehra2102/ecobazaar/pkg/apperr"
	"github.com/dmehra2102/ecobazaar/pkg/httpx"
)

type Service interface {
	Get(ctx context.Context, userID int64) (domain.Cart, error)
	View(ctx context.Context, userID int64, f domain.Filter, key domain.SortKey) (application.View, error)
	AddItem(ctx context.Context, userID, productID int64, quantity int) (domain.CartItem, error)
	UpdateQuantity(ctx context.Context, userID, itemID int64, quantity int) (domain.CartItem, error)
	RemoveItem(ctx context.Context, userID, itemID int64) error
	Clear(ctx context.Context, userID int64) error
}

type Handler struct {
	log     *slog.Logger
	service Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tracer:  otel.Tracer("cart-http"),
	}
}

type itemDTO struct {
	ID              int64             `json:"id"`
	ProductID       int64             `json:"productId"`
	ProductName     string            `json:"productName"`
	Price           float64           `json:"price"`
	Quantity        int               `json:"quantity"`
	ImageURL        string            `json:"imageUrl"`
	Category        string            `json:"category"`
	CarbonFootprint float64           `json:"carbonFootprint"`
	EcoRating       catalog.EcoRating `json:"ecoRating"`
}

type cartResp struct {
	ID    int64     `json:"id"`
	Items []itemDTO `json:"items"`
}

type filteredResp struct {
	cartResp
	domain.Summary
}

type addItemReq struct {
	ProductID int64 `json:"productId"`
	Quantity  *int  `json:"quantity"`
}

type quantityReq struct {
	Quantity int `json:"quantity"`
}

type itemResp struct {
	Message  string `json:"message"`
	ItemID   int64  `json:"itemId"`
	Quantity int    `json:"quantity,omitempty"`
}

type messageResp struct {
	Message string `json:"message"`
}

// Routes is mounted under /api/cart.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/{userId}", h.getCart)
	r.Get("/{userId}/filtered", h.filteredCart)
	r.Post("/{userId}/items", h.addItem)
	r.Put("/{userId}/items/{itemId}", h.updateItem)
	r.Delete("/{userId}/items/{itemId}", h.removeItem)
	r.Delete("/{userId}", h.clear)
	return r
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetCart")
	defer span.End()

	userID, err := httpx.PathID(chi.URLParam(r, "userId"), "userId")
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	c, err := h.service.Get(ctx, userID)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cartResp{ID: c.ID, Items: toDTOs(c.Items)})
}

func (h *Handler) filteredCart(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "FilteredCart")
	defer span.End()

	userID, err := httpx.PathID(chi.URLParam(r, "userId"), "userId")
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	f, err := parseFilter(r)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	sortBy := domain.SortKey(r.URL.Query().Get("sortBy"))
	span.SetAttributes(attribute.String("cart.sort", string(sortBy)), attribute.String("cart.category", f.Category))

	v, err := h.service.View(ctx, userID, f, sortBy)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, filteredResp{
		cartResp: cartResp{ID: v.CartID, Items: toDTOs(v.Items)},
		Summary:  v.Summary,
	})
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AddCartItem")
	defer span.End()

	userID, err := httpx.PathID(chi.URLParam(r, "userId"), "userId")
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	var req addItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID <= 0 {
		httpx.Error(w, h.log, apperr.New(apperr.KindInvalidArgument, "productId is required"))
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	item, err := h.service.AddItem(ctx, userID, req.ProductID, qty)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, itemResp{Message: "Item added to cart", ItemID: item.ID, Quantity: item.Quantity})
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UpdateCartItem")
	defer span.End()

	userID, itemID, err := ids(r)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	var req quantityReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, h.log, apperr.New(apperr.KindInvalidArgument, "invalid body"))
		return
	}
	item, err := h.service.UpdateQuantity(ctx, userID, itemID, req.Quantity)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, itemResp{Message: "Quantity updated", ItemID: item.ID, Quantity: item.Quantity})
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "RemoveCartItem")
	defer span.End()

	userID, itemID, err := ids(r)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	if err := h.service.RemoveItem(ctx, userID, itemID); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, messageResp{Message: "Item removed successfully"})
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ClearCart")
	defer span.End()

	userID, err := httpx.PathID(chi.URLParam(r, "userId"), "userId")
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	if err := h.service.Clear(ctx, userID); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, messageResp{Message: "Cart cleared"})
}

func ids(r *http.Request) (userID, itemID int64, err error) {
	if userID, err = httpx.PathID(chi.URLParam(r, "userId"), "userId"); err != nil {
		return 0, 0, err
	}
	if itemID, err = httpx.PathID(chi.URLParam(r, "itemId"), "itemId"); err != nil {
		return 0, 0, err
	}
	return userID, itemID, nil
}

func parseFilter(r *http.Request) (domain.Filter, error) {
	f := domain.Filter{Category: r.URL.Query().Get("category")}
	var err error
	bounds := []struct {
		name string
		dst  **float64
	}{
		{"minPrice", &f.MinPrice},
		{"maxPrice", &f.MaxPrice},
		{"minCarbon", &f.MinCarbon},
		{"maxCarbon", &f.MaxCarbon},
	}
	for _, b := range bounds {
		if *b.dst, err = httpx.OptionalFloat(r, b.name); err != nil {
			return domain.Filter{}, err
		}
	}
	return f, nil
}

func toDTOs(items []domain.CartItem) []itemDTO {
	out := make([]itemDTO, 0, len(items))
	for _, it := range items {
		p := it.Product
		out = append(out, itemDTO{
			ID:              it.ID,
			ProductID:       p.ID,
			ProductName:     p.Name,
			Price:           p.Price,
			Quantity:        it.Quantity,
			ImageURL:        p.ImageURL,
			Category:        p.Category,
			CarbonFootprint: p.CarbonFootprint,
			EcoRating:       p.EcoRating,
		})
	}
	return out
}
