package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/ecobazaar/internal/order/application"
	"github.com/dmehra2102/ecobazaar/internal/order/domain"
	"github.com/dmehra2102/ecobazaar/pkg/apperr"
	"github.com/dmehra2102/ecobazaar/pkg/httpx"
	"github.com/dmehra2102/ecobazaar/pkg/idempotency"
	"github.com/dmehra2102/ecobazaar/pkg/logging"
	"github.com/dmehra2102/ecobazaar/pkg/tracing"
)

type Service interface {
	PlaceOrder(ctx context.Context, userID int64, co domain.Checkout, meta application.EventMeta) (domain.Order, error)
	UpdateStatus(ctx context.Context, orderID int64, status string, meta application.EventMeta) (domain.Order, error)
	Get(ctx context.Context, id int64) (domain.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
}

type Handler struct {
	log     *slog.Logger
	service Service
	idem    *idempotency.Store
	tracer  trace.Tracer
}

// NewHandler honours Idempotency-Key on checkout when idem is not nil.
func NewHandler(log *slog.Logger, service Service, idem *idempotency.Store) *Handler {
	return &Handler{
		log:     log,
		service: service,
		idem:    idem,
		tracer:  otel.Tracer("order-http"),
	}
}

type placeOrderReq struct {
	Address       string `json:"address"`
	Phone         string `json:"phone"`
	PaymentMethod string `json:"paymentMethod"`
}

type placeOrderResp struct {
	Success              bool    `json:"success"`
	Message              string  `json:"message"`
	OrderID              int64   `json:"orderId"`
	TotalAmount          float64 `json:"totalAmount"`
	TotalCarbonFootprint float64 `json:"totalCarbonFootprint"`
}

type statusReq struct {
	Status string `json:"status"`
}

type itemDTO struct {
	ProductID           int64   `json:"productId"`
	Quantity            int     `json:"quantity"`
	PriceSnapshot       float64 `json:"priceSnapshot"`
	CarbonSnapshot      float64 `json:"carbonSnapshot"`
	ProductNameSnapshot string  `json:"productNameSnapshot"`
}

type orderDTO struct {
	ID                   int64              `json:"id"`
	UserID               int64              `json:"userId"`
	Status               domain.OrderStatus `json:"status"`
	PaymentMethod        string             `json:"paymentMethod"`
	PaymentStatus        string             `json:"paymentStatus"`
	ShippingAddress      string             `json:"shippingAddress"`
	PhoneNumber          string             `json:"phoneNumber"`
	TotalAmount          float64            `json:"totalAmount"`
	TotalCarbonFootprint float64            `json:"totalCarbonFootprint"`
	Items                []itemDTO          `json:"items"`
	CreatedAt            time.Time          `json:"createdAt"`
	UpdatedAt            time.Time          `json:"updatedAt"`
}

// Routes is mounted under /api/orders.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	place := r.With()
	if h.idem != nil {
		place = r.With(idempotency.Middleware(h.log, h.idem, func(r *http.Request) string {
			return "orders:" + chi.URLParam(r, "userId")
		}))
	}
	place.Post("/{userId}", h.placeOrder)
	r.Get("/user/{userId}", h.listByUser)
	r.Get("/{orderId}", h.getOrder)
	r.Get("/", h.listAll)
	r.Put("/{orderId}/status", h.updateStatus)
	return r
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PlaceOrder")
	defer span.End()

	userID, err := httpx.PathID(chi.URLParam(r, "userId"), "userId")
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	var req placeOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, h.log, apperr.New(apperr.KindInvalidArgument, "invalid body"))
		return
	}
	o, err := h.service.PlaceOrder(ctx, userID, domain.Checkout{
		ShippingAddress: req.Address,
		PhoneNumber:     req.Phone,
		PaymentMethod:   req.PaymentMethod,
	}, eventMeta(ctx))
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	span.SetAttributes(attribute.Int64("order.id", o.ID))
	httpx.JSON(w, http.StatusCreated, placeOrderResp{
		Success:              true,
		Message:              "Order placed successfully",
		OrderID:              o.ID,
		TotalAmount:          o.TotalAmount,
		TotalCarbonFootprint: o.TotalCarbonFootprint,
	})
}

func (h *Handler) listByUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListUserOrders")
	defer span.End()

	userID, err := httpx.PathID(chi.URLParam(r, "userId"), "userId")
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	orders, err := h.service.ListByUser(ctx, userID)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toDTOs(orders))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GetOrder")
	defer span.End()

	id, err := httpx.PathID(chi.URLParam(r, "orderId"), "orderId")
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	o, err := h.service.Get(ctx, id)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toDTO(o))
}

func (h *Handler) listAll(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ListOrders")
	defer span.End()

	orders, err := h.service.ListAll(ctx)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toDTOs(orders))
}

// updateStatus takes the status from the JSON body, or from ?status= when
// the body is empty.
func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UpdateOrderStatus")
	defer span.End()

	id, err := httpx.PathID(chi.URLParam(r, "orderId"), "orderId")
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	status := r.URL.Query().Get("status")
	if status == "" {
		var req statusReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpx.Error(w, h.log, apperr.New(apperr.KindInvalidArgument, "status is required"))
			return
		}
		status = req.Status
	}
	o, err := h.service.UpdateStatus(ctx, id, status, eventMeta(ctx))
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toDTO(o))
}

func eventMeta(ctx context.Context) application.EventMeta {
	meta := application.EventMeta{Traceparent: tracing.Traceparent(ctx)}
	if id := middleware.GetReqID(ctx); id != "" {
		meta.Headers = map[string]string{logging.RequestIDHeader: id}
	}
	return meta
}

func toDTOs(orders []domain.Order) []orderDTO {
	out := make([]orderDTO, 0, len(orders))
	for _, o := range orders {
		out = append(out, toDTO(o))
	}
	return out
}

func toDTO(o domain.Order) orderDTO {
	items := make([]itemDTO, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, itemDTO(it))
	}
	return orderDTO{
		ID:                   o.ID,
		UserID:               o.UserID,
		Status:               o.Status,
		PaymentMethod:        o.PaymentMethod,
		PaymentStatus:        o.PaymentStatus,
		ShippingAddress:      o.ShippingAddress,
		PhoneNumber:          o.PhoneNumber,
		TotalAmount:          o.TotalAmount,
		TotalCarbonFootprint: o.TotalCarbonFootprint,
		Items:                items,
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
	}
}
