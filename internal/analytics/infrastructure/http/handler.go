package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/ecobazaar/internal/analytics/application"
	"github.com/dmehra2102/ecobazaar/internal/analytics/domain"
	identity "github.com/dmehra2102/ecobazaar/internal/identity/domain"
	"github.com/dmehra2102/ecobazaar/pkg/httpx"
)

type Service interface {
	CarbonReport(ctx context.Context, userID int64) (domain.UserCarbonReport, error)
	PlatformSummary(ctx context.Context) (domain.PlatformSummary, error)
	DashboardWithLimits(ctx context.Context, role identity.Role, subjectID int64, lim application.Limits) (application.Dashboard, error)
	ShopperSlice(ctx context.Context, userID int64, name string, lim application.Limits) (any, error)
	SellerSlice(ctx context.Context, sellerID int64, name string, lim application.Limits) (any, error)
	AdminSlice(ctx context.Context, name string, lim application.Limits) (any, error)
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
		tracer:  otel.Tracer("analytics-http"),
	}
}

// CarbonRoutes is mounted under /api/carbon.
func (h *Handler) CarbonRoutes() http.Handler {
	r := chi.NewRouter()
	r.Get("/user/{userId}", h.userCarbon)
	r.Get("/platform", h.platformSummary)
	return r
}

// DashboardRoutes is mounted under /api/dashboard.
func (h *Handler) DashboardRoutes() http.Handler {
	r := chi.NewRouter()
	r.Get("/user/{userId}", h.shopperDashboard)
	r.Get("/user/{userId}/{slice}", h.shopperSlice)
	r.Get("/seller/{sellerId}", h.sellerDashboard)
	r.Get("/seller/{sellerId}/{slice}", h.sellerSlice)
	r.Get("/admin", h.adminDashboard)
	r.Get("/admin/{slice}", h.adminSlice)
	return r
}

func (h *Handler) userCarbon(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UserCarbonReport")
	defer span.End()

	userID, err := httpx.PathID(chi.URLParam(r, "userId"), "userId")
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	report, err := h.service.CarbonReport(ctx, userID)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) platformSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PlatformSummary")
	defer span.End()

	summary, err := h.service.PlatformSummary(ctx)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) shopperDashboard(w http.ResponseWriter, r *http.Request) {
	h.dashboard(w, r, identity.RoleShopper, "userId")
}

func (h *Handler) sellerDashboard(w http.ResponseWriter, r *http.Request) {
	h.dashboard(w, r, identity.RoleSeller, "sellerId")
}

func (h *Handler) adminDashboard(w http.ResponseWriter, r *http.Request) {
	h.dashboard(w, r, identity.RoleAdmin, "")
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request, role identity.Role, idParam string) {
	ctx, span := h.tracer.Start(r.Context(), "Dashboard", trace.WithAttributes(attribute.String("role", role.String())))
	defer span.End()

	var subjectID int64
	if idParam != "" {
		id, err := httpx.PathID(chi.URLParam(r, idParam), idParam)
		if err != nil {
			httpx.Error(w, h.log, err)
			return
		}
		subjectID = id
	}
	lim, err := limits(r)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}

	d, err := h.service.DashboardWithLimits(ctx, role, subjectID, lim)
	if err != nil {
		span.RecordError(err)
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d.Body())
}

func (h *Handler) shopperSlice(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ShopperDashboardSlice")
	defer span.End()

	userID, err := httpx.PathID(chi.URLParam(r, "userId"), "userId")
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	lim, err := limits(r)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	h.respond(w, func() (any, error) {
		return h.service.ShopperSlice(ctx, userID, chi.URLParam(r, "slice"), lim)
	})
}

func (h *Handler) sellerSlice(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "SellerDashboardSlice")
	defer span.End()

	sellerID, err := httpx.PathID(chi.URLParam(r, "sellerId"), "sellerId")
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	lim, err := limits(r)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	h.respond(w, func() (any, error) {
		return h.service.SellerSlice(ctx, sellerID, chi.URLParam(r, "slice"), lim)
	})
}

func (h *Handler) adminSlice(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AdminDashboardSlice")
	defer span.End()

	lim, err := limits(r)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	h.respond(w, func() (any, error) {
		return h.service.AdminSlice(ctx, chi.URLParam(r, "slice"), lim)
	})
}

func (h *Handler) respond(w http.ResponseWriter, load func() (any, error)) {
	v, err := load()
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

// limits applies one "limit" parameter to both the recent and top lists.
// Absent means the defaults.
func limits(r *http.Request) (application.Limits, error) {
	n, err := httpx.Limit(r, 0)
	if err != nil {
		return application.Limits{}, err
	}
	return application.Limits{Recent: n, Top: n}, nil
}
