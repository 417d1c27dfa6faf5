package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/ecobazaar/internal/identity/application"
	"github.com/dmehra2102/ecobazaar/internal/identity/domain"
	"github.com/dmehra2102/ecobazaar/pkg/apperr"
	"github.com/dmehra2102/ecobazaar/pkg/httpx"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
	tracer  trace.Tracer
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		tracer:  otel.Tracer("identity-http"),
	}
}

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

type registerResp struct {
	Message string      `json:"message"`
	UserID  int64       `json:"userId"`
	Role    domain.Role `json:"role"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResp struct {
	ID       int64       `json:"id"`
	Email    string      `json:"email"`
	FullName string      `json:"fullName"`
	Role     domain.Role `json:"role"`
}

type allowedRolesResp struct {
	AllowedRoles []domain.Role `json:"allowedRoles"`
	Message      string        `json:"message"`
}

// Routes is mounted under /api/auth.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/register", h.register)
	r.Post("/login", h.login)
	r.Get("/allowed-roles", h.allowedRoles)
	return r
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Register")
	defer span.End()

	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, h.log, apperr.New(apperr.KindInvalidArgument, "invalid body"))
		return
	}
	u, err := h.service.Register(ctx, application.Registration{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Role:     req.Role,
	})
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, registerResp{
		Message: "User registered successfully",
		UserID:  u.ID,
		Role:    u.Role,
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "Login")
	defer span.End()

	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, h.log, apperr.New(apperr.KindInvalidArgument, "invalid body"))
		return
	}
	u, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, userResp{ID: u.ID, Email: u.Email, FullName: u.FullName, Role: u.Role})
}

func (h *Handler) allowedRoles(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, allowedRolesResp{
		AllowedRoles: h.service.AllowedRoles(),
		Message:      "Only SELLER and USER roles can be created through registration",
	})
}
