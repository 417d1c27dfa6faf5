package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/ecobazaar/internal/analytics/application"
	"github.com/dmehra2102/ecobazaar/internal/analytics/domain"
	identity "github.com/dmehra2102/ecobazaar/internal/identity/domain"
	"github.com/dmehra2102/ecobazaar/pkg/httpx"
)

type fakeService struct {
	gotRole  identity.Role
	gotID    int64
	gotLim   application.Limits
	gotSlice string
}

func (f *fakeService) CarbonReport(_ context.Context, userID int64) (domain.UserCarbonReport, error) {
	if userID == 404 {
		return domain.UserCarbonReport{}, identity.ErrUserNotFound
	}
	return domain.UserCarbonReport{TotalOrders: 3, EcoScore: 100, Badge: domain.BadgeStarter}, nil
}

func (f *fakeService) PlatformSummary(context.Context) (domain.PlatformSummary, error) {
	return domain.PlatformSummary{TotalUsers: 4}, nil
}

func (f *fakeService) DashboardWithLimits(_ context.Context, role identity.Role, id int64, lim application.Limits) (application.Dashboard, error) {
	f.gotRole, f.gotID, f.gotLim = role, id, lim
	switch role {
	case identity.RoleShopper:
		return application.Dashboard{Role: role, Shopper: &domain.ShopperDashboard{}}, nil
	case identity.RoleSeller:
		return application.Dashboard{}, application.ErrSellerNotFound
	}
	return application.Dashboard{Role: role, Admin: &domain.AdminDashboard{UserRoleDistribution: map[string]int{"ADMIN": 1}}}, nil
}

func (f *fakeService) ShopperSlice(_ context.Context, id int64, name string, lim application.Limits) (any, error) {
	f.gotID, f.gotSlice, f.gotLim = id, name, lim
	if name != "stats" {
		return nil, application.ErrUnknownSlice
	}
	return domain.UserStats{TotalSpent: 12.5}, nil
}

func (f *fakeService) SellerSlice(_ context.Context, id int64, name string, lim application.Limits) (any, error) {
	f.gotID, f.gotSlice, f.gotLim = id, name, lim
	return []domain.ProductPerformance{{ProductID: 9}}, nil
}

func (f *fakeService) AdminSlice(_ context.Context, name string, lim application.Limits) (any, error) {
	f.gotSlice, f.gotLim = name, lim
	return map[string]int{"USER": 2}, nil
}

func newRouter(svc Service) http.Handler {
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)
	r := chi.NewRouter()
	r.Mount("/api/carbon", h.CarbonRoutes())
	r.Mount("/api/dashboard", h.DashboardRoutes())
	return r
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestUserCarbon(t *testing.T) {
	h := newRouter(&fakeService{})

	rec := get(t, h, "/api/carbon/user/7")
	require.Equal(t, http.StatusOK, rec.Code)
	var report domain.UserCarbonReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 100, report.EcoScore)
	assert.Equal(t, domain.BadgeStarter, report.Badge)

	rec = get(t, h, "/api/carbon/user/404")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(t, h, "/api/carbon/user/abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlatformCarbon(t *testing.T) {
	rec := get(t, newRouter(&fakeService{}), "/api/carbon/platform")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"totalUsers":4,"totalProducts":0,"totalOrders":0,"totalCarbonFootprint":0,"totalRevenue":0,"averageCarbonPerOrder":0}`, rec.Body.String())
}

func TestDashboards(t *testing.T) {
	svc := &fakeService{}
	h := newRouter(svc)

	rec := get(t, h, "/api/dashboard/user/5?limit=3")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, identity.RoleShopper, svc.gotRole)
	assert.Equal(t, int64(5), svc.gotID)
	assert.Equal(t, application.Limits{Recent: 3, Top: 3}, svc.gotLim)

	rec = get(t, h, "/api/dashboard/seller/8")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body httpx.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "seller not found", body.Error)

	rec = get(t, h, "/api/dashboard/admin")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, identity.RoleAdmin, svc.gotRole)
	assert.Equal(t, application.Limits{}, svc.gotLim)
	assert.Contains(t, rec.Body.String(), `"userRoleDistribution":{"ADMIN":1}`)
}

func TestDashboard_RejectsBadLimit(t *testing.T) {
	h := newRouter(&fakeService{})
	for _, path := range []string{
		"/api/dashboard/user/5?limit=-1",
		"/api/dashboard/admin?limit=ten",
		"/api/dashboard/seller/2/top-products?limit=0",
	} {
		rec := get(t, h, path)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestDashboardSlices(t *testing.T) {
	svc := &fakeService{}
	h := newRouter(svc)

	rec := get(t, h, "/api/dashboard/user/5/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "stats", svc.gotSlice)
	assert.Contains(t, rec.Body.String(), `"totalSpent":12.5`)

	rec = get(t, h, "/api/dashboard/user/5/leaderboard")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(t, h, "/api/dashboard/seller/2/top-products?limit=1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(2), svc.gotID)
	assert.Equal(t, application.Limits{Recent: 1, Top: 1}, svc.gotLim)

	rec = get(t, h, "/api/dashboard/admin/user-role-distribution")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"USER":2}`, rec.Body.String())
}
