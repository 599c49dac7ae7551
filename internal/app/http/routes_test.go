package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	adminapi "pass-app/internal/api/admin"
	passesapi "pass-app/internal/api/passes"
	stripewebhooks "pass-app/internal/api/stripewebhook"
	"pass-app/internal/domain/passes"
	stripeinfra "pass-app/internal/infra/stripe"
	"pass-app/internal/infra/store"
	"pass-app/internal/services/purchases"
	"pass-app/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const jwtSecret = "routes-secret"

type noopIssuer struct{}

func (noopIssuer) Issue(context.Context, passes.IssueRequest) (passes.IssuedPass, error) {
	return passes.IssuedPass{IssuerID: "pk", LinkURL: "https://pub1.pskt.io/pk"}, nil
}

type noopNotifier struct{}

func (noopNotifier) SendPassReady(context.Context, *passes.Purchase) error { return nil }

func router(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewDB(t)
	repo := store.NewPurchaseRepository(db)
	lookup := purchases.NewLookup(repo, store.NewRedemptionRepository(db), nil)
	rec := purchases.NewReconciler(purchases.Dependencies{Store: repo, Issuer: noopIssuer{}, Notifier: noopNotifier{}})

	r := gin.New()
	RegisterRoutes(r, Deps{
		Webhook:   stripewebhooks.NewHandler(stripeinfra.NewVerifier("whsec_x"), rec, nil),
		Passes:    passesapi.NewHandler(lookup, "https://passes.example.com", nil),
		Admin:     adminapi.NewHandler(repo, rec, lookup, nil),
		JWTSecret: jwtSecret,
		Logger:    zap.NewNop(),
	})
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRoutes(t *testing.T) {
	r := router(t)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/webhook", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodPost, "/verify-pass", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{}")))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/purchase-status?session_id=cs_none", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRoutes_AdminRequiresToken(t *testing.T) {
	r := router(t)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/admin/purchases", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(jwtSecret))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin/purchases", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w = serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/admin/purchases/cs_none/resend", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w = serve(r, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
