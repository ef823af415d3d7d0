package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/gtd_shop/internal/config"
	"github.com/GTDGit/gtd_shop/internal/handler"
	"github.com/GTDGit/gtd_shop/internal/middleware"
	"github.com/GTDGit/gtd_shop/internal/service"
	"github.com/GTDGit/gtd_shop/internal/service/servicetest"
	"github.com/GTDGit/gtd_shop/internal/utils"
)

func newRouter(t *testing.T) (*gin.Engine, *utils.TokenManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := servicetest.NewStore()
	images := servicetest.NewImages()
	tokens := utils.NewTokenManager("secret", time.Hour)
	cfg := &config.Config{Host: "https://shop.test", JWTSecret: "secret", PasswordResetTimeout: time.Hour}

	categorySvc := service.NewCategoryService(store.Categories())
	catalogSvc := service.NewCatalogService(store.Products(), store.Categories(), store.Inventories(), store.Stocks(),
		store.Attributes(), images, nil, config.CacheConfig{})
	adminSvc := service.NewCatalogAdminService(store.Brands(), store.Attributes(), store.Products(), store.Categories())
	inventorySvc := service.NewInventoryService(store.Products(), store.Inventories(), store.Stocks(), store.Attributes(), images)
	orderSvc := service.NewOrderService(store.Orders(), store.Users(), store.Inventories(), store.Products(), store.Attributes())
	userSvc := service.NewUserService(store.Users(), tokens, &servicetest.Mail{}, cfg)

	limiter := middleware.NewInvalidAuthRateLimiter(invalidAuthLimit, invalidAuthWindow)
	handlers := &Handlers{
		Health: handler.NewHealthHandler(map[string]handler.HealthCheck{
			"database": func(context.Context) error { return nil },
		}),
		Category:     handler.NewCategoryHandler(categorySvc),
		Product:      handler.NewProductHandler(catalogSvc),
		Order:        handler.NewOrderHandler(orderSvc),
		User:         handler.NewUserHandler(userSvc, limiter),
		AdminCatalog: handler.NewAdminCatalogHandler(categorySvc, adminSvc, inventorySvc, nil),
	}

	router := gin.New()
	setupRoutes(router, handlers, middleware.NewAuthMiddleware(tokens), limiter)
	return router, tokens
}

func serve(router *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRoutesPublic(t *testing.T) {
	router, _ := newRouter(t)

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/main-categories/", "").Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/products/", "").Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/attribute-values/", "").Code)
}

func TestRoutesUnknown(t *testing.T) {
	router, _ := newRouter(t)

	w := serve(router, http.MethodGet, "/nope/", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_FOUND")

	w = serve(router, http.MethodDelete, "/main-categories/", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Contains(t, w.Body.String(), "METHOD_NOT_ALLOWED")
}

func TestRoutesRequireAuth(t *testing.T) {
	router, tokens := newRouter(t)

	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/orders/", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/users/profile/", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodPost, "/admin/search/reindex", "").Code)

	customer, err := tokens.GenerateJWT(1, "ann@example.com", false)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/orders/", customer).Code)
	assert.Equal(t, http.StatusForbidden, serve(router, http.MethodPost, "/admin/search/reindex", customer).Code)

	staff, err := tokens.GenerateJWT(2, "staff@example.com", true)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, serve(router, http.MethodPost, "/admin/search/reindex", staff).Code,
		"search is not configured")
}
