package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"market-admin/internal/handlers"
	"market-admin/internal/middleware"
	"market-admin/internal/models"
)

func NewRouter(
	authHandler *handlers.AuthHandler,
	totpHandler *handlers.TOTPHandler,
	productHandler *handlers.ProductHandler,
	orderHandler *handlers.OrderHandler,
	submissionHandler *handlers.SubmissionHandler,
	adminHandler *handlers.AdminHandler,
	analyticsHandler *handlers.AnalyticsHandler,
	realtimeHandler *handlers.RealtimeHandler,
	healthHandler *handlers.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
	logger *logrus.Logger,
) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.PanicRecovery(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.MetricsMiddleware)

	// Probes and metrics (NO AUTHENTICATION REQUIRED)
	r.HandleFunc("/api/health", healthHandler.APIHealth).Methods("GET")
	r.HandleFunc("/health", healthHandler.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", healthHandler.ReadinessHealth).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Public API routes - Authentication
	r.HandleFunc("/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/auth/session", authHandler.Session).Methods("GET")
	r.HandleFunc("/auth/admin", authHandler.Admin).Methods("GET")

	// Protected auth routes
	authAPI := r.PathPrefix("/auth").Subrouter()
	authAPI.Use(authMiddleware.Authenticate)
	authAPI.HandleFunc("/logout", authHandler.Logout).Methods("POST")
	authAPI.HandleFunc("/2fa/status", totpHandler.Status).Methods("GET")
	authAPI.HandleFunc("/2fa/setup", totpHandler.Setup).Methods("POST")
	authAPI.HandleFunc("/2fa/verify", totpHandler.Verify).Methods("POST")
	authAPI.HandleFunc("/2fa/disable", totpHandler.Disable).Methods("POST")

	manageProducts := authMiddleware.RequirePermission(models.PermManageProducts)

	// Protected API routes - Products (reads for every admin, writes gated)
	productsAPI := r.PathPrefix("/api/products").Subrouter()
	productsAPI.Use(authMiddleware.Authenticate)
	productsAPI.HandleFunc("", productHandler.List).Methods("GET")
	productsAPI.Handle("", manageProducts(http.HandlerFunc(productHandler.Create))).Methods("POST")
	productsAPI.HandleFunc("/search", productHandler.Search).Methods("GET")
	productsAPI.HandleFunc("/low-stock", productHandler.LowStock).Methods("GET")
	productsAPI.HandleFunc("/{id}", productHandler.Get).Methods("GET")
	productsAPI.Handle("/{id}", manageProducts(http.HandlerFunc(productHandler.Update))).Methods("PUT")
	productsAPI.Handle("/{id}", manageProducts(http.HandlerFunc(productHandler.Delete))).Methods("DELETE")
	productsAPI.Handle("/{id}/images", manageProducts(http.HandlerFunc(productHandler.UploadImage))).Methods("POST")
	productsAPI.Handle("/{id}/images", manageProducts(http.HandlerFunc(productHandler.DeleteImage))).Methods("DELETE")

	// Protected API routes - Orders
	ordersAPI := r.PathPrefix("/api/orders").Subrouter()
	ordersAPI.Use(authMiddleware.Authenticate)
	ordersAPI.Use(authMiddleware.RequirePermission(models.PermManageOrders))
	ordersAPI.HandleFunc("", orderHandler.List).Methods("GET")
	ordersAPI.HandleFunc("/recent", orderHandler.Recent).Methods("GET")
	ordersAPI.HandleFunc("/counts", orderHandler.Counts).Methods("GET")
	ordersAPI.HandleFunc("/stats", orderHandler.Stats).Methods("GET")
	ordersAPI.HandleFunc("/export", orderHandler.Export).Methods("GET")
	ordersAPI.HandleFunc("/status/{status}", orderHandler.ByStatus).Methods("GET")
	ordersAPI.HandleFunc("/number/{number}", orderHandler.GetByNumber).Methods("GET")
	ordersAPI.HandleFunc("/{id}", orderHandler.Get).Methods("GET")
	ordersAPI.HandleFunc("/{id}/status", orderHandler.UpdateStatus).Methods("PATCH")
	ordersAPI.HandleFunc("/{id}/shipping", orderHandler.UpdateShipping).Methods("PATCH")
	ordersAPI.HandleFunc("/{id}/notes", orderHandler.AddNote).Methods("POST")
	ordersAPI.HandleFunc("/{id}/cancel", orderHandler.Cancel).Methods("POST")
	ordersAPI.HandleFunc("/{id}/refund", orderHandler.Refund).Methods("POST")
	ordersAPI.HandleFunc("/{id}/timeline", orderHandler.Timeline).Methods("GET")
	ordersAPI.HandleFunc("/{id}/invoice.pdf", orderHandler.Invoice).Methods("GET")

	// Protected API routes - Item submissions
	submissionsAPI := r.PathPrefix("/api/submissions").Subrouter()
	submissionsAPI.Use(authMiddleware.Authenticate)
	submissionsAPI.Use(authMiddleware.RequirePermission(models.PermManageSubmissions))
	submissionsAPI.HandleFunc("", submissionHandler.List).Methods("GET")
	submissionsAPI.HandleFunc("/{id}", submissionHandler.Get).Methods("GET")
	submissionsAPI.HandleFunc("/{id}/approve", submissionHandler.Approve).Methods("POST")
	submissionsAPI.HandleFunc("/{id}/reject", submissionHandler.Reject).Methods("POST")
	submissionsAPI.HandleFunc("/{id}/reopen", submissionHandler.Reopen).Methods("POST")
	submissionsAPI.HandleFunc("/{id}/images", submissionHandler.UploadImage).Methods("POST")

	// Protected API routes - Admin membership
	adminsAPI := r.PathPrefix("/api/admins").Subrouter()
	adminsAPI.Use(authMiddleware.Authenticate)
	adminsAPI.Use(authMiddleware.RequirePermission(models.PermManageUsers))
	adminsAPI.HandleFunc("", adminHandler.List).Methods("GET")
	adminsAPI.HandleFunc("/{id}", adminHandler.Get).Methods("GET")
	adminsAPI.HandleFunc("/{id}", adminHandler.Update).Methods("PUT")
	adminsAPI.HandleFunc("/{id}", adminHandler.Delete).Methods("DELETE")

	// Protected API routes - Activity log
	activityAPI := r.PathPrefix("/api/activity").Subrouter()
	activityAPI.Use(authMiddleware.Authenticate)
	activityAPI.HandleFunc("", adminHandler.ActivityLog).Methods("GET")

	// Protected API routes - Analytics
	analyticsAPI := r.PathPrefix("/api/analytics").Subrouter()
	analyticsAPI.Use(authMiddleware.Authenticate)
	analyticsAPI.Use(authMiddleware.RequirePermission(models.PermViewAnalytics))
	analyticsAPI.HandleFunc("/dashboard", analyticsHandler.Dashboard).Methods("GET")
	analyticsAPI.HandleFunc("/recent-orders", analyticsHandler.RecentOrders).Methods("GET")
	analyticsAPI.HandleFunc("/low-stock", analyticsHandler.LowStock).Methods("GET")

	// Protected API routes - Realtime (token may arrive as ?access_token=)
	realtimeAPI := r.PathPrefix("/api/realtime").Subrouter()
	realtimeAPI.Use(authMiddleware.Authenticate)
	realtimeAPI.HandleFunc("", realtimeHandler.Subscribe).Methods("GET")
	realtimeAPI.HandleFunc("/status", realtimeHandler.Status).Methods("GET")

	// Operator view
	opsAPI := r.PathPrefix("/health/detailed").Subrouter()
	opsAPI.Use(authMiddleware.Authenticate)
	opsAPI.HandleFunc("", healthHandler.DetailedHealth).Methods("GET")

	return r
}
