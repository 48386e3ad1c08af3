package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/username/subtrack/backend/src/config"
	"github.com/username/subtrack/backend/src/database"
	"github.com/username/subtrack/backend/src/handlers"
	"github.com/username/subtrack/backend/src/logger"
	"github.com/username/subtrack/backend/src/security"
	"github.com/username/subtrack/backend/src/services"
	"golang.org/x/time/rate"
)

var limiter *rate.Limiter

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000": true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Requested-With, Cookie, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "X-CSRF-Token, ETag")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Subtrack backend server starting...")

	limiter = rate.NewLimiter(rate.Every(config.Cfg.RateLimitInterval), config.Cfg.RateLimitBurst)

	if config.Cfg.JWTSecret == "" || len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid. Must be at least 32 bytes.")
		os.Exit(1)
	}
	if len(config.Cfg.CSRFAuthKey) < 32 {
		logger.L.Error("CSRF_AUTH_KEY must be at least 32 bytes long.")
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing services and handlers...")
	authService := security.NewAuthService(config.Cfg.JWTSecret, config.Cfg.AccessTokenExpiry)
	extractorConfig := services.ExtractorConfig{
		APIKey:  config.Cfg.OpenAIAPIKey,
		Model:   config.Cfg.OpenAIModel,
		BaseURL: config.Cfg.OpenAIBaseURL,
	}
	documentExtractor := services.NewDocumentExtractor(extractorConfig)
	invoiceService := services.NewInvoiceService(documentExtractor, config.Cfg.InvoiceSessionTTL)
	insightsService := services.NewInsightsService(extractorConfig)

	userHandler := handlers.NewUserHandler(authService)
	walletHandler := handlers.NewWalletHandler()
	departmentHandler := handlers.NewDepartmentHandler()
	accountHandler := handlers.NewAccountHandler()
	subscriptionHandler := handlers.NewSubscriptionHandler()
	transactionHandler := handlers.NewTransactionHandler()
	dataHandler := handlers.NewDataHandler()
	invoiceHandler := handlers.NewInvoiceHandler(invoiceService)
	insightsHandler := handlers.NewInsightsHandler(insightsService)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	apiRouter.HandleFunc("GET /api/auth/csrf", handlers.GetCSRFToken(config.Cfg.CSRFAuthKey))

	authActionRouter := http.NewServeMux()
	authActionRouter.HandleFunc("POST /login", userHandler.LoginUserHandler)
	authActionRouter.HandleFunc("POST /register", userHandler.RegisterUserHandler)
	authActionRouter.HandleFunc("POST /refresh", userHandler.RefreshTokenHandler)
	authActionRouter.Handle("POST /logout", userHandler.AuthMiddleware(http.HandlerFunc(userHandler.LogoutUserHandler)))

	apiRouter.Handle("/api/auth/", http.StripPrefix("/api/auth", handlers.CSRFMiddleware(config.Cfg.CSRFAuthKey)(authActionRouter)))

	csrfProtection := handlers.CSRFMiddleware(config.Cfg.CSRFAuthKey)
	applyCsrfAndAuth := func(handler http.HandlerFunc) http.Handler {
		return csrfProtection(userHandler.AuthMiddleware(handler))
	}

	apiRouter.Handle("GET /api/data", applyCsrfAndAuth(dataHandler.HandleGetDashboardData))

	apiRouter.Handle("GET /api/wallets", applyCsrfAndAuth(walletHandler.HandleListWallets))
	apiRouter.Handle("POST /api/wallets", applyCsrfAndAuth(walletHandler.HandleCreateWallet))
	apiRouter.Handle("PUT /api/wallets/{id}", applyCsrfAndAuth(walletHandler.HandleUpdateWallet))
	apiRouter.Handle("DELETE /api/wallets/{id}", applyCsrfAndAuth(walletHandler.HandleDeleteWallet))

	apiRouter.Handle("GET /api/departments", applyCsrfAndAuth(departmentHandler.HandleListDepartments))
	apiRouter.Handle("POST /api/departments", applyCsrfAndAuth(departmentHandler.HandleCreateDepartment))
	apiRouter.Handle("DELETE /api/departments/{id}", applyCsrfAndAuth(departmentHandler.HandleDeleteDepartment))

	apiRouter.Handle("GET /api/accounts", applyCsrfAndAuth(accountHandler.HandleListAccounts))
	apiRouter.Handle("POST /api/accounts", applyCsrfAndAuth(accountHandler.HandleCreateAccount))
	apiRouter.Handle("PUT /api/accounts/{id}", applyCsrfAndAuth(accountHandler.HandleUpdateAccount))
	apiRouter.Handle("DELETE /api/accounts/{id}", applyCsrfAndAuth(accountHandler.HandleDeleteAccount))

	apiRouter.Handle("GET /api/subscriptions", applyCsrfAndAuth(subscriptionHandler.HandleListSubscriptions))
	apiRouter.Handle("POST /api/subscriptions", applyCsrfAndAuth(subscriptionHandler.HandleCreateSubscription))
	apiRouter.Handle("PUT /api/subscriptions/{id}", applyCsrfAndAuth(subscriptionHandler.HandleUpdateSubscription))
	apiRouter.Handle("DELETE /api/subscriptions/{id}", applyCsrfAndAuth(subscriptionHandler.HandleDeleteSubscription))
	apiRouter.Handle("GET /api/spend/departments", applyCsrfAndAuth(subscriptionHandler.HandleGetDepartmentSpend))

	apiRouter.Handle("GET /api/transactions", applyCsrfAndAuth(transactionHandler.HandleListTransactions))
	apiRouter.Handle("POST /api/transactions", applyCsrfAndAuth(transactionHandler.HandleCreateTransaction))
	apiRouter.Handle("DELETE /api/transactions/{id}", applyCsrfAndAuth(transactionHandler.HandleDeleteTransaction))

	apiRouter.Handle("POST /api/invoices/upload", applyCsrfAndAuth(invoiceHandler.HandleUpload))
	apiRouter.Handle("GET /api/invoices", applyCsrfAndAuth(invoiceHandler.HandleListInvoices))
	apiRouter.Handle("GET /api/invoices/{id}", applyCsrfAndAuth(invoiceHandler.HandleGetInvoice))
	apiRouter.Handle("PATCH /api/invoices/{id}", applyCsrfAndAuth(invoiceHandler.HandleSetVAT))
	apiRouter.Handle("DELETE /api/invoices/{id}", applyCsrfAndAuth(invoiceHandler.HandleDeleteInvoice))
	apiRouter.Handle("POST /api/invoices/{id}/items", applyCsrfAndAuth(invoiceHandler.HandleAddItem))
	apiRouter.Handle("PATCH /api/invoices/{id}/items/{itemID}", applyCsrfAndAuth(invoiceHandler.HandleUpdateItem))
	apiRouter.Handle("DELETE /api/invoices/{id}/items/{itemID}", applyCsrfAndAuth(invoiceHandler.HandleRemoveItem))
	apiRouter.Handle("POST /api/invoices/{id}/items/{itemID}/accounts/toggle", applyCsrfAndAuth(invoiceHandler.HandleToggleAccount))
	apiRouter.Handle("POST /api/invoices/{id}/save", applyCsrfAndAuth(invoiceHandler.HandleSaveInvoice))
	apiRouter.Handle("GET /api/invoices/{id}/allocations", applyCsrfAndAuth(invoiceHandler.HandleGetAllocations))

	apiRouter.Handle("POST /api/insights", applyCsrfAndAuth(insightsHandler.HandleAnalyzeSpending))

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "SUBTRACK Backend is running"})
		} else {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
				http.NotFound(w, r)
			}
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
