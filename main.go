package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"virement-backoffice/internal/audit"
	"virement-backoffice/internal/auth"
	beneficiaryapp "virement-backoffice/internal/beneficiary/application"
	beneficiaryrepo "virement-backoffice/internal/beneficiary/infrastructure/postgres"
	beneficiaryinterfaces "virement-backoffice/internal/beneficiary/interfaces"
	bordereaurepo "virement-backoffice/internal/bordereau/infrastructure/postgres"
	"virement-backoffice/internal/observability/metrics"
	payerrepo "virement-backoffice/internal/payer/infrastructure/postgres"
	payerinterfaces "virement-backoffice/internal/payer/interfaces"
	virementapp "virement-backoffice/internal/virement/application"
	virementrepo "virement-backoffice/internal/virement/infrastructure/postgres"
	virementinterfaces "virement-backoffice/internal/virement/interfaces"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init()
	auditRepo := audit.NewRepository(db)

	documentsCfg, err := virementapp.LoadConfig()
	if err != nil {
		logger.Fatalf("documents config error: %v", err)
	}

	beneficiaryRepo := beneficiaryrepo.NewRepository(db)
	payerRepo := payerrepo.NewRepository(db)
	bordereauRepo := bordereaurepo.NewRepository(db)
	orderRepo := virementrepo.NewOrderRepository(db)

	beneficiaryService, err := beneficiaryapp.NewService(beneficiaryRepo)
	if err != nil {
		logger.Fatalf("beneficiary service error: %v", err)
	}
	beneficiaryHandler, err := beneficiaryinterfaces.NewHandler(beneficiaryService, auditRepo)
	if err != nil {
		logger.Fatalf("beneficiary handler error: %v", err)
	}

	payerHandler, err := payerinterfaces.NewHandler(payerRepo, auditRepo)
	if err != nil {
		logger.Fatalf("payer handler error: %v", err)
	}

	renderer := virementinterfaces.AdvicePDFRenderer{Issuer: documentsCfg.AdviceIssuer}
	orderService, err := virementapp.NewOrderService(orderRepo, beneficiaryRepo, payerRepo, bordereauRepo, renderer, documentsCfg, systemClock{}, logger)
	if err != nil {
		logger.Fatalf("order service error: %v", err)
	}
	orderHandler, err := virementinterfaces.NewOrderHandler(orderService, auditRepo)
	if err != nil {
		logger.Fatalf("order handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/virements", orderHandler)
	mux.Handle("/api/v1/virements/", orderHandler)
	mux.Handle("/api/v1/beneficiaires", beneficiaryHandler)
	mux.Handle("/api/v1/beneficiaires/", beneficiaryHandler)
	mux.Handle("/api/v1/donneurs", payerHandler)
	mux.Handle("/api/v1/donneurs/", payerHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL string
	HTTPAddr    string
	JWTSecret   string
}

func loadConfig() config {
	cfg := config{
		DatabaseURL: getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:   getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
