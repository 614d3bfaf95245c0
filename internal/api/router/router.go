package router

import (
	"net/http"
	"time"

	"gopostos/internal/api/inventory"
	"gopostos/internal/api/sales"
	"gopostos/internal/api/user"
	"gopostos/internal/domain"
	"gopostos/internal/pkg/cache"
	"gopostos/internal/pkg/middleware"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// NewRouter configura e retorna o roteador HTTP principal.
// Recebe os Handlers já inicializados por injeção de dependências.
func NewRouter(
	inventoryHandler *inventory.Handler,
	salesHandler *sales.Handler,
	userHandler *user.Handler,
	tokenSvc middleware.TokenService,
	cacheClient cache.Client,
	rateLimit int,
	rateWindow time.Duration,
) http.Handler {

	// Usamos o ServeMux padrão do net/http para roteamento
	mux := http.NewServeMux()

	auth := middleware.NewAuthMiddleware(tokenSvc)
	movementsOnly := middleware.PermissionMiddleware(domain.RoleOwner, domain.RoleOperator)
	ownerOnly := middleware.PermissionMiddleware(domain.RoleOwner)

	// --- 1. Rotas de Health Check e Documentação ---
	mux.HandleFunc("/ping", PingHandler)
	mux.Handle("/swagger/", httpSwagger.Handler())

	// --- 2. Rotas Públicas (v1) ---
	mux.HandleFunc("/v1/register", userHandler.RegisterUserHandler)
	mux.HandleFunc("/v1/login", userHandler.LoginUserHandler)

	// --- 3. Rotas de Estoque (v1, autenticadas) ---
	mux.HandleFunc("/v1/inventory/availability", auth(inventoryHandler.AvailabilityHandler))
	mux.HandleFunc("/v1/inventory/check", auth(inventoryHandler.CheckHandler))
	mux.HandleFunc("/v1/inventory/movements", auth(movementsOnly(inventoryHandler.MovementHandler)))
	mux.HandleFunc("/v1/inventory/alerts", auth(inventoryHandler.AlertsHandler))
	mux.HandleFunc("/v1/inventory/reorder-report", auth(ownerOnly(inventoryHandler.ReorderReportHandler)))

	// --- 4. Rotas de Vendas (v1, autenticadas) ---
	mux.HandleFunc("/v1/sales", auth(movementsOnly(salesHandler.SubmitSaleHandler)))
	mux.HandleFunc("/v1/sales/", auth(salesHandler.GetSaleHandler))

	// --- 5. Middlewares Globais ---
	// O rate limiter envolve todo o mux; usa Redis como contador distribuído.
	limited := middleware.RateLimiter(cacheClient, rateLimit, rateWindow)

	return limited(mux)
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
