package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	// Nossos pacotes de infraestrutura e utilitários
	"gopostos/config"
	"gopostos/internal/pkg/alerting"
	"gopostos/internal/pkg/cache"
	"gopostos/internal/pkg/compliance"
	"gopostos/internal/pkg/database"
	"gopostos/internal/pkg/idgen"
	"gopostos/internal/pkg/logger"
	"gopostos/internal/pkg/payment"
	"gopostos/internal/pkg/token"

	// Camadas de negócio para Injeção de Dependências
	"gopostos/internal/allocation"
	"gopostos/internal/api/inventory" // Handlers
	"gopostos/internal/api/router"    // Roteador central
	"gopostos/internal/api/sales"
	"gopostos/internal/api/user"
	"gopostos/internal/pipeline"
	"gopostos/internal/repository/productrepo" // Acesso a Dados
	"gopostos/internal/repository/salesrepo"
	"gopostos/internal/repository/stockrepo"
	"gopostos/internal/repository/tankrepo"
	"gopostos/internal/repository/userrepo"
	"gopostos/internal/service/inventoryservice" // Lógica de Negócio
	"gopostos/internal/service/salesservice"
	"gopostos/internal/service/userservice"
)

func main() {
	// 1. Configuração e Inicialização
	log.Println("⚡ Inicializando serviço GoPostos...")
	// O godotenv.Load() procura por um arquivo chamado .env na raiz.
	if err := godotenv.Load(); err != nil {
		// Se o arquivo .env não for encontrado, avisamos mas continuamos,
		// pois as variáveis essenciais podem estar no ambiente do sistema (ex: Docker).
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("Configurações carregadas.", nil)

	// 2. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (PostgreSQL)
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	log.Info("Conexão PostgreSQL estabelecida.", nil)

	// B. Cache (Redis)
	cacheClient := cache.NewRedisClient(cfg.RedisAddr)
	log.Info("Conexão Redis estabelecida.", nil)

	// 3. INJEÇÃO DE DEPENDÊNCIAS (Montagem da Clean Architecture)
	// Ordem: Repository -> Service -> Handler

	// A. Repositórios (Camada de Acesso a Dados)
	tankRepo := tankrepo.NewTankRepository(db, cfg.DBTimeout, log)
	stockRepo := stockrepo.NewStockRepository(db, cfg.DBTimeout, log)
	productRepo := productrepo.NewProductRepository(db, cacheClient, cfg.DBTimeout, cfg.ProductCacheTTL)
	salesRepo := salesrepo.NewSalesRepository(db, cfg.DBTimeout, log)
	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout, log)
	log.Debug("Repositórios inicializados.", nil)

	// B. Serviço de Estoque (estratégias de alocação + OCC + cache)
	strategies := allocation.NewContext()
	inventorySvc := inventoryservice.NewService(tankRepo, stockRepo, productRepo, strategies, cacheClient, log, inventoryservice.Config{
		DefaultDailyConsumption: cfg.DefaultDailyConsumption,
		DefaultLeadTimeDays:     cfg.DefaultLeadTimeDays,
		MovementMaxRetries:      cfg.MovementMaxRetries,
		AvailabilityCacheTTL:    cfg.AvailabilityCacheTTL,
		AlertsCacheTTL:          cfg.AlertsCacheTTL,
	})
	log.Debug("Serviço de Estoque inicializado.", nil)

	// C. Pipeline de Vendas (combustível e produto)
	clock := idgen.SystemClock{}
	ids := idgen.NewSaleIDGenerator(clock)
	authorizer := payment.NewAuthorizer(clock, log)
	reporter := compliance.NewReporter(log)
	alertSink := alerting.NewSink(log)

	deps := pipeline.Deps{
		IDs:      ids,
		Clock:    clock,
		Store:    salesRepo,
		Receipts: salesRepo,
		Payments: authorizer,
		Logger:   log,
	}
	fuelProcessor := pipeline.NewFuelProcessor(deps, inventorySvc, alertSink, reporter, pipeline.FuelConfig{
		LowTankThreshold:    cfg.TankLowLevelThreshold,
		ComplianceThreshold: cfg.ComplianceThreshold,
	})
	productProcessor := pipeline.NewProductProcessor(deps, inventorySvc, alertSink, pipeline.ProductConfig{
		ReplenishThreshold: cfg.ProductReplenishAt,
	})
	salesSvc := salesservice.NewService(fuelProcessor, productProcessor, salesRepo, log)
	log.Debug("Pipeline de Vendas inicializado.", nil)

	// D. Serviço de Tokens (JWT) e Usuários
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)
	userSvc := userservice.NewService(userRepo, tokenSvc)
	log.Debug("Serviço de Usuário inicializado.", nil)

	// E. Handlers (Camada de Apresentação)
	inventoryHandler := inventory.NewHandler(inventorySvc, log)
	salesHandler := sales.NewHandler(salesSvc, log)
	userHandler := user.NewHandler(userSvc, log)
	log.Debug("Handlers inicializados.", nil)

	// 4. Configuração e Início do Roteador/Servidor
	r := router.NewRouter(inventoryHandler, salesHandler, userHandler, tokenSvc, cacheClient,
		cfg.RateLimitMaxRequests, cfg.RateLimitPeriod)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Execução e Graceful Shutdown
	go func() {
		log.Info("Servidor GoPostos ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Servidor falhou.", err)
		}
	}()

	// Lógica do Graceful Shutdown (captura de sinal)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Desligamento do servidor forçado.", err)
	}

	log.Info("Servidor encerrado com sucesso.", nil)
}
