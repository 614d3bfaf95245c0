package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config armazena todas as configurações do aplicativo GoPostos.
// Os campos cobrem infraestrutura (DB, Cache, Segurança) e os parâmetros
// operacionais do posto (limiares de alerta, retentativas, relatórios).
type Config struct {
	// Geral
	Port        string
	Environment string
	LogLevel    string

	// Banco de Dados (PostgreSQL)
	DatabaseURL string
	DBTimeout   time.Duration

	// Cache (Redis)
	RedisAddr            string
	ProductCacheTTL      time.Duration
	AvailabilityCacheTTL time.Duration
	AlertsCacheTTL       time.Duration

	// Segurança (JWT)
	JWTSecretKey string
	TokenExpiry  time.Duration

	// Rate Limiting
	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration

	// Operação do Posto
	MovementMaxRetries      int
	TankLowLevelThreshold   float64 // litros; abaixo disso a venda gera alerta
	ProductReplenishAt      int     // unidades; saldo igual ou menor gera alerta
	ComplianceThreshold     float64 // valor em R$ que exige comunicação ao órgão regulador
	DefaultDailyConsumption float64 // litros/dia quando o combustível não informa
	DefaultLeadTimeDays     int     // prazo de entrega padrão do fornecedor
}

// LoadConfig carrega as configurações a partir das variáveis de ambiente.
func LoadConfig() *Config {
	cfg := &Config{
		// 1. Geral
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// 2. Banco de Dados (PostgreSQL)
		// mustGetEnv garante que a aplicação não inicie sem credenciais de DB
		DatabaseURL: mustGetEnv("DATABASE_URL"),
		DBTimeout:   getDurationEnv("DB_TIMEOUT_SEC", 5) * time.Second,

		// 3. Cache (Redis)
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		ProductCacheTTL:      getDurationEnv("PRODUCT_CACHE_TTL_SEC", 300) * time.Second,
		AvailabilityCacheTTL: getDurationEnv("AVAILABILITY_CACHE_TTL_SEC", 60) * time.Second,
		AlertsCacheTTL:       getDurationEnv("ALERTS_CACHE_TTL_SEC", 30) * time.Second,

		// 4. Segurança (JWT)
		JWTSecretKey: mustGetEnv("JWT_SECRET_KEY"),
		TokenExpiry:  getDurationEnv("JWT_EXPIRY_MIN", 60) * time.Minute,

		// 5. Rate Limiting
		RateLimitMaxRequests: getIntEnv("RATE_LIMIT_MAX_REQUESTS", 100),
		RateLimitPeriod:      getDurationEnv("RATE_LIMIT_PERIOD_MIN", 1) * time.Minute,

		// 6. Operação do Posto
		MovementMaxRetries:      getIntEnv("MOVEMENT_MAX_RETRIES", 3),
		TankLowLevelThreshold:   getFloatEnv("TANK_LOW_LEVEL_LITERS", 1000),
		ProductReplenishAt:      getIntEnv("PRODUCT_REPLENISH_AT", 10),
		ComplianceThreshold:     getFloatEnv("COMPLIANCE_REPORT_THRESHOLD", 1000),
		DefaultDailyConsumption: getFloatEnv("DEFAULT_DAILY_CONSUMPTION_L", 500),
		DefaultLeadTimeDays:     getIntEnv("DEFAULT_LEAD_TIME_DAYS", 3),
	}

	return cfg
}

// Funções Helpers (Auxiliares)

// getEnv lê a variável de ambiente ou retorna um valor padrão.
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// mustGetEnv lê a variável de ambiente, fatal se não estiver presente.
func mustGetEnv(key string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Fatalf("❌ Erro de Configuração: A variável de ambiente %s deve ser definida.", key)
	return ""
}

// getDurationEnv lê uma variável de ambiente numérica e retorna-a como time.Duration.
func getDurationEnv(key string, defaultValue int) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return time.Duration(defaultValue)
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("⚠️ Aviso: Valor de %s ('%s') não é um número inteiro válido. Usando padrão (%d).", key, valueStr, defaultValue)
		return time.Duration(defaultValue)
	}
	return time.Duration(value)
}

// getIntEnv lê uma variável de ambiente numérica e retorna-a como int.
func getIntEnv(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("⚠️ Aviso: Valor de %s ('%s') não é um número inteiro válido. Usando padrão (%d).", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

// getFloatEnv lê uma variável de ambiente numérica e retorna-a como float64.
func getFloatEnv(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("⚠️ Aviso: Valor de %s ('%s') não é um número válido. Usando padrão (%g).", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}
