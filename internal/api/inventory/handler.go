package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"gopostos/internal/allocation"
	"gopostos/internal/domain"
	apperror "gopostos/internal/errors"
	"gopostos/internal/pkg/logger"
)

// InventoryService define o contrato que o Handler espera da camada de Serviço.
type InventoryService interface {
	ComputeAvailability(ctx context.Context, selector domain.StockSelector) (domain.AvailabilitySnapshot, error)
	CheckAvailability(ctx context.Context, selector domain.StockSelector, req allocation.AvailabilityRequest) (domain.AvailabilityResult, error)
	ApplyMovement(ctx context.Context, selector domain.StockSelector, mv allocation.Movement) (domain.MovementResult, error)
	GetAlerts(ctx context.Context, establishmentID, fuelTypeID string) ([]domain.Alert, error)
	ReorderReport(ctx context.Context, establishmentID, fuelTypeID string) (domain.ReorderReport, error)
}

// CheckRequest é o payload de consulta de disponibilidade.
type CheckRequest struct {
	Selector domain.StockSelector `json:"selector"`
	Liters   float64              `json:"liters,omitempty"` // Volumétrico
	Units    int                  `json:"units,omitempty"`  // Unitário
}

// MovementRequest é o payload de movimentação de estoque.
type MovementRequest struct {
	Selector       domain.StockSelector `json:"selector"`
	Direction      string               `json:"direction"` // ENTRADA | SAIDA | TRANSFERENCIA | INVENTARIO
	Liters         float64              `json:"liters,omitempty"`
	LocationID     string               `json:"location_id,omitempty"`
	DestLocationID string               `json:"dest_location_id,omitempty"`
	Units          int                  `json:"units,omitempty"`
}

// Handler agrupa todos os métodos de Handler de estoque.
type Handler struct {
	Service InventoryService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc InventoryService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// handleServiceResponse processa erros de serviço e envia respostas padronizadas ao cliente.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)
		if data != nil {
			if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
				h.Logger.Error("Falha ao codificar JSON de resposta", jsonErr)
				http.Error(w, "Erro ao codificar resposta", http.StatusInternalServerError)
			}
		}
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		h.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
	}

	errorResponse := map[string]interface{}{
		"code":     status,
		"category": category,
		"message":  message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse)
}

// AvailabilityHandler lida com a requisição POST /v1/inventory/availability.
// @Summary Snapshot de disponibilidade de estoque
// @Description Calcula a disponibilidade da variante pedida (volumétrica: volume utilizável com margem de segurança; unitária: agregação por produto).
// @Tags inventory
// @Accept json
// @Produce json
// @Param selector body domain.StockSelector true "Seletor da variante e do recurso"
// @Success 200 {object} domain.AvailabilitySnapshot
// @Failure 400 {object} domain.ErrorResponse "Seletor inválido"
// @Failure 404 {object} domain.ErrorResponse "Recurso não encontrado"
// @Router /inventory/availability [post]
func (h *Handler) AvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	var selector domain.StockSelector
	if err := json.NewDecoder(r.Body).Decode(&selector); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	snapshot, err := h.Service.ComputeAvailability(r.Context(), selector)
	h.handleServiceResponse(w, r, snapshot, err, http.StatusOK)
}

// CheckHandler lida com a requisição POST /v1/inventory/check.
// @Summary Verifica se uma quantidade pode ser atendida
// @Tags inventory
// @Accept json
// @Produce json
// @Param check body CheckRequest true "Seletor e quantidade pedida"
// @Success 200 {object} domain.AvailabilityResult
// @Failure 404 {object} domain.ErrorResponse "Produto ou combustível não encontrado"
// @Router /inventory/check [post]
func (h *Handler) CheckHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	result, err := h.Service.CheckAvailability(r.Context(), req.Selector, allocation.AvailabilityRequest{
		Liters:    req.Liters,
		ProductID: req.Selector.ProductID,
		Units:     req.Units,
	})
	h.handleServiceResponse(w, r, result, err, http.StatusOK)
}

// MovementHandler lida com a requisição POST /v1/inventory/movements.
// @Summary Aplica uma movimentação de estoque
// @Description Entrada, saída, transferência ou ajuste de inventário, com controle de concorrência otimista. Saída volumétrica parcial retorna 409 com a porção drenada já efetivada.
// @Tags inventory
// @Accept json
// @Produce json
// @Param movement body MovementRequest true "Movimentação a aplicar"
// @Success 200 {object} domain.MovementResult
// @Failure 409 {object} domain.ErrorResponse "Estoque insuficiente, atendimento parcial ou conflito de concorrência"
// @Router /inventory/movements [post]
func (h *Handler) MovementHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	var req MovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusOK)
		return
	}

	result, err := h.Service.ApplyMovement(r.Context(), req.Selector, allocation.Movement{
		Direction:      req.Direction,
		Liters:         req.Liters,
		ProductID:      req.Selector.ProductID,
		LocationID:     req.LocationID,
		DestLocationID: req.DestLocationID,
		Units:          req.Units,
	})
	h.handleServiceResponse(w, r, result, err, http.StatusOK)
}

// AlertsHandler lida com a requisição GET /v1/inventory/alerts.
// @Summary Alertas de reposição e nível de um combustível
// @Tags inventory
// @Produce json
// @Param establishment_id query string true "ID do estabelecimento"
// @Param fuel_type_id query string true "ID do tipo de combustível"
// @Success 200 {array} domain.Alert
// @Router /inventory/alerts [get]
func (h *Handler) AlertsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	establishmentID := r.URL.Query().Get("establishment_id")
	fuelTypeID := r.URL.Query().Get("fuel_type_id")
	if establishmentID == "" || fuelTypeID == "" {
		h.handleServiceResponse(w, r, nil,
			apperror.NewValidationError("Parâmetros establishment_id e fuel_type_id são obrigatórios."), http.StatusOK)
		return
	}

	alerts, err := h.Service.GetAlerts(r.Context(), establishmentID, fuelTypeID)
	h.handleServiceResponse(w, r, alerts, err, http.StatusOK)
}

// ReorderReportHandler lida com a requisição GET /v1/inventory/reorder-report.
// @Summary Relatório de ponto de reposição de um combustível
// @Tags inventory
// @Produce json
// @Param establishment_id query string true "ID do estabelecimento"
// @Param fuel_type_id query string true "ID do tipo de combustível"
// @Success 200 {object} domain.ReorderReport
// @Router /inventory/reorder-report [get]
func (h *Handler) ReorderReportHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	establishmentID := r.URL.Query().Get("establishment_id")
	fuelTypeID := r.URL.Query().Get("fuel_type_id")
	if establishmentID == "" || fuelTypeID == "" {
		h.handleServiceResponse(w, r, nil,
			apperror.NewValidationError("Parâmetros establishment_id e fuel_type_id são obrigatórios."), http.StatusOK)
		return
	}

	report, err := h.Service.ReorderReport(r.Context(), establishmentID, fuelTypeID)
	h.handleServiceResponse(w, r, report, err, http.StatusOK)
}
