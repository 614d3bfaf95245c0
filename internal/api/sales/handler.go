package sales

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"gopostos/internal/domain"
	apperror "gopostos/internal/errors"
	"gopostos/internal/pkg/logger"
)

// SalesService define o contrato que o Handler espera da camada de Serviço.
type SalesService interface {
	SubmitSale(ctx context.Context, req domain.SaleRequest) (domain.SaleResult, error)
	GetSale(ctx context.Context, saleID string) (domain.Sale, error)
}

// Handler agrupa todos os métodos de Handler de vendas.
type Handler struct {
	Service SalesService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc SalesService, log logger.Logger) *Handler {
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

// SubmitSaleHandler lida com a requisição POST /v1/sales.
// @Summary Processa uma venda de ponta a ponta
// @Description Valida, registra, atualiza o estoque, totaliza, emite cupom e processa o pagamento. Venda de combustível com drenagem parcial retorna 409; a porção drenada permanece efetivada.
// @Tags sales
// @Accept json
// @Produce json
// @Param sale body domain.SaleRequest true "Requisição de venda (combustível ou produtos)"
// @Success 201 {object} domain.SaleResult "Venda concluída com cupom e pagamento"
// @Failure 400 {object} domain.ErrorResponse "Requisição inválida (itens mistos, campos ausentes)"
// @Failure 409 {object} domain.ErrorResponse "Estoque insuficiente ou atendimento parcial"
// @Failure 502 {object} domain.ErrorResponse "Falha no autorizador de pagamento"
// @Router /sales [post]
func (h *Handler) SubmitSaleHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	var req domain.SaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
		return
	}

	result, err := h.Service.SubmitSale(r.Context(), req)
	h.handleServiceResponse(w, r, result, err, http.StatusCreated)
}

// GetSaleHandler lida com a requisição GET /v1/sales/{id}.
// @Summary Busca uma venda registrada
// @Tags sales
// @Produce json
// @Param id path string true "ID da venda (formato VND-...)"
// @Success 200 {object} domain.Sale
// @Failure 404 {object} domain.ErrorResponse "Venda não encontrada"
// @Router /sales/{id} [get]
func (h *Handler) GetSaleHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Método não permitido", http.StatusMethodNotAllowed)
		return
	}

	saleID := strings.TrimPrefix(r.URL.Path, "/v1/sales/")
	sale, err := h.Service.GetSale(r.Context(), saleID)
	h.handleServiceResponse(w, r, sale, err, http.StatusOK)
}
