package errors

import (
	"fmt"
	"net/http"
)

// AppError é a interface central para todos os erros customizados do GoPostos.
// Ela permite que o código externo (Handler) acesse a Categoria e a Mensagem do erro.
type AppError interface {
	Error() string    // Implementa a interface error padrão do Go
	Category() string // Categoria do erro (e.g., "VALIDATION_ERROR", "NOT_FOUND")
	HTTPStatus() int  // Código HTTP sugerido para o Handler
	Unwrap() error    // Permite encapsular erros subjacentes (original error)
}

// --- Tipos de Erro Específicos (Erros de Domínio) ---

// ValidationError representa falhas de validação de dados de entrada.
// Nada foi mutado quando este erro é retornado.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string    { return fmt.Sprintf("Erro de Validação: %s", e.Msg) }
func (e *ValidationError) Category() string { return "VALIDATION_ERROR" }
func (e *ValidationError) HTTPStatus() int  { return http.StatusBadRequest } // 400
func (e *ValidationError) Unwrap() error    { return nil }

// NewValidationError cria um novo erro de validação.
func NewValidationError(msg string) AppError {
	return &ValidationError{Msg: msg}
}

// NotFoundError representa a ausência de um recurso solicitado (tanque, produto, local).
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string    { return fmt.Sprintf("Recurso não encontrado: %s", e.Msg) }
func (e *NotFoundError) Category() string { return "NOT_FOUND" }
func (e *NotFoundError) HTTPStatus() int  { return http.StatusNotFound } // 404
func (e *NotFoundError) Unwrap() error    { return nil }

// NewNotFoundError cria um novo erro de recurso não encontrado.
func NewNotFoundError(msg string) AppError {
	return &NotFoundError{Msg: msg}
}

// InsufficientStockError representa a falha da pré-checagem de saída de produtos.
// O estoque NÃO foi alterado: a venda é abortada antes de qualquer decremento.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Estoque insuficiente para o produto %s: solicitado %d, disponível %d",
		e.ProductID, e.Requested, e.Available)
}
func (e *InsufficientStockError) Category() string { return "INSUFFICIENT_STOCK" }
func (e *InsufficientStockError) HTTPStatus() int  { return http.StatusConflict } // 409
func (e *InsufficientStockError) Unwrap() error    { return nil }

// NewInsufficientStockError cria um erro de estoque insuficiente (nada mutado).
func NewInsufficientStockError(productID string, requested, available int) AppError {
	return &InsufficientStockError{ProductID: productID, Requested: requested, Available: available}
}

// PartialFulfillmentError representa uma movimentação volumétrica que não pôde
// absorver/drenar a quantidade completa. A porção processada JÁ FOI efetivada nos
// tanques e permanece efetivada: não há rollback compensatório. O chamador deve
// tratar a venda como falha, mas o estoque como alterado pela porção processada.
type PartialFulfillmentError struct {
	Requested float64
	Processed float64
	Remainder float64
}

func (e *PartialFulfillmentError) Error() string {
	return fmt.Sprintf("Movimentação parcial: %.2f de %.2f processados, restante %.2f (porção processada permanece efetivada)",
		e.Processed, e.Requested, e.Remainder)
}
func (e *PartialFulfillmentError) Category() string { return "PARTIAL_FULFILLMENT" }
func (e *PartialFulfillmentError) HTTPStatus() int  { return http.StatusConflict } // 409
func (e *PartialFulfillmentError) Unwrap() error    { return nil }

// NewPartialFulfillmentError cria um erro de atendimento parcial (mutação efetivada).
func NewPartialFulfillmentError(requested, processed, remainder float64) AppError {
	return &PartialFulfillmentError{Requested: requested, Processed: processed, Remainder: remainder}
}

// ConflictError representa um conflito de concorrência (OCC, leitura desatualizada)
// ou recurso duplicado. Usado também quando o limite de novas tentativas se esgota.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string    { return fmt.Sprintf("Conflito de estado: %s", e.Msg) }
func (e *ConflictError) Category() string { return "CONCURRENCY_CONFLICT" }
func (e *ConflictError) HTTPStatus() int  { return http.StatusConflict } // 409
func (e *ConflictError) Unwrap() error    { return nil }

// NewConflictError cria um novo erro de conflito (usado em OCC).
func NewConflictError(msg string) AppError {
	return &ConflictError{Msg: msg}
}

// UnauthorizedError representa falhas de autenticação/autorização.
type UnauthorizedError struct {
	Msg string
}

func (e *UnauthorizedError) Error() string    { return fmt.Sprintf("Não autorizado: %s", e.Msg) }
func (e *UnauthorizedError) Category() string { return "UNAUTHORIZED" }
func (e *UnauthorizedError) HTTPStatus() int  { return http.StatusUnauthorized } // 401
func (e *UnauthorizedError) Unwrap() error    { return nil }

// NewUnauthorizedError cria um novo erro de autorização.
func NewUnauthorizedError(msg string) AppError {
	return &UnauthorizedError{Msg: msg}
}

// --- Tipos de Erro de Infraestrutura (Encapsulamento) ---

// DownstreamError representa falhas dos colaboradores externos (gateway de
// pagamento, persistência) incluindo timeouts, mapeadas para o chamador.
type DownstreamError struct {
	Op  string // Operação do colaborador (e.g., "payment.authorize")
	Err error
}

func (e *DownstreamError) Error() string {
	return fmt.Sprintf("Falha no colaborador externo (%s): %v", e.Op, e.Err)
}
func (e *DownstreamError) Category() string { return "DOWNSTREAM_ERROR" }
func (e *DownstreamError) HTTPStatus() int  { return http.StatusBadGateway } // 502
func (e *DownstreamError) Unwrap() error    { return e.Err }

// NewDownstreamError cria um erro de colaborador externo.
func NewDownstreamError(op string, err error) AppError {
	return &DownstreamError{Op: op, Err: err}
}

// InternalError representa falhas inesperadas no servidor, serviço ou repositório.
type InternalError struct {
	Msg string
	Err error // Erro original subjacente (e.g., erro do driver SQL)
}

func (e *InternalError) Error() string    { return fmt.Sprintf("Erro Interno: %s", e.Msg) }
func (e *InternalError) Category() string { return "INTERNAL_ERROR" }
func (e *InternalError) HTTPStatus() int  { return http.StatusInternalServerError } // 500
func (e *InternalError) Unwrap() error    { return e.Err }

// NewInternalError cria um erro de servidor (para falhas de lógica ou código não esperado).
func NewInternalError(msg string, err error) AppError {
	return &InternalError{Msg: msg, Err: err}
}

// NewDBError é um atalho para criar um InternalError específico de falhas no DB.
func NewDBError(msg string, err error) AppError {
	return NewInternalError(fmt.Sprintf("%s (DB): %s", msg, err.Error()), err)
}

// --- Helper para o Handler (Tradução Final) ---

// MapToHTTPStatus recebe um erro e o traduz para o código HTTP e corpo de resposta.
func MapToHTTPStatus(err error) (int, string, string) {
	if appErr, ok := err.(AppError); ok {
		// O erro é tipado (ValidationError, NotFoundError, etc.)
		return appErr.HTTPStatus(), appErr.Category(), appErr.Error()
	}

	// Erro não tipado (e.g., erro simples de pacote Go que não implementa AppError)
	return http.StatusInternalServerError, "UNKNOWN_ERROR", "Ocorreu um erro inesperado."
}
