package domain

import "time"

// UserRole define o papel de um operador no sistema.
type UserRole string

const (
	RoleOwner    UserRole = "proprietario"
	RoleOperator UserRole = "operador"
)

// User representa um operador/proprietário de posto com acesso ao sistema.
type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	PasswordHash    string    `json:"-"`
	Role            UserRole  `json:"role"`
	EstablishmentID string    `json:"establishment_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// UserRegistration é o payload esperado para registro de um novo operador.
type UserRegistration struct {
	Email           string `json:"email"`
	Name            string `json:"name"`
	Password        string `json:"password"`
	EstablishmentID string `json:"establishment_id"`
}
