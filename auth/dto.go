package auth

import "github.com/user/imobiliaria-go/users"

const (
	MsgMissingFields      = "Usuário e senha são obrigatórios"
	MsgInvalidCredentials = "Credenciais inválidas"
	MsgLoginSucceeded     = "Login realizado com sucesso"
	MsgLoginFailed        = "Erro ao processar login"
)

// LoginRequest represents the login request payload.
type LoginRequest struct {
	Username string `json:"username" validate:"required" example:"@userCliente96"`
	Password string `json:"password" validate:"required" example:"@passwordCliente96"`
}

// LoginResponse is the body of POST /api/auth/login.
type LoginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty" example:"Login realizado com sucesso"`
}

// CheckResponse is the body of GET /api/auth/check.
type CheckResponse struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty" example:"@userCliente96"`
}

// SuccessResponse is returned by logout.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// RPCLoginResponse is the result of the auth.login procedure.
type RPCLoginResponse struct {
	Success bool          `json:"success"`
	User    users.Summary `json:"user"`
}
