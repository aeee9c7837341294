package auth

import (
	"github.com/go-playground/validator/v10"

	"github.com/user/imobiliaria-go/apperror"
	"github.com/user/imobiliaria-go/rpc"
)

// RegisterProcedures adds auth.me, auth.login and auth.logout to router.
func RegisterProcedures(router *rpc.Router, svc *AuthService) {
	validate := validator.New()

	router.Query("auth.me", rpc.Typed(func(c *rpc.Context, _ struct{}) (any, error) {
		if c.User == nil {
			return nil, nil
		}
		return c.User.ToProfile(), nil
	}))

	router.Mutation("auth.login", rpc.Typed(func(c *rpc.Context, in LoginRequest) (any, error) {
		if err := validate.Struct(in); err != nil {
			if in.Username == "" {
				return nil, apperror.NewValidationError("Usuário é obrigatório", err)
			}
			return nil, apperror.NewValidationError("Senha é obrigatória", err)
		}
		u, token, err := svc.Login(c, in.Username, in.Password)
		if err != nil {
			if apperror.IsAuthError(err) {
				return nil, apperror.NewUnauthorizedError(MsgInvalidCredentials, err)
			}
			return nil, err
		}
		svc.StartSession(c.Jar, token)
		return RPCLoginResponse{Success: true, User: u.ToSummary()}, nil
	}))

	router.Mutation("auth.logout", rpc.Typed(func(c *rpc.Context, _ struct{}) (any, error) {
		svc.EndSession(c.Jar)
		return SuccessResponse{Success: true}, nil
	}))
}
