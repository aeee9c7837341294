package server

import (
	"github.com/user/imobiliaria-go/apperror"
	"github.com/user/imobiliaria-go/rpc"
)

type healthInput struct {
	Timestamp *float64 `json:"timestamp"`
}

func registerSystemProcedures(router *rpc.Router) {
	router.Query("system.health", rpc.Typed(func(_ *rpc.Context, in healthInput) (any, error) {
		if in.Timestamp != nil && *in.Timestamp < 0 {
			return nil, apperror.NewValidationError("timestamp cannot be negative", nil)
		}
		return map[string]bool{"ok": true}, nil
	}))
}
