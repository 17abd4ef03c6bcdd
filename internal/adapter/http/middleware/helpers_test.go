package middleware

import (
	"context"
	"net/http"

	"github.com/iho/txledger/internal/domain"
)

func contextWithPrincipal(r *http.Request, p *domain.Principal) context.Context {
	return context.WithValue(r.Context(), PrincipalContextKey, p)
}
