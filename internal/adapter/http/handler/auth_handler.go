package handler

import (
	"encoding/json"
	"net/http"

	"github.com/iho/creditledger/internal/adapter/http/dto"
	"github.com/iho/creditledger/internal/adapter/http/middleware"
	"github.com/iho/creditledger/internal/domain"
)

// TokenIssuer signs bearer tokens.
type TokenIssuer interface {
	Generate(p *domain.Principal) (string, error)
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	issuer TokenIssuer
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(issuer TokenIssuer) *AuthHandler {
	return &AuthHandler{issuer: issuer}
}

// IssueToken signs a token for the requested principal. Only admins may issue
// tokens.
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	if !middleware.GetPrincipalFromContext(r.Context()).CanAudit() {
		writeError(w, http.StatusForbidden, "failed to issue token", domain.ErrForbidden.Error())
		return
	}

	var req dto.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	principal := &domain.Principal{
		Subject:    req.Subject,
		Role:       domain.Role(req.Role),
		CustomerID: req.CustomerID,
	}
	if principal.Subject == "" {
		writeError(w, http.StatusBadRequest, "failed to issue token", "subject is required")
		return
	}

	token, err := h.issuer.Generate(principal)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to issue token", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.TokenResponse{
		Token:      token,
		Subject:    principal.Subject,
		Role:       string(principal.Role),
		CustomerID: principal.CustomerID,
	})
}
