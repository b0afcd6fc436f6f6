package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	apperrors "github.com/lueurxax/claim-bench/internal/core/errors"
)

const bearerPrefix = "Bearer "

// authorize checks the bearer token. An empty configured token disables auth.
func (h *Handler) authorize(r *http.Request) error {
	if h.authToken == "" {
		return nil
	}

	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return apperrors.ErrUnauthorized
	}

	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.authToken)) != 1 {
		return apperrors.ErrUnauthorized
	}

	return nil
}
