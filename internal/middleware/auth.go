package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/qrprime/internal/domain"
	"github.com/dukerupert/qrprime/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const accountContextKey contextKey = "account"

var errNoSigningSecret = errors.New("no token signing secret configured")

// AccountLoader reads the account a token refers to.
type AccountLoader interface {
	GetAccount(ctx context.Context, id uuid.UUID) (domain.Account, error)
}

// Claims are the bearer token claims issued by the account service. Older
// tokens carry the account under "id".
type Claims struct {
	UserID string `json:"userId,omitempty"`
	ID     string `json:"id,omitempty"`
	jwt.RegisteredClaims
}

func (c Claims) accountID() (uuid.UUID, error) {
	raw := c.UserID
	if raw == "" {
		raw = c.ID
	}
	return uuid.Parse(raw)
}

// Authenticate verifies the HS256 bearer token, loads the account it names
// and stores it in the request context. Any failure is a 401. With an
// empty secret every token is rejected, since HS256 accepts an empty key.
func Authenticate(secret []byte, accounts AccountLoader) func(http.Handler) http.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	keyFunc := func(*jwt.Token) (any, error) {
		if len(secret) == 0 {
			return nil, errNoSigningSecret
		}
		return secret, nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				respondUnauthorized(w, r, "Authentication required")
				return
			}

			var claims Claims
			if _, err := parser.ParseWithClaims(raw, &claims, keyFunc); err != nil {
				GetLogger(r.Context()).Debug("rejected bearer token", "error", err)
				respondUnauthorized(w, r, "Invalid or expired token")
				return
			}
			accountID, err := claims.accountID()
			if err != nil {
				respondUnauthorized(w, r, "Invalid or expired token")
				return
			}

			account, err := accounts.GetAccount(r.Context(), accountID)
			if errors.Is(err, repository.ErrNotFound) {
				respondUnauthorized(w, r, "Account not found")
				return
			}
			if err != nil {
				respondInternalError(w, r, err)
				return
			}

			logger := GetLogger(r.Context()).With(slog.String("account_id", account.ID.String()))
			ctx := context.WithValue(withLogger(r.Context(), logger), accountContextKey, &account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireAdmin rejects authenticated callers whose role is not admin. It
// must run after Authenticate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account := GetAccountFromContext(r.Context())
		if account == nil {
			respondUnauthorized(w, r, "Authentication required")
			return
		}
		if !account.IsAdmin() {
			respondForbidden(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetAccountFromContext returns the authenticated account, or nil.
func GetAccountFromContext(ctx context.Context) *domain.Account {
	account, _ := ctx.Value(accountContextKey).(*domain.Account)
	return account
}

// WithAccount returns ctx carrying account. Handler tests use it to skip
// token verification.
func WithAccount(ctx context.Context, account *domain.Account) context.Context {
	return context.WithValue(ctx, accountContextKey, account)
}
