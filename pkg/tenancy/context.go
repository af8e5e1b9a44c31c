package tenancy

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

type contextKey string

// CompanyIDKey is the context key carrying the tenant company ID
const CompanyIDKey contextKey = "company_id"

var (
	ErrNoCompanyInContext = errors.New("no company ID in context")
	ErrInvalidCompanyID   = errors.New("invalid company ID")
)

// GetCompanyID extracts the company ID from context
func GetCompanyID(ctx context.Context) (string, error) {
	companyID, ok := ctx.Value(CompanyIDKey).(string)
	if !ok || companyID == "" {
		return "", ErrNoCompanyInContext
	}
	return companyID, nil
}

// WithCompany adds a company ID to context
func WithCompany(ctx context.Context, companyID string) context.Context {
	return context.WithValue(ctx, CompanyIDKey, companyID)
}

// CompanyMiddleware extracts the tenant company from the request and adds
// it to the context. Supported sources, in order:
//  1. X-Company-ID header
//  2. Bearer token prefix (espace_<company>_<key>)
//  3. company_id query parameter (SSE streams can't set headers)
func CompanyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var companyID string

		if header := r.Header.Get("X-Company-ID"); header != "" {
			companyID = header
		}

		if companyID == "" {
			if auth := r.Header.Get("Authorization"); auth != "" {
				token := strings.TrimPrefix(auth, "Bearer ")
				if parts := strings.Split(token, "_"); len(parts) >= 3 && parts[0] == "espace" {
					companyID = parts[1]
				}
			}
		}

		if companyID == "" {
			if query := r.URL.Query().Get("company_id"); query != "" {
				companyID = query
			}
		}

		if companyID != "" {
			r = r.WithContext(WithCompany(r.Context(), companyID))
		}

		next.ServeHTTP(w, r)
	})
}

// RequireCompany ensures the request carries a valid tenant context
func RequireCompany(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		companyID, err := GetCompanyID(r.Context())
		if err != nil {
			http.Error(w, `{"error":"company_required","message":"No company ID provided"}`, http.StatusBadRequest)
			return
		}
		if !isValidCompanyID(companyID) {
			http.Error(w, `{"error":"invalid_company","message":"Invalid company ID format"}`, http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// isValidCompanyID validates the company ID format
func isValidCompanyID(companyID string) bool {
	if len(companyID) == 0 || len(companyID) > 64 {
		return false
	}
	for _, ch := range companyID {
		if !((ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') ||
			(ch >= '0' && ch <= '9') || ch == '-' || ch == '_') {
			return false
		}
	}
	return true
}
