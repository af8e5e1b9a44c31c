package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSecureCompare(t *testing.T) {
	if !SecureCompare("secret", "secret") {
		t.Error("Expected equal strings to match")
	}
	if SecureCompare("secret", "Secret") {
		t.Error("Expected different strings to not match")
	}
	if SecureCompare("secret", "secret2") {
		t.Error("Expected different lengths to not match")
	}
}

func TestGenerateAPIKey(t *testing.T) {
	key1, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	key2, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	if key1 == key2 {
		t.Error("Expected unique keys")
	}
	if len(key1) < 32 {
		t.Errorf("Key too short: %d chars", len(key1))
	}
}

func TestMiddleware(t *testing.T) {
	handler := Middleware("test-key")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name     string
		path     string
		auth     string
		expected int
	}{
		{"valid key", "/stores", "Bearer test-key", http.StatusOK},
		{"missing header", "/stores", "", http.StatusUnauthorized},
		{"wrong key", "/stores", "Bearer wrong-key", http.StatusUnauthorized},
		{"health is open", "/health", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, rec.Code)
			}
		})
	}
}
