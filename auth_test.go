package arangorest

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestAuthHeaders(t *testing.T) {
	tests := []struct {
		name       string
		opts       []Option
		wantScheme AuthScheme
		wantPrefix string
	}{
		{
			name:       "basic",
			opts:       []Option{WithBasicAuth("root", "secret")},
			wantScheme: AuthBasic,
			wantPrefix: "Basic ",
		},
		{
			name:       "bearer",
			opts:       []Option{WithBearerToken("tok")},
			wantScheme: AuthBearer,
			wantPrefix: "bearer tok",
		},
		{
			name:       "bearer wins over basic",
			opts:       []Option{WithBasicAuth("root", "secret"), WithBearerToken("tok")},
			wantScheme: AuthBearer,
			wantPrefix: "bearer tok",
		},
		{
			name:       "jwt secret",
			opts:       []Option{WithJWTSecret("s3cr3t"), WithBasicAuth("root", "")},
			wantScheme: AuthBearer,
			wantPrefix: "bearer ey",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newFakeServer(t, okHandler)
			client, err := New(append([]Option{WithEndpoint(fs.URL)}, tt.opts...)...)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			defer client.Close()

			if client.AuthScheme() != tt.wantScheme {
				t.Errorf("AuthScheme() = %q, want %q", client.AuthScheme(), tt.wantScheme)
			}

			for i := 0; i < 2; i++ {
				if _, err := client.Get(context.Background(), "/_api/version"); err != nil {
					t.Fatalf("Get() error = %v", err)
				}
			}

			for _, req := range fs.Requests() {
				auth := req.Header.Get("Authorization")
				if !strings.HasPrefix(auth, tt.wantPrefix) {
					t.Errorf("Authorization = %q, want prefix %q", auth, tt.wantPrefix)
				}
				if tt.wantScheme == AuthBearer && strings.HasPrefix(auth, "Basic") {
					t.Error("bearer client sent Basic credentials")
				}
			}
		})
	}
}

func TestBasicAuthCredentials(t *testing.T) {
	fs := newFakeServer(t, okHandler)
	client, err := New(WithEndpoint(fs.URL), WithBasicAuth("root", "p:ss"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := client.Get(context.Background(), "/_api/version"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	auth := fs.last(t).Header.Get("Authorization")
	decoded, err := decodeBase64(strings.TrimPrefix(auth, "Basic "))
	if err != nil {
		t.Fatalf("decode credentials: %v", err)
	}
	if string(decoded) != "root:p:ss" {
		t.Errorf("credentials = %q, want root:p:ss", decoded)
	}
}

func TestMissingCredentials(t *testing.T) {
	called := false
	fs := newFakeServer(t, func(w http.ResponseWriter, r *http.Request, body []byte) {
		called = true
		okHandler(w, r, body)
	})

	_, err := New(WithEndpoint(fs.URL))
	if !IsConfig(err) {
		t.Fatalf("New() error = %v, want *ConfigError", err)
	}
	if !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("errors.Is(err, ErrMissingCredentials) = false")
	}
	if called {
		t.Error("server was contacted")
	}
}

func TestMintSuperuserToken(t *testing.T) {
	now := time.Unix(1700000000, 0)
	signed, err := mintSuperuserToken("s3cr3t", now)
	if err != nil {
		t.Fatalf("mintSuperuserToken() error = %v", err)
	}

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(signed, claims, func(token *jwt.Token) (any, error) {
		return []byte("s3cr3t"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}

	if claims["iss"] != "arangodb" {
		t.Errorf("iss = %v, want arangodb", claims["iss"])
	}
	if id, _ := claims["server_id"].(string); !strings.HasPrefix(id, "arangorest-") {
		t.Errorf("server_id = %v", claims["server_id"])
	}
	if iat, _ := claims["iat"].(float64); int64(iat) != now.Unix() {
		t.Errorf("iat = %v, want %d", claims["iat"], now.Unix())
	}
}
