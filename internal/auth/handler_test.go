package auth_test

import (
	"net/http"
	"testing"
	"time"

	"bizops-backend/internal/auth"
	"bizops-backend/internal/models"
	"bizops-backend/internal/server/servertest"
	"bizops-backend/internal/testutil"

	"github.com/golang-jwt/jwt/v5"
)

func TestRegisterAdminLoginAndMe(t *testing.T) {
	env := servertest.New(t)

	admin := map[string]string{"name": "Ada", "email": "ADA@example.com", "password": "correct-horse"}
	if resp := env.JSON(t, http.MethodPost, "/api/auth/register-admin", "", admin); resp.Status != http.StatusCreated {
		t.Fatalf("register: %d %s", resp.Status, resp.Body)
	}
	if resp := env.JSON(t, http.MethodPost, "/api/auth/register-admin", "", admin); resp.Status != http.StatusForbidden {
		t.Errorf("second register = %d, want 403", resp.Status)
	}

	resp := env.JSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ada@example.com", "password": "wrong-password"})
	if resp.Status != http.StatusUnauthorized {
		t.Errorf("bad password = %d, want 401", resp.Status)
	}

	resp = env.JSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ada@example.com", "password": "correct-horse"})
	if resp.Status != http.StatusOK {
		t.Fatalf("login: %d %s", resp.Status, resp.Body)
	}
	var login struct {
		Token string            `json:"token"`
		User  auth.UserResponse `json:"user"`
	}
	resp.Decode(t, &login)
	if login.Token == "" || login.User.Role != models.RoleAdmin {
		t.Fatalf("login = %+v", login)
	}

	resp = env.JSON(t, http.MethodGet, "/api/auth/me", "Bearer "+login.Token, nil)
	var me auth.UserResponse
	resp.Decode(t, &me)
	if me.Email != "ada@example.com" {
		t.Errorf("me = %+v", me)
	}
}

func TestTokenChecks(t *testing.T) {
	env := servertest.New(t)
	user, _ := testutil.CreateUser(t, models.RoleFinance)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.JWTCustomClaims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	expiredToken, err := expired.SignedString([]byte(testutil.JWTSecret))
	if err != nil {
		t.Fatal(err)
	}
	forged, err := auth.GenerateToken("another-secret-another-secret-0000", &user)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"not bearer", "Token abc"},
		{"expired", "Bearer " + expiredToken},
		{"wrong secret", "Bearer " + forged},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if resp := env.JSON(t, http.MethodGet, "/api/auth/me", tt.header, nil); resp.Status != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", resp.Status)
			}
		})
	}
}

func TestUsersAreAdminOnly(t *testing.T) {
	env := servertest.New(t)
	_, admin := testutil.CreateUser(t, models.RoleAdmin)
	_, finance := testutil.CreateUser(t, models.RoleFinance)

	body := map[string]string{"name": "Pat", "email": "pat@example.com", "password": "long-enough", "role": "project_manager"}
	if resp := env.JSON(t, http.MethodPost, "/api/users", finance, body); resp.Status != http.StatusForbidden {
		t.Errorf("finance create = %d, want 403", resp.Status)
	}
	if resp := env.JSON(t, http.MethodPost, "/api/users", admin, body); resp.Status != http.StatusCreated {
		t.Fatalf("admin create = %d %s", resp.Status, resp.Body)
	}
	if resp := env.JSON(t, http.MethodPost, "/api/users", admin, body); resp.Status != http.StatusBadRequest {
		t.Errorf("duplicate email = %d, want 400", resp.Status)
	}

	body["email"] = "sam@example.com"
	body["role"] = "owner"
	if resp := env.JSON(t, http.MethodPost, "/api/users", admin, body); resp.Status != http.StatusBadRequest {
		t.Errorf("unknown role = %d, want 400", resp.Status)
	}

	var users []auth.UserResponse
	env.JSON(t, http.MethodGet, "/api/users", admin, nil).Decode(t, &users)
	if len(users) != 3 {
		t.Errorf("users = %d, want 3", len(users))
	}
}
