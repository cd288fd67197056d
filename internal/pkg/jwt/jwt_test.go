package jwt_test

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActorFromContext(t *testing.T) {
	svc := jwt.NewJWTService("test-secret", "1h")
	userID := "0195f3a1-8c2e-7d4b-9a61-3e5f7b9d1c24"
	employeeID := "4b1d7e2a-9c3f-4e8d-a6b5-0f2c1d3e4a5b"

	tokenString, expiresAt, err := svc.GenerateAccessToken(userID, &employeeID, user.RoleManager)
	require.NoError(t, err)
	assert.NotZero(t, expiresAt)

	token, err := jwtauth.VerifyToken(svc.JWTAuth(), tokenString)
	require.NoError(t, err)
	ctx := jwtauth.NewContext(context.Background(), token, nil)

	actor, err := jwt.ActorFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, userID, actor.UserID)
	assert.Equal(t, user.RoleManager, actor.Role)
	require.NotNil(t, actor.EmployeeID)
	assert.Equal(t, employeeID, *actor.EmployeeID)
	assert.True(t, actor.IsManager())

	got, err := jwt.UserIDFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestActorFromContextRejectsNonUUIDClaims(t *testing.T) {
	svc := jwt.NewJWTService("test-secret", "1h")
	userID := "0195f3a1-8c2e-7d4b-9a61-3e5f7b9d1c24"

	tests := []struct {
		name       string
		userID     string
		employeeID *string
	}{
		{name: "user id", userID: "user-1"},
		{name: "employee id", userID: userID, employeeID: ptr("emp-1")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokenString, _, err := svc.GenerateAccessToken(tt.userID, tt.employeeID, user.RoleEmployee)
			require.NoError(t, err)
			token, err := jwtauth.VerifyToken(svc.JWTAuth(), tokenString)
			require.NoError(t, err)

			_, err = jwt.ActorFromContext(jwtauth.NewContext(context.Background(), token, nil))
			assert.ErrorIs(t, err, user.ErrInvalidToken)
		})
	}
}

func ptr(s string) *string {
	return &s
}

func TestActorFromContextWithoutToken(t *testing.T) {
	_, err := jwt.UserIDFromContext(context.Background())
	assert.ErrorIs(t, err, user.ErrInvalidToken)
}

func TestGenerateAccessTokenRejectsBadExpiry(t *testing.T) {
	svc := jwt.NewJWTService("test-secret", "soon")
	_, _, err := svc.GenerateAccessToken("0195f3a1-8c2e-7d4b-9a61-3e5f7b9d1c24", nil, user.RoleEmployee)
	assert.Error(t, err)
}
