package jwt

import (
	"context"
	"time"

	"github.com/cmlabs-hris/hris-timesheet-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-timesheet-go/internal/pkg/validator"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

type Service interface {
	GenerateAccessToken(userID string, employeeID *string, role user.Role) (token string, expiresAt int64, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpirationTime string
	tokenAuth                 *jwtauth.JWTAuth
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) Service {
	return &JWTService{
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) GenerateAccessToken(userID string, employeeID *string, role user.Role) (token string, expiresAt int64, err error) {
	expDuration, err := time.ParseDuration(j.accessTokenExpirationTime)
	if err != nil {
		return "", 0, err
	}
	expiresAt = time.Now().Add(expDuration).Unix()

	claims := map[string]interface{}{
		"user_id":     userID,
		"employee_id": returnValueOrNil(employeeID),
		"role":        string(role),
		"type":        "access",
		"exp":         expiresAt,
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

func returnValueOrNil(value *string) interface{} {
	if value == nil {
		return nil
	}
	return *value
}

// ActorFromContext reads the caller from the token jwtauth.Verifier stored in ctx.
// The user_id and employee_id claims are stored against uuid columns, so a
// token carrying anything else is rejected.
func ActorFromContext(ctx context.Context) (user.Actor, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return user.Actor{}, user.ErrInvalidToken
	}

	userID, ok := claims["user_id"].(string)
	if !ok || !validator.IsValidID(userID) {
		return user.Actor{}, user.ErrInvalidToken
	}

	actor := user.Actor{UserID: userID}
	if role, ok := claims["role"].(string); ok {
		actor.Role = user.Role(role)
	}
	if employeeID, ok := claims["employee_id"].(string); ok && employeeID != "" {
		if !validator.IsValidID(employeeID) {
			return user.Actor{}, user.ErrInvalidToken
		}
		actor.EmployeeID = &employeeID
	}
	return actor, nil
}

// UserIDFromContext returns the user_id claim of the caller.
func UserIDFromContext(ctx context.Context) (string, error) {
	actor, err := ActorFromContext(ctx)
	if err != nil {
		return "", err
	}
	return actor.UserID, nil
}
