package service

import (
	"context"
	"fmt"

	"github.com/adotaqui/adotaqui-backend/internal/domain"
	"github.com/adotaqui/adotaqui-backend/internal/port"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthService validates Supabase access tokens, gates admin endpoints and
// replays credentials before destructive actions.
type AuthService struct {
	jwtSecret    []byte
	adminKeyHash []byte
	reauth       port.Reauthenticator
	logger       *zap.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(jwtSecret, adminKeyHash string, reauth port.Reauthenticator, logger *zap.Logger) *AuthService {
	return &AuthService{
		jwtSecret:    []byte(jwtSecret),
		adminKeyHash: []byte(adminKeyHash),
		reauth:       reauth,
		logger:       logger,
	}
}

// supabaseClaims are the claims Supabase Auth puts in access tokens.
type supabaseClaims struct {
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
	jwt.RegisteredClaims
}

// ValidateToken parses and verifies a Supabase access token (HS256 signed
// with the project JWT secret) and extracts the user identity.
func (s *AuthService) ValidateToken(tokenString string) (*domain.AuthUser, error) {
	claims := &supabaseClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		s.logger.Debug("auth: token rejected", zap.Error(err))
		return nil, &domain.ErrUnauthorized{Message: "token inválido ou expirado"}
	}
	if claims.Subject == "" {
		return nil, &domain.ErrUnauthorized{Message: "token sem identificação de usuário"}
	}

	user := &domain.AuthUser{
		ID:    claims.Subject,
		Email: claims.Email,
	}
	if name, ok := claims.UserMetadata["name"].(string); ok {
		user.DisplayName = name
	}
	return user, nil
}

// CheckAdminKey compares the presented key against the configured bcrypt
// hash. With no hash configured the admin surface is closed entirely.
func (s *AuthService) CheckAdminKey(key string) error {
	if len(s.adminKeyHash) == 0 {
		return &domain.ErrForbidden{Action: "área administrativa desabilitada"}
	}
	if err := bcrypt.CompareHashAndPassword(s.adminKeyHash, []byte(key)); err != nil {
		return &domain.ErrForbidden{Action: "chave administrativa inválida"}
	}
	return nil
}

// Reauthenticate confirms the user still holds their password. Required
// before account deletion.
func (s *AuthService) Reauthenticate(ctx context.Context, user domain.AuthUser, password string) error {
	ctx, span := tracer.Start(ctx, "AuthService.Reauthenticate")
	defer span.End()

	if password == "" {
		return &domain.ErrValidation{Field: "password", Message: "senha é obrigatória"}
	}
	if user.Email == "" {
		return &domain.ErrUnauthorized{Message: "token sem e-mail associado"}
	}
	return s.reauth.Reauthenticate(ctx, user.Email, password)
}
