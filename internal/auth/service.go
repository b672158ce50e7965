package auth

import (
	"crypto/subtle"
	"log/slog"

	"github.com/workdeskhq/workdesk/internal"
	"github.com/workdeskhq/workdesk/internal/member"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = internal.ErrInvalidCredentials
	ErrMemberInactive     = internal.ErrMemberInactive
	ErrInvalidToken       = internal.ErrInvalidToken
)

// Service is the main auth service with dependencies.
type Service struct {
	members        MemberRepository
	tokenGenerator TokenGeneratorAPI
	logger         *slog.Logger
}

func NewService(members MemberRepository, tokenGen TokenGeneratorAPI, logger *slog.Logger) *Service {
	return &Service{
		members:        members,
		tokenGenerator: tokenGen,
		logger:         logger,
	}
}

// Authenticate validates credentials and returns tokens plus the member.
// Credentials imported from the legacy system are stored as plaintext and
// compared constant-time; anything set through this service is bcrypt.
func (s *Service) Authenticate(dto LoginDTO) (AuthTokens, *member.Member, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, nil, err
	}

	m, err := s.members.GetByEmail(dto.Email)
	if err != nil {
		return AuthTokens{}, nil, ErrInvalidCredentials
	}

	if !s.verifyPassword(m, dto.Password) {
		s.logger.Warn("login failed: bad credentials", "email", dto.Email)
		return AuthTokens{}, nil, ErrInvalidCredentials
	}

	if !m.IsActive {
		return AuthTokens{}, nil, ErrMemberInactive
	}

	accessToken, err := s.tokenGenerator.GenerateAccessToken(m.ID)
	if err != nil {
		return AuthTokens{}, nil, internal.NewInternalError("failed to issue access token", err)
	}

	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(m.ID)
	if err != nil {
		return AuthTokens{}, nil, internal.NewInternalError("failed to issue refresh token", err)
	}

	s.logger.Info("member authenticated", "member_id", m.ID)

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, m, nil
}

func (s *Service) verifyPassword(m *member.Member, password string) bool {
	if m.Password == "" {
		return false
	}
	if m.HasLegacyPassword() {
		return subtle.ConstantTimeCompare([]byte(m.Password), []byte(password)) == 1
	}
	return bcrypt.CompareHashAndPassword([]byte(m.Password), []byte(password)) == nil
}

// RefreshTokens validates a refresh token and returns a new pair.
func (s *Service) RefreshTokens(refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	accessToken, err := s.tokenGenerator.GenerateAccessToken(claims.UserID)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to issue access token", err)
	}

	newRefreshToken, err := s.tokenGenerator.GenerateRefreshToken(claims.UserID)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to issue refresh token", err)
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
	}, nil
}

// ValidateAccessToken validates an access token and returns its claims.
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateToken(tokenString)
}

// MemberByID loads the member behind a validated token.
func (s *Service) MemberByID(id string) (*member.Member, error) {
	return s.members.GetByID(id)
}
