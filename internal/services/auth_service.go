package services

import (
	"context"
	"strings"
	"time"

	"github.com/yoockh/yoointerview/internal/utils"
)

const RoleRespondent = "respondent"

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Username  string    `json:"username"`
}

type AuthService interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
}

type authService struct {
	passwords map[string]string // username -> plain secret or bcrypt hash
	secret    string
	ttl       time.Duration
	now       func() time.Time
}

func NewAuthService(passwords map[string]string, jwtSecret string, ttl time.Duration) AuthService {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &authService{passwords: passwords, secret: jwtSecret, ttl: ttl, now: time.Now}
}

func (s *authService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	const op = "AuthService.Login"

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "username and password are required", nil)
	}

	configured, ok := s.passwords[username]
	if !ok || !utils.VerifySecret(configured, password) {
		return nil, utils.E(utils.CodeUnauthorized, op, "username or password incorrect", nil)
	}

	token, exp, err := utils.IssueToken(s.secret, username, RoleRespondent, s.ttl, s.now())
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to issue token", err)
	}
	return &LoginResult{Token: token, ExpiresAt: exp, Username: username}, nil
}
