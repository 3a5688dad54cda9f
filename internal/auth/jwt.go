package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/SeakMengs/AutoCertLMS/internal/config"
	"github.com/SeakMengs/AutoCertLMS/internal/constant"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const DefaultAccessTokenTTL = 15 * time.Minute

var ErrInvalidClaims = errors.New("invalid token: user field is missing or malformed")

type JWT struct {
	logger    *zap.SugaredLogger
	jwtSecret string
	now       func() time.Time
}

type JWTInterface interface {
	GenerateAccessToken(payload JWTPayload, ttl time.Duration) (string, error)
	VerifyJwtToken(token string) (*JWTClaims, error)
}

func NewJwt(cfg config.AuthConfig, logger *zap.SugaredLogger) *JWT {
	// For unit test
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &JWT{
		jwtSecret: cfg.JWT_SECRET,
		logger:    logger,
		now:       time.Now,
	}
}

// JWTPayload identifies the LMS user that operates a certificate session.
type JWTPayload struct {
	ID    string             `json:"id"`
	Email string             `json:"email"`
	Name  string             `json:"name"`
	Role  constant.TokenRole `json:"role"`
}

type JWTClaims struct {
	User JWTPayload `json:"user"`
	Type string     `json:"type"`
	IAT  int64      `json:"iat"`
	EXP  int64      `json:"exp"`
}

// GenerateAccessToken signs an HS256 access token valid for ttl (DefaultAccessTokenTTL when zero).
func (j JWT) GenerateAccessToken(payload JWTPayload, ttl time.Duration) (string, error) {
	j.logger.Debugf("Generate access token for user: %s", payload.ID)

	if ttl <= 0 {
		ttl = DefaultAccessTokenTTL
	}

	now := j.now()
	claims := jwt.MapClaims{
		"user": payload,
		"type": constant.JWT_TYPE_ACCESS,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(j.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return token, nil
}

func (j JWT) VerifyJwtToken(token string) (*JWTClaims, error) {
	claims := jwt.MapClaims{}
	parsedToken, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(j.jwtSecret), nil
	})
	if err != nil {
		j.logger.Debugf("Failed to verify jwt token. Error: %v", err)
		return nil, err
	}

	if !parsedToken.Valid {
		j.logger.Debug("Jwt token is not valid")
		return nil, errors.New("jwt token is not valid")
	}

	user, ok := claims["user"].(map[string]interface{})
	if !ok {
		return nil, ErrInvalidClaims
	}

	id, _ := user["id"].(string)
	if id == "" {
		return nil, ErrInvalidClaims
	}
	email, _ := user["email"].(string)
	name, _ := user["name"].(string)
	role, _ := user["role"].(string)
	tokenType, _ := claims["type"].(string)
	iat, _ := claims["iat"].(float64)
	exp, _ := claims["exp"].(float64)

	return &JWTClaims{
		User: JWTPayload{
			ID:    id,
			Email: email,
			Name:  name,
			Role:  constant.TokenRole(role),
		},
		Type: tokenType,
		IAT:  int64(iat),
		EXP:  int64(exp),
	}, nil
}
