package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer   = "careersite"
	tokenAudience = "careersite-editor"
	clockSkew     = 30 * time.Second

	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	// ErrInvalidToken 表示签名、过期时间或声明不合法。
	ErrInvalidToken = errors.New("invalid token")
	// ErrWrongTokenType 表示把刷新令牌当作访问令牌使用，或反之。
	ErrWrongTokenType = errors.New("unexpected token type")
)

// AuthService 负责招聘方 JWT 的签发与校验。
type AuthService struct {
	privateKey      *rsa.PrivateKey
	publicKey       *rsa.PublicKey
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	now             func() time.Time
}

// TokenPair 封装访问令牌与刷新令牌。
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	// RefreshID 是刷新令牌的 jti，注销时写入黑名单。
	RefreshID string
}

// TokenClaims 表示 JWT 中的业务字段，便于中间件读取招聘方信息。
type TokenClaims struct {
	RecruiterID uint   `json:"recruiter_id"`
	Email       string `json:"email,omitempty"`
	TokenType   string `json:"token_type"`
	jwt.RegisteredClaims
}

// NewAuthService 解析 PEM 密钥并构造服务实例。
func NewAuthService(privateKeyPEM, publicKeyPEM []byte, accessTTL, refreshTTL time.Duration) (*AuthService, error) {
	if len(privateKeyPEM) == 0 {
		return nil, errors.New("private key pem is required")
	}
	if len(publicKeyPEM) == 0 {
		return nil, errors.New("public key pem is required")
	}

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse rsa private key: %w", err)
	}
	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse rsa public key: %w", err)
	}

	return &AuthService{
		privateKey:      privateKey,
		publicKey:       publicKey,
		accessTokenTTL:  accessTTL,
		refreshTokenTTL: refreshTTL,
		now:             time.Now,
	}, nil
}

// claims 构造一枚令牌的声明，refresh 令牌不携带邮箱但带 jti。
func (s *AuthService) claims(recruiterID uint, email, tokenType, jti string, ttl time.Duration) TokenClaims {
	now := s.now()
	return TokenClaims{
		RecruiterID: recruiterID,
		Email:       email,
		TokenType:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Audience:  jwt.ClaimStrings{tokenAudience},
			Subject:   strconv.FormatUint(uint64(recruiterID), 10),
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

// GenerateTokenPair 为招聘方签发访问令牌与刷新令牌。
func (s *AuthService) GenerateTokenPair(recruiterID uint, email string) (TokenPair, error) {
	if recruiterID == 0 {
		return TokenPair{}, errors.New("recruiter id is required")
	}
	refreshID := uuid.NewString()

	access, err := s.signClaims(s.claims(recruiterID, email, TokenTypeAccess, "", s.accessTokenTTL))
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.signClaims(s.claims(recruiterID, "", TokenTypeRefresh, refreshID, s.refreshTokenTTL))
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, RefreshID: refreshID}, nil
}

// ValidateToken 校验签名、签发方、受众与有效期，并要求令牌类型与 wantType 一致。
func (s *AuthService) ValidateToken(tokenString, wantType string) (*TokenClaims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.publicKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.RecruiterID == 0 {
		return nil, fmt.Errorf("%w: missing recruiter id", ErrInvalidToken)
	}
	if claims.TokenType != wantType {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

func (s *AuthService) signClaims(claims TokenClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(s.privateKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// AccessTokenTTL 暴露访问令牌有效期。
func (s *AuthService) AccessTokenTTL() time.Duration {
	return s.accessTokenTTL
}

// RefreshTokenTTL 暴露刷新令牌有效期。
func (s *AuthService) RefreshTokenTTL() time.Duration {
	return s.refreshTokenTTL
}
