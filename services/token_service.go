package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"backend_crm/config"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenClaims полезная нагрузка access- и refresh-токенов
type TokenClaims struct {
	UserID    uint   `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenPair пара выданных токенов
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// TokenService выпускает и проверяет JWT-токены и отзывает
// использованные refresh-токены по их jti
type TokenService struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration

	redis  *redis.Client
	logger *log.Logger

	// Внутрипроцессное хранилище отозванных jti на случай отсутствия Redis
	mu      sync.Mutex
	revoked map[string]time.Time
}

// NewTokenService создает новый сервис токенов. redisClient может быть nil
func NewTokenService(cfg config.JWTConfig, redisClient *redis.Client, logger *log.Logger) *TokenService {
	secret := cfg.Secret
	if secret == "" {
		// Вне продакшена допускаем работу без настроенного секрета
		secret = "crm-backend-insecure-development-secret"
	}

	return &TokenService{
		secret:     []byte(secret),
		issuer:     cfg.Issuer,
		accessTTL:  cfg.ExpiresIn,
		refreshTTL: cfg.RefreshExpiresIn,
		redis:      redisClient,
		logger:     logger,
		revoked:    make(map[string]time.Time),
	}
}

// IssuePair выпускает пару access+refresh для пользователя
func (ts *TokenService) IssuePair(userID uint) (*TokenPair, error) {
	access, err := ts.issue(userID, TokenTypeAccess, ts.accessTTL)
	if err != nil {
		return nil, err
	}

	refresh, err := ts.issue(userID, TokenTypeRefresh, ts.refreshTTL)
	if err != nil {
		return nil, err
	}

	return &TokenPair{Access: access, Refresh: refresh}, nil
}

// issue выпускает один подписанный токен заданного типа
func (ts *TokenService) issue(userID uint, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := TokenClaims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ts.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ts.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}

	return signed, nil
}

// parse разбирает и проверяет подпись и срок действия токена
func (ts *TokenService) parse(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}

// ParseAccess проверяет access-токен и возвращает его полезную нагрузку
func (ts *TokenService) ParseAccess(tokenString string) (*TokenClaims, error) {
	claims, err := ts.parse(tokenString)
	if err != nil {
		return nil, err
	}

	if claims.TokenType != TokenTypeAccess {
		return nil, fmt.Errorf("token is not an access token")
	}

	return claims, nil
}

// Rotate проверяет refresh-токен, отзывает его и выпускает новую пару.
// Повторное использование отозванного refresh-токена отклоняется
func (ts *TokenService) Rotate(refreshToken string) (*TokenPair, error) {
	claims, err := ts.parse(refreshToken)
	if err != nil {
		return nil, err
	}

	if claims.TokenType != TokenTypeRefresh {
		return nil, fmt.Errorf("token is not a refresh token")
	}

	if ts.isRevoked(claims.ID) {
		return nil, fmt.Errorf("refresh token has been revoked")
	}

	// Отзываем предъявленный токен на остаток его срока жизни
	ts.revoke(claims.ID, claims.ExpiresAt.Time)

	return ts.IssuePair(claims.UserID)
}

// revoke помечает jti отозванным до указанного момента
func (ts *TokenService) revoke(jti string, until time.Time) {
	ttl := time.Until(until)
	if ttl <= 0 {
		return
	}

	if ts.redis != nil {
		err := ts.redis.Set(context.Background(), revocationKey(jti), "1", ttl).Err()
		if err == nil {
			return
		}
		// Redis недоступен, переходим на внутрипроцессное хранилище
		if ts.logger != nil {
			ts.logger.Printf("Failed to store revoked jti in redis: %v", err)
		}
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.revoked[jti] = until
	ts.pruneLocked()
}

// isRevoked проверяет, отозван ли jti
func (ts *TokenService) isRevoked(jti string) bool {
	if ts.redis != nil {
		n, err := ts.redis.Exists(context.Background(), revocationKey(jti)).Result()
		if err == nil {
			if n > 0 {
				return true
			}
		} else if ts.logger != nil {
			ts.logger.Printf("Failed to check revoked jti in redis: %v", err)
		}
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()
	until, ok := ts.revoked[jti]
	return ok && time.Now().Before(until)
}

// pruneLocked удаляет просроченные записи, вызывается под мьютексом
func (ts *TokenService) pruneLocked() {
	now := time.Now()
	for jti, until := range ts.revoked {
		if now.After(until) {
			delete(ts.revoked, jti)
		}
	}
}

func revocationKey(jti string) string {
	return "auth:revoked:" + jti
}
