package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("token is invalid")
	ErrExpiredToken = errors.New("token has expired")
)

// Payload token內容, ID用於refresh token重放檢查
type Payload[T comparable] struct {
	ID        uuid.UUID `json:"id"`
	UPN       string    `json:"upn"`
	UserID    T         `json:"user_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiredAt time.Time `json:"expired_at"`
}

func NewPayload[T comparable](upn string, userID T, duration time.Duration) (*Payload[T], error) {
	tokenID, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &Payload[T]{
		ID:        tokenID,
		UPN:       upn,
		UserID:    userID,
		IssuedAt:  now,
		ExpiredAt: now.Add(duration),
	}, nil
}

func (payload *Payload[T]) Valid() error {
	if time.Now().After(payload.ExpiredAt) {
		return ErrExpiredToken
	}
	return nil
}

// jwt.Claims介面, 過期檢查交給Valid自己做
func (payload *Payload[T]) GetExpirationTime() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(payload.ExpiredAt), nil
}
func (payload *Payload[T]) GetIssuedAt() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(payload.IssuedAt), nil
}
func (payload *Payload[T]) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }
func (payload *Payload[T]) GetIssuer() (string, error)              { return "", nil }
func (payload *Payload[T]) GetSubject() (string, error)             { return payload.UPN, nil }
func (payload *Payload[T]) GetAudience() (jwt.ClaimStrings, error)  { return nil, nil }

type Maker[T comparable] interface {
	CreateToken(upn string, userID T, duration time.Duration) (string, *Payload[T], error)
	VertifyToken(token string) (*Payload[T], error)
}

const minSecretKeySize = 32

type JWTMaker[T comparable] struct {
	secretKey string
}

func NewJWTMaker[T comparable](secretKey string) (*JWTMaker[T], error) {
	if len(secretKey) < minSecretKeySize {
		return nil, errors.New("invalid key size: must be at least 32 characters")
	}
	return &JWTMaker[T]{secretKey: secretKey}, nil
}

var _ Maker[uint] = (*JWTMaker[uint])(nil)

func (maker *JWTMaker[T]) CreateToken(upn string, userID T, duration time.Duration) (string, *Payload[T], error) {
	payload, err := NewPayload(upn, userID, duration)
	if err != nil {
		return "", nil, err
	}

	jwtToken := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)
	signed, err := jwtToken.SignedString([]byte(maker.secretKey))
	if err != nil {
		return "", nil, err
	}
	return signed, payload, nil
}

func (maker *JWTMaker[T]) VertifyToken(tokenStr string) (*Payload[T], error) {
	keyFunc := func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(maker.secretKey), nil
	}

	payload := &Payload[T]{}
	_, err := jwt.ParseWithClaims(tokenStr, payload, keyFunc)
	if err != nil {
		// 簽名合法但過期時仍回傳payload, 登出流程需要token id
		if errors.Is(err, jwt.ErrTokenExpired) {
			return payload, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if err := payload.Valid(); err != nil {
		return nil, err
	}
	return payload, nil
}
