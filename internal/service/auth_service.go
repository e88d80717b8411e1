package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/neilconnor2003/englischbuecher-sub001/internal/constants"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/infra/auth/google_auth"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/infra/auth/token"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/infra/repository/db"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/infra/repository/redis_repo"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/model"
	"github.com/neilconnor2003/englischbuecher-sub001/pkg/er"
)

// LoginResult 登入成功後回給前端的三件組
type LoginResult struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	User         model.User `json:"user"`
}

type IAuthService interface {
	Register(ctx context.Context, name, email, password string) (*model.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	GoogleLogin(ctx context.Context, idToken string) (*LoginResult, error)
	RenewToken(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, userID uint) (*model.User, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
}

type AuthService struct {
	dbDao       db.UnifiedDB
	sessionRepo redis_repo.ISessionRepository
	mailService IMailService
	tokenMaker  token.Maker[uint]
	verifier    google_auth.IAuthVerifier
	frontendURL string
	logger      *zerolog.Logger
}

func NewAuthService(
	dbDao db.UnifiedDB,
	sessionRepo redis_repo.ISessionRepository,
	mailService IMailService,
	tokenMaker token.Maker[uint],
	verifier google_auth.IAuthVerifier,
	frontendURL string,
	logger *zerolog.Logger,
) IAuthService {
	if reflect.ValueOf(dbDao).IsNil() {
		panic("auth service initialization failed: dbDao cannot be nil")
	}
	if reflect.ValueOf(sessionRepo).IsNil() {
		panic("auth service initialization failed: sessionRepo cannot be nil")
	}
	if reflect.ValueOf(tokenMaker).IsNil() {
		panic("auth service initialization failed: tokenMaker cannot be nil")
	}

	return &AuthService{
		dbDao:       dbDao,
		sessionRepo: sessionRepo,
		mailService: mailService,
		tokenMaker:  tokenMaker,
		verifier:    verifier,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

var _ IAuthService = (*AuthService)(nil)

const minPasswordLength = 8

// Register 建立本地帳號, 歡迎信寄送失敗不影響註冊
//
// 錯誤:
//   - er.BadRequestCode 400: 參數缺漏或密碼長度不足
//   - er.ConflictCode 409: email已被註冊
func (a *AuthService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	if name == "" || email == "" {
		return nil, er.New(er.BadRequestCode, "name and email are required")
	}
	if len(password) < minPasswordLength {
		return nil, er.New(er.BadRequestCode, "password must be at least 8 characters")
	}

	existing, err := a.dbDao.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, db.ErrUserNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, er.New(er.ConflictCode, "email already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, er.Wrap(er.InternalErrorCode, "hash password", err)
	}

	user, err := a.dbDao.CreateUser(ctx, &model.User{
		UserName:       name,
		UserEmail:      email,
		HashedPassword: string(hashed),
	})
	if err != nil {
		return nil, err
	}

	if a.mailService != nil {
		go func() {
			mailCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			err := a.mailService.SendWelcomeEmail(mailCtx, WelcomeEmailData{
				UserName: user.UserName,
				Email:    user.UserEmail,
				ShopURL:  a.frontendURL,
			})
			if err != nil && a.logger != nil {
				a.logger.Error().Err(err).Uint("user_id", user.UserID).Msg("failed to send welcome email")
			}
		}()
	}
	return user, nil
}

// Login 本地帳密登入
//
// 錯誤:
//   - er.UnauthenticatedCode 401: 帳號不存在、密碼錯誤或帳號只有google登入
func (a *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := a.dbDao.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, er.New(er.UnauthenticatedCode, "invalid email or password")
	}
	if user.HashedPassword == "" {
		return nil, er.New(er.UnauthenticatedCode, "account uses google sign-in")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)) != nil {
		return nil, er.New(er.UnauthenticatedCode, "invalid email or password")
	}

	return a.issueTokens(ctx, user)
}

// GoogleLogin 用google id token登入, 帳號不存在時自動建立
func (a *AuthService) GoogleLogin(ctx context.Context, idToken string) (*LoginResult, error) {
	if a.verifier == nil {
		return nil, er.New(er.InternalErrorCode, "google login is not configured")
	}

	info, err := a.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, er.New(er.UnauthenticatedCode, err.Error())
	}
	if info.EmailVerified != "true" {
		return nil, er.New(er.UnauthenticatedCode, "google email is not verified")
	}

	user, err := a.dbDao.GetUserByGoogleID(ctx, info.Sub)
	if errors.Is(err, db.ErrUserNotFound) {
		// 同email的本地帳號存在就綁定google id, 否則建新帳號
		user, err = a.dbDao.GetUserByEmail(ctx, info.Email)
		switch {
		case err == nil:
			user.GoogleID = &info.Sub
			if err := a.dbDao.UpdateUser(ctx, user); err != nil {
				return nil, err
			}
		case errors.Is(err, db.ErrUserNotFound):
			user, err = a.dbDao.CreateUser(ctx, &model.User{
				UserName:  info.Name,
				UserEmail: info.Email,
				GoogleID:  &info.Sub,
			})
			if err != nil {
				return nil, err
			}
		default:
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	return a.issueTokens(ctx, user)
}

// RenewToken 用refresh token換新的access token
// refresh token必須還在session store內, 登出或過期的一律拒絕
func (a *AuthService) RenewToken(ctx context.Context, refreshToken string) (string, error) {
	payload, err := a.tokenMaker.VertifyToken(refreshToken)
	if err != nil {
		return "", er.New(er.UnauthenticatedCode, "token invalid")
	}

	userID, err := a.sessionRepo.GetSessionUserID(ctx, payload.ID.String())
	if err != nil || userID != payload.UserID {
		return "", er.New(er.UnauthorizedCode, "unauthorized")
	}

	user, err := a.dbDao.GetUserByID(ctx, userID)
	if err != nil {
		return "", er.New(er.UnauthorizedCode, "unauthorized")
	}

	accessToken, _, err := a.tokenMaker.CreateToken(user.UserEmail, user.UserID, constants.AccessTokenDuration)
	if err != nil {
		return "", er.Wrap(er.InternalErrorCode, "create access token", err)
	}
	return accessToken, nil
}

func (a *AuthService) Logout(ctx context.Context, refreshToken string) error {
	payload, err := a.tokenMaker.VertifyToken(refreshToken)
	if err != nil && !errors.Is(err, token.ErrExpiredToken) {
		return er.New(er.UnauthenticatedCode, "unauthenticated")
	}
	if payload == nil {
		return er.New(er.UnauthenticatedCode, "unauthenticated")
	}
	return a.sessionRepo.DeleteSession(ctx, payload.ID.String())
}

func (a *AuthService) Me(ctx context.Context, userID uint) (*model.User, error) {
	user, err := a.dbDao.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return nil, er.New(er.NotFoundCode, "user not found")
		}
		return nil, err
	}
	return user, nil
}

// ForgotPassword 不洩漏email是否存在, 查無帳號也回成功
func (a *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := a.dbDao.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return nil
		}
		return err
	}

	resetToken := uuid.NewString()
	err = a.dbDao.CreatePasswordResetToken(ctx, &model.PasswordResetToken{
		Token:     resetToken,
		UserID:    user.UserID,
		ExpiresAt: time.Now().Add(constants.PasswordResetTokenDuration),
	})
	if err != nil {
		return err
	}

	if a.mailService == nil {
		return nil
	}
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", a.frontendURL, resetToken)
	return a.mailService.SendPasswordResetEmail(ctx, PasswordResetEmailData{
		UserName:      user.UserName,
		Email:         user.UserEmail,
		ResetURL:      resetURL,
		ExpiryMinutes: int(constants.PasswordResetTokenDuration.Minutes()),
	})
}

// ResetPassword 消耗reset token並更新密碼, token單次有效
func (a *AuthService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return er.New(er.BadRequestCode, "password must be at least 8 characters")
	}

	record, err := a.dbDao.ConsumePasswordResetToken(ctx, resetToken)
	if err != nil {
		return er.New(er.UnauthenticatedCode, "reset token is invalid or expired")
	}

	user, err := a.dbDao.GetUserByID(ctx, record.UserID)
	if err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return er.Wrap(er.InternalErrorCode, "hash password", err)
	}
	user.HashedPassword = string(hashed)
	return a.dbDao.UpdateUser(ctx, user)
}

func (a *AuthService) issueTokens(ctx context.Context, user *model.User) (*LoginResult, error) {
	accessToken, _, err := a.tokenMaker.CreateToken(user.UserEmail, user.UserID, constants.AccessTokenDuration)
	if err != nil {
		return nil, er.Wrap(er.InternalErrorCode, "create access token", err)
	}

	refreshToken, refreshPayload, err := a.tokenMaker.CreateToken(user.UserEmail, user.UserID, constants.RefreshTokenDuration)
	if err != nil {
		return nil, er.Wrap(er.InternalErrorCode, "create refresh token", err)
	}

	err = a.sessionRepo.CreateSession(ctx, refreshPayload.ID.String(), user.UserID, constants.RefreshTokenDuration)
	if err != nil {
		return nil, er.Wrap(er.InternalErrorCode, "create session", err)
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         *user,
	}, nil
}
