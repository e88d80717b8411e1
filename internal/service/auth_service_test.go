package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/neilconnor2003/englischbuecher-sub001/internal/infra/auth/google_auth"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/infra/auth/token"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/infra/repository/db"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/infra/repository/redis_repo"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/model"
	"github.com/neilconnor2003/englischbuecher-sub001/pkg/er"
)

// memorySessionRepo 測試用的in-memory session store, 介面與redis實作相同
type memorySessionRepo struct {
	mu       sync.Mutex
	sessions map[string]uint
}

func newMemorySessionRepo() *memorySessionRepo {
	return &memorySessionRepo{sessions: map[string]uint{}}
}

func (m *memorySessionRepo) CreateSession(ctx context.Context, tokenID string, userID uint, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[tokenID] = userID
	return nil
}

func (m *memorySessionRepo) GetSessionUserID(ctx context.Context, tokenID string) (uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	userID, ok := m.sessions[tokenID]
	if !ok {
		return 0, redis_repo.ErrSessionNotFound
	}
	return userID, nil
}

func (m *memorySessionRepo) DeleteSession(ctx context.Context, tokenID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, tokenID)
	return nil
}

var _ redis_repo.ISessionRepository = (*memorySessionRepo)(nil)

type stubGoogleVerifier struct {
	info *google_auth.UserInfo
	err  error
}

func (s *stubGoogleVerifier) VerifyIDToken(ctx context.Context, idToken string) (*google_auth.UserInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.info, nil
}

type AuthServiceTestSuite struct {
	suite.Suite
	dbDao    db.UnifiedDB
	sessions *memorySessionRepo
	mail     *stubMailService
	maker    token.Maker[uint]
	verifier *stubGoogleVerifier
	svc      IAuthService
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

func (s *AuthServiceTestSuite) SetupTest() {
	s.dbDao = newTestDB(s.T())
	s.sessions = newMemorySessionRepo()
	s.mail = newStubMailService()
	maker, err := token.NewJWTMaker[uint](strings.Repeat("k", 32))
	s.Require().NoError(err)
	s.maker = maker
	s.verifier = &stubGoogleVerifier{}
	s.svc = NewAuthService(s.dbDao, s.sessions, s.mail, s.maker, s.verifier,
		"https://shop.example.com", nil)
}

func (s *AuthServiceTestSuite) register(email string) {
	_, err := s.svc.Register(context.Background(), "Hans", email, "correct-horse")
	s.Require().NoError(err)
}

func (s *AuthServiceTestSuite) TestRegisterAndLogin() {
	ctx := context.Background()

	user, err := s.svc.Register(ctx, "Hans", "hans@example.com", "correct-horse")
	s.Require().NoError(err)
	s.NotZero(user.UserID)
	s.NotEqual("correct-horse", user.HashedPassword)

	result, err := s.svc.Login(ctx, "hans@example.com", "correct-horse")
	s.Require().NoError(err)
	s.NotEmpty(result.AccessToken)
	s.NotEmpty(result.RefreshToken)
	s.Equal(user.UserID, result.User.UserID)

	// refresh token已寫進session store
	payload, err := s.maker.VertifyToken(result.RefreshToken)
	s.Require().NoError(err)
	userID, err := s.sessions.GetSessionUserID(ctx, payload.ID.String())
	s.Require().NoError(err)
	s.Equal(user.UserID, userID)
}

func (s *AuthServiceTestSuite) TestRegisterValidation() {
	ctx := context.Background()

	_, err := s.svc.Register(ctx, "", "x@example.com", "correct-horse")
	requireCode(s.T(), err, er.BadRequestCode)

	_, err = s.svc.Register(ctx, "Hans", "x@example.com", "short")
	requireCode(s.T(), err, er.BadRequestCode)

	s.register("dup@example.com")
	_, err = s.svc.Register(ctx, "Hans", "dup@example.com", "correct-horse")
	requireCode(s.T(), err, er.ConflictCode)
}

func (s *AuthServiceTestSuite) TestLoginFailures() {
	ctx := context.Background()
	s.register("hans@example.com")

	_, err := s.svc.Login(ctx, "hans@example.com", "wrong-password")
	requireCode(s.T(), err, er.UnauthenticatedCode)

	_, err = s.svc.Login(ctx, "nobody@example.com", "correct-horse")
	requireCode(s.T(), err, er.UnauthenticatedCode)
}

func (s *AuthServiceTestSuite) TestGoogleLoginCreatesAccount() {
	ctx := context.Background()
	s.verifier.info = &google_auth.UserInfo{
		Sub: "google-sub-1", Email: "neu@example.com", EmailVerified: "true", Name: "Neu",
	}

	result, err := s.svc.GoogleLogin(ctx, "id-token")
	s.Require().NoError(err)
	s.Equal("neu@example.com", result.User.UserEmail)
	s.Require().NotNil(result.User.GoogleID)
	s.Equal("google-sub-1", *result.User.GoogleID)

	// google帳號沒有本地密碼, 帳密登入要被擋下
	_, err = s.svc.Login(ctx, "neu@example.com", "whatever-pass")
	requireCode(s.T(), err, er.UnauthenticatedCode)
}

func (s *AuthServiceTestSuite) TestGoogleLoginBindsExistingLocalAccount() {
	ctx := context.Background()
	s.register("hans@example.com")
	s.verifier.info = &google_auth.UserInfo{
		Sub: "google-sub-2", Email: "hans@example.com", EmailVerified: "true", Name: "Hans G",
	}

	result, err := s.svc.GoogleLogin(ctx, "id-token")
	s.Require().NoError(err)
	s.Require().NotNil(result.User.GoogleID)
	s.Equal("google-sub-2", *result.User.GoogleID)

	// 綁定後密碼登入依然有效
	_, err = s.svc.Login(ctx, "hans@example.com", "correct-horse")
	s.NoError(err)
}

func (s *AuthServiceTestSuite) TestGoogleLoginRejectsUnverifiedEmail() {
	s.verifier.info = &google_auth.UserInfo{
		Sub: "google-sub-3", Email: "x@example.com", EmailVerified: "false",
	}
	_, err := s.svc.GoogleLogin(context.Background(), "id-token")
	requireCode(s.T(), err, er.UnauthenticatedCode)

	s.verifier.info = nil
	s.verifier.err = errors.New("token expired")
	_, err = s.svc.GoogleLogin(context.Background(), "id-token")
	requireCode(s.T(), err, er.UnauthenticatedCode)
}

func (s *AuthServiceTestSuite) TestRenewTokenAndLogout() {
	ctx := context.Background()
	s.register("hans@example.com")
	result, err := s.svc.Login(ctx, "hans@example.com", "correct-horse")
	s.Require().NoError(err)

	accessToken, err := s.svc.RenewToken(ctx, result.RefreshToken)
	s.Require().NoError(err)
	payload, err := s.maker.VertifyToken(accessToken)
	s.Require().NoError(err)
	s.Equal(result.User.UserID, payload.UserID)

	// 登出後session被刪, 同一refresh token不能再換
	s.Require().NoError(s.svc.Logout(ctx, result.RefreshToken))
	_, err = s.svc.RenewToken(ctx, result.RefreshToken)
	requireCode(s.T(), err, er.UnauthorizedCode)
}

func (s *AuthServiceTestSuite) TestRenewTokenRejectsGarbage() {
	_, err := s.svc.RenewToken(context.Background(), "not-a-jwt")
	requireCode(s.T(), err, er.UnauthenticatedCode)
}

func (s *AuthServiceTestSuite) TestPasswordResetFlow() {
	ctx := context.Background()
	s.register("hans@example.com")

	// 查無帳號也回成功, 不洩漏註冊狀態
	s.Require().NoError(s.svc.ForgotPassword(ctx, "ghost@example.com"))
	s.Empty(s.mail.resets)

	s.Require().NoError(s.svc.ForgotPassword(ctx, "hans@example.com"))
	reset := s.mail.lastReset(s.T())
	s.Contains(reset.ResetURL, "https://shop.example.com/reset-password?token=")

	resetToken := strings.TrimPrefix(reset.ResetURL, "https://shop.example.com/reset-password?token=")
	s.Require().NoError(s.svc.ResetPassword(ctx, resetToken, "new-password-1"))

	// 新密碼生效, 舊密碼失效, token單次有效
	_, err := s.svc.Login(ctx, "hans@example.com", "new-password-1")
	s.NoError(err)
	_, err = s.svc.Login(ctx, "hans@example.com", "correct-horse")
	requireCode(s.T(), err, er.UnauthenticatedCode)
	err = s.svc.ResetPassword(ctx, resetToken, "another-password")
	requireCode(s.T(), err, er.UnauthenticatedCode)
}

func (s *AuthServiceTestSuite) TestResetPasswordExpiredToken() {
	ctx := context.Background()
	s.register("hans@example.com")

	user, err := s.dbDao.GetUserByEmail(ctx, "hans@example.com")
	s.Require().NoError(err)

	s.Require().NoError(s.dbDao.CreatePasswordResetToken(ctx, &model.PasswordResetToken{
		Token:     "expired-token",
		UserID:    user.UserID,
		ExpiresAt: time.Now().Add(-time.Minute),
	}))

	err = s.svc.ResetPassword(ctx, "expired-token", "new-password-1")
	requireCode(s.T(), err, er.UnauthenticatedCode)

	err = s.svc.ResetPassword(ctx, "expired-token", "short")
	requireCode(s.T(), err, er.BadRequestCode)
}
