package handler

import (
	"encoding/json"
	"net/http"

	"github.com/neilconnor2003/englischbuecher-sub001/internal/api/dto"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/constants"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/service"
	"github.com/neilconnor2003/englischbuecher-sub001/internal/util"
	"github.com/neilconnor2003/englischbuecher-sub001/pkg/api"
	"github.com/neilconnor2003/englischbuecher-sub001/pkg/er"
)

type AuthHandler struct {
	authService service.IAuthService
}

func NewAuthHandler(authService service.IAuthService) *AuthHandler {
	if authService == nil {
		panic("authService cannot be nil")
	}
	return &AuthHandler{
		authService: authService,
	}
}

func loginResponse(loginRes *service.LoginResult) dto.LoginResponse {
	return dto.LoginResponse{
		AccessToken: dto.TokenInfo{
			Value:     loginRes.AccessToken,
			ExpiresIn: int(constants.AccessTokenDuration.Seconds()),
		},
		RefreshToken: dto.TokenInfo{
			Value:     loginRes.RefreshToken,
			ExpiresIn: int(constants.RefreshTokenDuration.Seconds()),
		},
		User: convertUserModelToDTO(loginRes.User),
	}
}

// @Summary register local account
// @Tags auth
// @Accept json
// @Produce json
// @Param registerInfo body dto.RegisterDTO true "name, email and password"
// @Success 201 {object} api.Response{data=dto.UserDTO} "success"
// @Failure 409 {object} api.ResponseError{data=string} "ConflictCode"
// @Failure 500 {object} api.ResponseError{data=string} "Internal server error"
// @Router /auth/register [post]
func (a *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var registerDTO dto.RegisterDTO
	if err := json.NewDecoder(r.Body).Decode(&registerDTO); err != nil {
		badRequestJSON(w)
		return
	}

	user, err := a.authService.Register(r.Context(), registerDTO.Name, registerDTO.Email, registerDTO.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	api.CreatedJSON(w, convertUserModelToDTO(*user))
}

// @Summary email and password login
// @Tags auth
// @Accept json
// @Produce json
// @Param loginInfo body dto.EmailAndPasswordLoginDTO true "email and password"
// @Success 200 {object} api.Response{data=dto.LoginResponse} "success"
// @Failure 401 {object} api.ResponseError{data=string} "UnauthenticatedCode"
// @Failure 500 {object} api.ResponseError{data=string} "Internal server error"
// @Router /auth/login [post]
func (a *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var loginDTO dto.EmailAndPasswordLoginDTO
	if err := json.NewDecoder(r.Body).Decode(&loginDTO); err != nil {
		badRequestJSON(w)
		return
	}

	loginRes, err := a.authService.Login(r.Context(), loginDTO.Email, loginDTO.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	api.SuccessJSON(w, loginResponse(loginRes), nil)
}

// @Summary google login
// @use google idtoken to login
// @Tags auth
// @Accept json
// @Produce json
// @Param id_token body dto.GoogleLoginDTO true "google id token"
// @Success 200 {object} api.Response{data=dto.LoginResponse} "success"
// @Failure 401 {object} api.ResponseError{data=string} "UnauthenticatedCode"
// @Failure 500 {object} api.ResponseError{data=string} "Internal server error"
// @Router /auth/login/google [post]
func (a *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var loginDTO dto.GoogleLoginDTO
	if err := json.NewDecoder(r.Body).Decode(&loginDTO); err != nil {
		badRequestJSON(w)
		return
	}

	loginRes, err := a.authService.GoogleLogin(r.Context(), loginDTO.IdToken)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	api.SuccessJSON(w, loginResponse(loginRes), nil)
}

// @Summary renew token
// @use refresh token to renew access token
// @Tags auth
// @Accept json
// @Produce json
// @Param refresh_token body dto.RefreshTokenDTO true "refresh token"
// @Success 200 {object} api.Response{data=dto.TokenInfo} "success"
// @Failure 401 {object} api.ResponseError{data=string} "UnauthenticatedCode"
// @Failure 403 {object} api.ResponseError{data=string} "UnauthorizedCode"
// @Router /auth/refresh-token [post]
func (a *AuthHandler) ReNewToken(w http.ResponseWriter, r *http.Request) {
	var refreshTokenDTO dto.RefreshTokenDTO
	if err := json.NewDecoder(r.Body).Decode(&refreshTokenDTO); err != nil {
		badRequestJSON(w)
		return
	}

	accessToken, err := a.authService.RenewToken(r.Context(), refreshTokenDTO.RefreshToken)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	api.SuccessJSON(w, dto.TokenInfo{
		Value:     accessToken,
		ExpiresIn: int(constants.AccessTokenDuration.Seconds()),
	}, nil)
}

// @Summary logout
// @Tags auth
// @Accept json
// @Produce json
// @Param refresh_token body dto.RefreshTokenDTO true "refresh token"
// @Success 200 {object} api.Response "success"
// @Failure 401 {object} api.ResponseError{data=string} "UnauthenticatedCode"
// @Router /auth/logout [post]
func (a *AuthHandler) LogOut(w http.ResponseWriter, r *http.Request) {
	var refreshTokenDTO dto.RefreshTokenDTO
	if err := json.NewDecoder(r.Body).Decode(&refreshTokenDTO); err != nil {
		badRequestJSON(w)
		return
	}

	if err := a.authService.Logout(r.Context(), refreshTokenDTO.RefreshToken); err != nil {
		handleServiceError(w, err)
		return
	}

	api.SuccessJSON(w, nil, nil)
}

// @Summary get current login user info
// @Tags auth
// @Produce json
// @Success 200 {object} api.Response{data=dto.UserDTO} "success"
// @Failure 401 {object} api.ResponseError{data=string} "UnauthenticatedCode"
// @Security     ApiKeyAuth
// @Router /auth/me [get]
func (a *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	payload := util.GetTokenPayloadFromContext(r.Context())
	if payload == nil {
		api.ErrorJSON(w, int(er.UnauthenticatedCode), nil, er.ErrStrMap[er.UnauthenticatedCode])
		return
	}

	user, err := a.authService.Me(r.Context(), payload.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	api.SuccessJSON(w, convertUserModelToDTO(*user), nil)
}

// @Summary request password reset email
// @Tags auth
// @Accept json
// @Produce json
// @Param email body dto.ForgotPasswordDTO true "account email"
// @Success 200 {object} api.Response "success"
// @Router /auth/forgot-password [post]
func (a *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var forgotDTO dto.ForgotPasswordDTO
	if err := json.NewDecoder(r.Body).Decode(&forgotDTO); err != nil {
		badRequestJSON(w)
		return
	}

	if err := a.authService.ForgotPassword(r.Context(), forgotDTO.Email); err != nil {
		handleServiceError(w, err)
		return
	}

	api.SuccessJSON(w, nil, nil)
}

// @Summary reset password with emailed token
// @Tags auth
// @Accept json
// @Produce json
// @Param resetInfo body dto.ResetPasswordDTO true "reset token and new password"
// @Success 200 {object} api.Response "success"
// @Failure 401 {object} api.ResponseError{data=string} "UnauthenticatedCode"
// @Router /auth/reset-password [post]
func (a *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var resetDTO dto.ResetPasswordDTO
	if err := json.NewDecoder(r.Body).Decode(&resetDTO); err != nil {
		badRequestJSON(w)
		return
	}

	if err := a.authService.ResetPassword(r.Context(), resetDTO.Token, resetDTO.NewPassword); err != nil {
		handleServiceError(w, err)
		return
	}

	api.SuccessJSON(w, nil, nil)
}
