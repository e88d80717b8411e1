package google_auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type IAuthVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*UserInfo, error)
}

// UserInfo google帳號基本資料, Sub是google端的唯一識別
type UserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

/*
GoogleAuthVerifier 把前端拿到的id token丟給google的tokeninfo端點驗證
aud必須等於自己的client id, 否則token可能是發給別的應用
*/
type GoogleAuthVerifier struct {
	ClientID string
	Endpoint string
	HTTP     *http.Client
}

func NewGoogleAuthVerifier(clientID string) *GoogleAuthVerifier {
	return &GoogleAuthVerifier{
		ClientID: clientID,
		HTTP:     &http.Client{Timeout: 10 * time.Second},
	}
}

var _ IAuthVerifier = (*GoogleAuthVerifier)(nil)

func (g *GoogleAuthVerifier) VerifyIDToken(ctx context.Context, idToken string) (*UserInfo, error) {
	endpoint := g.Endpoint
	if endpoint == "" {
		endpoint = "https://oauth2.googleapis.com/tokeninfo"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?id_token="+url.QueryEscape(idToken), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	hc := g.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending verification request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("invalid token")
	}

	var tokenInfo struct {
		Aud string `json:"aud"`
		UserInfo
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenInfo); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if tokenInfo.Aud != g.ClientID {
		return nil, errors.New("token was not issued for this application")
	}
	return &tokenInfo.UserInfo, nil
}
