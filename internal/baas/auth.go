package baas

import (
	"context"

	"github.com/reacts/reacts/internal/model"
)

const authPrefix = "/auth/v1"

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*model.AuthTokens, error) {
	var out model.AuthTokens
	res, err := c.request(ctx, "").
		SetQueryParam("grant_type", "password").
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&out).
		Post(authPrefix + "/token")
	if err := check("sign in", res, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*model.User, error) {
	// The signup endpoint answers with either a bare user (confirmation
	// pending) or a session carrying the user.
	var out struct {
		model.User
		Nested *model.User `json:"user"`
	}
	res, err := c.request(ctx, "").
		SetBody(map[string]any{"email": email, "password": password, "data": metadata}).
		SetResult(&out).
		Post(authPrefix + "/signup")
	if err := check("sign up", res, err); err != nil {
		return nil, err
	}
	if out.ID == "" && out.Nested != nil {
		return out.Nested, nil
	}
	return &out.User, nil
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	res, err := c.request(ctx, accessToken).Post(authPrefix + "/logout")
	return check("sign out", res, err)
}

func (c *Client) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	req := c.request(ctx, "").SetBody(map[string]string{"email": email})
	if redirectTo != "" {
		req.SetQueryParam("redirect_to", redirectTo)
	}
	res, err := req.Post(authPrefix + "/recover")
	return check("recover", res, err)
}

func (c *Client) VerifyOTP(ctx context.Context, tokenHash, otpType string) (*model.AuthTokens, error) {
	var out model.AuthTokens
	res, err := c.request(ctx, "").
		SetBody(map[string]string{"token_hash": tokenHash, "type": otpType}).
		SetResult(&out).
		Post(authPrefix + "/verify")
	if err := check("verify", res, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*model.AuthTokens, error) {
	var out model.AuthTokens
	res, err := c.request(ctx, "").
		SetQueryParam("grant_type", "refresh_token").
		SetBody(map[string]string{"refresh_token": refreshToken}).
		SetResult(&out).
		Post(authPrefix + "/token")
	if err := check("refresh", res, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetUser(ctx context.Context, accessToken string) (*model.User, error) {
	var out model.User
	res, err := c.request(ctx, accessToken).
		SetResult(&out).
		Get(authPrefix + "/user")
	if err := check("get user", res, err); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateUser(ctx context.Context, accessToken string, attrs UserAttributes) (*model.User, error) {
	var out model.User
	res, err := c.request(ctx, accessToken).
		SetBody(attrs).
		SetResult(&out).
		Put(authPrefix + "/user")
	if err := check("update user", res, err); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ping checks the auth API health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.request(ctx, "").Get(authPrefix + "/health")
	return check("health", res, err)
}
