package api

import (
	"context"
	"net/http"

	"github.com/Proton-105/spark-client/internal/auth"
	"github.com/Proton-105/spark-client/internal/cache"
	"github.com/Proton-105/spark-client/internal/domain"
)

// AuthAPI covers sign-up, sign-in, token refresh and phone/email activation.
type AuthAPI struct {
	client             *Client
	signUp             *Mutation[domain.SignUpRequest, domain.SignUpResponse]
	signIn             *Mutation[domain.SignInRequest, domain.AuthTokens]
	refresh            *Mutation[domain.RefreshRequest, domain.AuthTokens]
	logout             *Mutation[domain.Empty, domain.Empty]
	issueActivation    *Mutation[domain.ActivationIssueRequest, domain.ActivationIssueResponse]
	completeActivation *Mutation[domain.ActivationCompleteRequest, domain.Empty]
}

func InjectAuthEndpoints(c *Client) *AuthAPI {
	return &AuthAPI{
		client: c,
		signUp: RegisterMutation(c, Mutation[domain.SignUpRequest, domain.SignUpResponse]{
			Name:   "signUp",
			Method: http.MethodPost,
			Path:   func(domain.SignUpRequest) string { return "/auth/sign-up" },
		}),
		signIn: RegisterMutation(c, Mutation[domain.SignInRequest, domain.AuthTokens]{
			Name:   "signIn",
			Method: http.MethodPost,
			Path:   func(domain.SignInRequest) string { return "/auth/sign-in" },
		}),
		refresh: RegisterMutation(c, Mutation[domain.RefreshRequest, domain.AuthTokens]{
			Name:   "refresh",
			Method: http.MethodPost,
			Path:   func(domain.RefreshRequest) string { return "/auth/refresh" },
		}),
		logout: RegisterMutation(c, Mutation[domain.Empty, domain.Empty]{
			Name:   "logout",
			Method: http.MethodPost,
			Path:   func(domain.Empty) string { return "/auth/logout" },
		}),
		issueActivation: RegisterMutation(c, Mutation[domain.ActivationIssueRequest, domain.ActivationIssueResponse]{
			Name:   "issueActivation",
			Method: http.MethodPost,
			Path:   func(domain.ActivationIssueRequest) string { return "/auth/activation/issue" },
		}),
		completeActivation: RegisterMutation(c, Mutation[domain.ActivationCompleteRequest, domain.Empty]{
			Name:   "completeActivation",
			Method: http.MethodPost,
			Path:   func(domain.ActivationCompleteRequest) string { return "/auth/activation/complete" },
			InvalidatesTags: func(domain.Empty, domain.ActivationCompleteRequest) []cache.Tag {
				return []cache.Tag{cache.TypeTag(TagUser)}
			},
		}),
	}
}

func (a *AuthAPI) SignUp(ctx context.Context, req domain.SignUpRequest) (domain.SignUpResponse, error) {
	return a.signUp.Do(ctx, a.client, req)
}

func (a *AuthAPI) SignIn(ctx context.Context, req domain.SignInRequest) (domain.AuthTokens, error) {
	return a.signIn.Do(ctx, a.client, req)
}

func (a *AuthAPI) Refresh(ctx context.Context, refreshToken string) (domain.AuthTokens, error) {
	return a.refresh.Do(ctx, a.client, domain.RefreshRequest{RefreshToken: refreshToken})
}

// Logout ends the session on the server, switches the client to anonymous
// and clears every cached entry, including when the server call fails.
func (a *AuthAPI) Logout(ctx context.Context) error {
	_, err := a.logout.Do(ctx, a.client, domain.Empty{})
	a.client.signOut()
	a.client.cache.Reset()
	return err
}

func (a *AuthAPI) IssueActivation(ctx context.Context, req domain.ActivationIssueRequest) (domain.ActivationIssueResponse, error) {
	return a.issueActivation.Do(ctx, a.client, req)
}

func (a *AuthAPI) CompleteActivation(ctx context.Context, req domain.ActivationCompleteRequest) error {
	_, err := a.completeActivation.Do(ctx, a.client, req)
	return err
}

// SessionFromTokens builds the auth state for a fully signed-in user.
func SessionFromTokens(tokens domain.AuthTokens) auth.State {
	return auth.State{Token: tokens.AccessToken, RefreshToken: tokens.RefreshToken}
}

// SessionFromSignUp builds the auth state issued at sign-up.
func SessionFromSignUp(resp domain.SignUpResponse) auth.State {
	return auth.State{Token: resp.BearerToken(), SessionToken: resp.SessionToken}
}
