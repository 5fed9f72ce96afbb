package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Proton-105/spark-client/internal/cache"
	"github.com/Proton-105/spark-client/internal/domain"
	apperrors "github.com/Proton-105/spark-client/internal/errors"
)

type UsersAPI struct {
	client        *Client
	currentUser   *Query[domain.Empty, domain.User]
	getUser       *Query[string, domain.User]
	matches       *Query[string, []domain.Match]
	updateProfile *Mutation[domain.UpdateProfileRequest, domain.User]
	checkSession  *Mutation[domain.CheckSessionRequest, domain.CheckSessionResponse]
}

func InjectUsersEndpoints(c *Client) *UsersAPI {
	return &UsersAPI{
		client: c,
		currentUser: RegisterQuery(c, Query[domain.Empty, domain.User]{
			Name: "currentUser",
			Path: func(domain.Empty) string { return "/users/me" },
			ProvidesTags: func(u domain.User, _ domain.Empty) []cache.Tag {
				return []cache.Tag{cache.IDTag(TagUser, MeID), cache.IDTag(TagUser, u.ID)}
			},
			Retry: false,
		}),
		getUser: RegisterQuery(c, Query[string, domain.User]{
			Name: "getUser",
			Path: func(id string) string { return "/users/" + url.PathEscape(id) },
			ProvidesTags: func(_ domain.User, id string) []cache.Tag {
				return []cache.Tag{cache.IDTag(TagUser, id)}
			},
			Retry: true,
		}),
		matches: RegisterQuery(c, Query[string, []domain.Match]{
			Name: "matches",
			Path: func(userID string) string { return "/elastic/users/" + url.PathEscape(userID) + "/matches" },
			ProvidesTags: func(_ []domain.Match, userID string) []cache.Tag {
				return []cache.Tag{cache.IDTag(TagMatch, userID)}
			},
			Retry: true,
		}),
		updateProfile: RegisterMutation(c, Mutation[domain.UpdateProfileRequest, domain.User]{
			Name:   "updateProfile",
			Method: http.MethodPatch,
			Path:   func(domain.UpdateProfileRequest) string { return "/users/me" },
			InvalidatesTags: func(u domain.User, _ domain.UpdateProfileRequest) []cache.Tag {
				return []cache.Tag{
					cache.IDTag(TagUser, MeID),
					cache.IDTag(TagUser, u.ID),
					cache.ListTag(TagUser),
				}
			},
		}),
		checkSession: RegisterMutation(c, Mutation[domain.CheckSessionRequest, domain.CheckSessionResponse]{
			Name:   "checkSession",
			Method: http.MethodPost,
			Path:   func(domain.CheckSessionRequest) string { return "/users/check-session" },
		}),
	}
}

// CurrentUser returns the signed-in user. A 401 is not retried.
func (u *UsersAPI) CurrentUser(ctx context.Context) (domain.User, error) {
	return u.currentUser.Get(ctx, u.client, domain.Empty{})
}

// SubscribeCurrentUser keeps the signed-in user mounted.
func (u *UsersAPI) SubscribeCurrentUser() (*Subscription[domain.User], error) {
	return u.currentUser.Subscribe(u.client, domain.Empty{})
}

// CurrentUserState returns the cached state of the signed-in user without fetching.
func (u *UsersAPI) CurrentUserState() (State[domain.User], error) {
	return u.currentUser.State(u.client, domain.Empty{})
}

func (u *UsersAPI) GetUser(ctx context.Context, id string) (domain.User, error) {
	if err := requireID("id", id); err != nil {
		return domain.User{}, err
	}
	return u.getUser.Get(ctx, u.client, id)
}

func (u *UsersAPI) Matches(ctx context.Context, userID string) ([]domain.Match, error) {
	if err := requireID("user_id", userID); err != nil {
		return nil, err
	}
	return u.matches.Get(ctx, u.client, userID)
}

func (u *UsersAPI) UpdateProfile(ctx context.Context, req domain.UpdateProfileRequest) (domain.User, error) {
	return u.updateProfile.Do(ctx, u.client, req)
}

func (u *UsersAPI) CheckSession(ctx context.Context, sessionToken string) (domain.CheckSessionResponse, error) {
	return u.checkSession.Do(ctx, u.client, domain.CheckSessionRequest{SessionToken: sessionToken})
}

func requireID(field, id string) error {
	if id == "" {
		return apperrors.NewValidationError(apperrors.FieldIssue{Field: field, Message: "is required"})
	}
	return nil
}
