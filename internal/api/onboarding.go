package api

import (
	"context"
	"net/http"

	"github.com/Proton-105/spark-client/internal/cache"
	"github.com/Proton-105/spark-client/internal/domain"
)

// OnboardingAPI submits the three onboarding stages. The stage itself is
// always read back from the server.
type OnboardingAPI struct {
	client     *Client
	stageOne   *Mutation[domain.OnboardingStageOneRequest, domain.OnboardingResponse]
	stageTwo   *Mutation[domain.OnboardingStageTwoRequest, domain.OnboardingResponse]
	stageThree *Mutation[domain.OnboardingStageThreeRequest, domain.OnboardingResponse]
	progress   *Query[domain.Empty, domain.OnboardingProgress]
}

func InjectOnboardingEndpoints(c *Client) *OnboardingAPI {
	return &OnboardingAPI{
		client:     c,
		stageOne:   RegisterMutation(c, stageMutation[domain.OnboardingStageOneRequest]("onboardingStageOne")),
		stageTwo:   RegisterMutation(c, stageMutation[domain.OnboardingStageTwoRequest]("onboardingStageTwo")),
		stageThree: RegisterMutation(c, stageMutation[domain.OnboardingStageThreeRequest]("onboardingStageThree")),
		progress: RegisterQuery(c, Query[domain.Empty, domain.OnboardingProgress]{
			Name: "onboardingProgress",
			Path: func(domain.Empty) string { return "/users/onboarding" },
			ProvidesTags: func(domain.OnboardingProgress, domain.Empty) []cache.Tag {
				return []cache.Tag{cache.IDTag(TagOnboarding, MeID)}
			},
		}),
	}
}

func stageMutation[A any](name string) Mutation[A, domain.OnboardingResponse] {
	return Mutation[A, domain.OnboardingResponse]{
		Name:   name,
		Method: http.MethodPost,
		Path:   func(A) string { return "/users/" + name },
		InvalidatesTags: func(domain.OnboardingResponse, A) []cache.Tag {
			return []cache.Tag{cache.TypeTag(TagOnboarding), cache.IDTag(TagUser, MeID)}
		},
	}
}

func (o *OnboardingAPI) StageOne(ctx context.Context, req domain.OnboardingStageOneRequest) (domain.OnboardingResponse, error) {
	return o.stageOne.Do(ctx, o.client, req)
}

func (o *OnboardingAPI) StageTwo(ctx context.Context, req domain.OnboardingStageTwoRequest) (domain.OnboardingResponse, error) {
	return o.stageTwo.Do(ctx, o.client, req)
}

func (o *OnboardingAPI) StageThree(ctx context.Context, req domain.OnboardingStageThreeRequest) (domain.OnboardingResponse, error) {
	return o.stageThree.Do(ctx, o.client, req)
}

func (o *OnboardingAPI) Progress(ctx context.Context) (domain.OnboardingProgress, error) {
	return o.progress.Get(ctx, o.client, domain.Empty{})
}
