package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Proton-105/spark-client/internal/cache"
	"github.com/Proton-105/spark-client/internal/domain"
)

type FormsAPI struct {
	client        *Client
	list          *Query[domain.Empty, []domain.Form]
	get           *Query[string, domain.Form]
	myAnswers     *Query[domain.Empty, []domain.UserFormAnswer]
	submitAnswers *Mutation[domain.SubmitAnswersRequest, []domain.UserFormAnswer]
}

func InjectFormsEndpoints(c *Client) *FormsAPI {
	return &FormsAPI{
		client: c,
		list: RegisterQuery(c, Query[domain.Empty, []domain.Form]{
			Name: "listForms",
			Path: func(domain.Empty) string { return "/forms/" },
			ProvidesTags: func(forms []domain.Form, _ domain.Empty) []cache.Tag {
				tags := []cache.Tag{cache.ListTag(TagForm)}
				for _, form := range forms {
					tags = append(tags, cache.IDTag(TagForm, form.ID))
				}
				return tags
			},
		}),
		get: RegisterQuery(c, Query[string, domain.Form]{
			Name: "getForm",
			Path: func(id string) string { return "/forms/" + url.PathEscape(id) },
			ProvidesTags: func(_ domain.Form, id string) []cache.Tag {
				return []cache.Tag{cache.IDTag(TagForm, id)}
			},
		}),
		myAnswers: RegisterQuery(c, Query[domain.Empty, []domain.UserFormAnswer]{
			Name: "myFormAnswers",
			Path: func(domain.Empty) string { return "/users/me/form-answers" },
			ProvidesTags: func(answers []domain.UserFormAnswer, _ domain.Empty) []cache.Tag {
				tags := []cache.Tag{cache.ListTag(TagFormAnswer)}
				seen := make(map[string]struct{})
				for _, answer := range answers {
					if _, ok := seen[answer.FormID]; ok {
						continue
					}
					seen[answer.FormID] = struct{}{}
					tags = append(tags, cache.IDTag(TagFormAnswer, answer.FormID))
				}
				return tags
			},
		}),
		submitAnswers: RegisterMutation(c, Mutation[domain.SubmitAnswersRequest, []domain.UserFormAnswer]{
			Name:   "submitFormAnswers",
			Method: http.MethodPost,
			Path: func(req domain.SubmitAnswersRequest) string {
				return "/forms/" + url.PathEscape(req.FormID) + "/answers"
			},
			InvalidatesTags: func(_ []domain.UserFormAnswer, req domain.SubmitAnswersRequest) []cache.Tag {
				return []cache.Tag{
					cache.ListTag(TagFormAnswer),
					cache.IDTag(TagFormAnswer, req.FormID),
					cache.TypeTag(TagOnboarding),
				}
			},
		}),
	}
}

func (f *FormsAPI) List(ctx context.Context) ([]domain.Form, error) {
	return f.list.Get(ctx, f.client, domain.Empty{})
}

func (f *FormsAPI) Get(ctx context.Context, id string) (domain.Form, error) {
	if err := requireID("id", id); err != nil {
		return domain.Form{}, err
	}
	return f.get.Get(ctx, f.client, id)
}

func (f *FormsAPI) SubmitAnswers(ctx context.Context, req domain.SubmitAnswersRequest) ([]domain.UserFormAnswer, error) {
	return f.submitAnswers.Do(ctx, f.client, req)
}

func (f *FormsAPI) MyAnswers(ctx context.Context) ([]domain.UserFormAnswer, error) {
	return f.myAnswers.Get(ctx, f.client, domain.Empty{})
}
