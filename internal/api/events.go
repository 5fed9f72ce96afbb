package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Proton-105/spark-client/internal/cache"
	"github.com/Proton-105/spark-client/internal/domain"
)

type EventsAPI struct {
	client        *Client
	list          *Query[domain.ListParams, domain.Page[domain.Event]]
	get           *Query[string, domain.Event]
	runs          *Query[string, []domain.EventRun]
	organizers    *Query[domain.Empty, []domain.EventOrganizer]
	invites       *Query[string, []domain.EventRunInvite]
	create        *Mutation[domain.CreateEventRequest, domain.Event]
	update        *Mutation[domain.UpdateEventRequest, domain.Event]
	remove        *Mutation[string, domain.Empty]
	createRun     *Mutation[domain.CreateEventRunRequest, domain.EventRun]
	respondInvite *Mutation[domain.RespondInviteRequest, domain.EventRunInvite]
}

func InjectEventsEndpoints(c *Client) *EventsAPI {
	return &EventsAPI{
		client: c,
		list: RegisterQuery(c, Query[domain.ListParams, domain.Page[domain.Event]]{
			Name:   "listEvents",
			Path:   func(domain.ListParams) string { return "/events/" },
			Params: pageParams,
			ProvidesTags: func(page domain.Page[domain.Event], _ domain.ListParams) []cache.Tag {
				tags := []cache.Tag{cache.ListTag(TagEvent)}
				for _, event := range page.Items {
					tags = append(tags, cache.IDTag(TagEvent, event.ID))
				}
				return tags
			},
			Retry: true,
		}),
		get: RegisterQuery(c, Query[string, domain.Event]{
			Name: "getEvent",
			Path: func(id string) string { return "/events/" + url.PathEscape(id) },
			ProvidesTags: func(_ domain.Event, id string) []cache.Tag {
				return []cache.Tag{cache.IDTag(TagEvent, id)}
			},
			Retry: true,
		}),
		runs: RegisterQuery(c, Query[string, []domain.EventRun]{
			Name: "listEventRuns",
			Path: func(eventID string) string { return "/events/" + url.PathEscape(eventID) + "/runs" },
			ProvidesTags: func(runs []domain.EventRun, eventID string) []cache.Tag {
				tags := []cache.Tag{cache.IDTag(TagEventRuns, eventID), cache.ListTag(TagEventRun)}
				for _, run := range runs {
					tags = append(tags, cache.IDTag(TagEventRun, run.ID))
				}
				return tags
			},
		}),
		organizers: RegisterQuery(c, Query[domain.Empty, []domain.EventOrganizer]{
			Name: "listEventOrganizers",
			Path: func(domain.Empty) string { return "/events/organizers" },
			ProvidesTags: func(organizers []domain.EventOrganizer, _ domain.Empty) []cache.Tag {
				tags := []cache.Tag{cache.ListTag(TagEventOrganizer)}
				for _, organizer := range organizers {
					tags = append(tags, cache.IDTag(TagEventOrganizer, organizer.ID))
				}
				return tags
			},
		}),
		invites: RegisterQuery(c, Query[string, []domain.EventRunInvite]{
			Name: "listEventRunInvites",
			Path: func(runID string) string { return "/event-runs/" + url.PathEscape(runID) + "/invites" },
			ProvidesTags: func(invites []domain.EventRunInvite, _ string) []cache.Tag {
				tags := []cache.Tag{cache.ListTag(TagEventRunInvite)}
				for _, invite := range invites {
					tags = append(tags, cache.IDTag(TagEventRunInvite, invite.ID))
				}
				return tags
			},
		}),
		create: RegisterMutation(c, Mutation[domain.CreateEventRequest, domain.Event]{
			Name:   "createEvent",
			Method: http.MethodPost,
			Path:   func(domain.CreateEventRequest) string { return "/events/" },
			InvalidatesTags: func(domain.Event, domain.CreateEventRequest) []cache.Tag {
				return []cache.Tag{cache.ListTag(TagEvent)}
			},
		}),
		update: RegisterMutation(c, Mutation[domain.UpdateEventRequest, domain.Event]{
			Name:   "updateEvent",
			Method: http.MethodPatch,
			Path:   func(req domain.UpdateEventRequest) string { return "/events/" + url.PathEscape(req.ID) },
			InvalidatesTags: func(_ domain.Event, req domain.UpdateEventRequest) []cache.Tag {
				return []cache.Tag{cache.IDTag(TagEvent, req.ID), cache.ListTag(TagEvent)}
			},
		}),
		remove: RegisterMutation(c, Mutation[string, domain.Empty]{
			Name:   "deleteEvent",
			Method: http.MethodDelete,
			Path:   func(id string) string { return "/events/" + url.PathEscape(id) },
			Body:   noBody[string],
			InvalidatesTags: func(_ domain.Empty, id string) []cache.Tag {
				return []cache.Tag{
					cache.IDTag(TagEvent, id),
					cache.ListTag(TagEvent),
					cache.IDTag(TagEventRuns, id),
				}
			},
		}),
		createRun: RegisterMutation(c, Mutation[domain.CreateEventRunRequest, domain.EventRun]{
			Name:   "createEventRun",
			Method: http.MethodPost,
			Path: func(req domain.CreateEventRunRequest) string {
				return "/events/" + url.PathEscape(req.EventID) + "/runs"
			},
			InvalidatesTags: func(_ domain.EventRun, req domain.CreateEventRunRequest) []cache.Tag {
				return []cache.Tag{cache.IDTag(TagEventRuns, req.EventID)}
			},
		}),
		respondInvite: RegisterMutation(c, Mutation[domain.RespondInviteRequest, domain.EventRunInvite]{
			Name:   "respondEventRunInvite",
			Method: http.MethodPatch,
			Path:   func(req domain.RespondInviteRequest) string { return "/event-run-invites/" + url.PathEscape(req.ID) },
			InvalidatesTags: func(_ domain.EventRunInvite, req domain.RespondInviteRequest) []cache.Tag {
				return []cache.Tag{cache.IDTag(TagEventRunInvite, req.ID), cache.ListTag(TagEventRunInvite)}
			},
		}),
	}
}

func (e *EventsAPI) List(ctx context.Context, params domain.ListParams) (domain.Page[domain.Event], error) {
	return e.list.Get(ctx, e.client, params)
}

// SubscribeList keeps one page of events mounted.
func (e *EventsAPI) SubscribeList(params domain.ListParams) (*Subscription[domain.Page[domain.Event]], error) {
	return e.list.Subscribe(e.client, params)
}

// ListAll walks every page of events with the given page size.
func (e *EventsAPI) ListAll(ctx context.Context, limit int) ([]domain.Event, error) {
	return collectPages(ctx, limit, func(ctx context.Context, params domain.ListParams) (domain.Page[domain.Event], error) {
		return e.List(ctx, params)
	})
}

func (e *EventsAPI) Get(ctx context.Context, id string) (domain.Event, error) {
	if err := requireID("id", id); err != nil {
		return domain.Event{}, err
	}
	return e.get.Get(ctx, e.client, id)
}

func (e *EventsAPI) Create(ctx context.Context, req domain.CreateEventRequest) (domain.Event, error) {
	return e.create.Do(ctx, e.client, req)
}

func (e *EventsAPI) Update(ctx context.Context, req domain.UpdateEventRequest) (domain.Event, error) {
	return e.update.Do(ctx, e.client, req)
}

func (e *EventsAPI) Delete(ctx context.Context, id string) error {
	if err := requireID("id", id); err != nil {
		return err
	}
	_, err := e.remove.Do(ctx, e.client, id)
	return err
}

func (e *EventsAPI) Runs(ctx context.Context, eventID string) ([]domain.EventRun, error) {
	if err := requireID("event_id", eventID); err != nil {
		return nil, err
	}
	return e.runs.Get(ctx, e.client, eventID)
}

func (e *EventsAPI) CreateRun(ctx context.Context, req domain.CreateEventRunRequest) (domain.EventRun, error) {
	return e.createRun.Do(ctx, e.client, req)
}

func (e *EventsAPI) Organizers(ctx context.Context) ([]domain.EventOrganizer, error) {
	return e.organizers.Get(ctx, e.client, domain.Empty{})
}

func (e *EventsAPI) Invites(ctx context.Context, runID string) ([]domain.EventRunInvite, error) {
	if err := requireID("event_run_id", runID); err != nil {
		return nil, err
	}
	return e.invites.Get(ctx, e.client, runID)
}

func (e *EventsAPI) RespondInvite(ctx context.Context, req domain.RespondInviteRequest) (domain.EventRunInvite, error) {
	return e.respondInvite.Do(ctx, e.client, req)
}

func pageParams(params domain.ListParams) url.Values {
	if params.Page <= 0 && params.Limit <= 0 {
		params = domain.DefaultListParams()
	}
	values := url.Values{}
	if params.Page > 0 {
		values.Set("page", strconv.Itoa(params.Page))
	}
	if params.Limit > 0 {
		values.Set("limit", strconv.Itoa(params.Limit))
	}
	return values
}

// collectPages requests pages from the first one until the server reports no
// further page.
func collectPages[T any](
	ctx context.Context,
	limit int,
	list func(context.Context, domain.ListParams) (domain.Page[T], error),
) ([]T, error) {
	if limit <= 0 {
		limit = domain.DefaultListParams().Limit
	}

	var items []T
	params := domain.ListParams{Page: 1, Limit: limit}
	for {
		page, err := list(ctx, params)
		if err != nil {
			return items, err
		}
		items = append(items, page.Items...)

		next := page.NextPage()
		if next <= params.Page || len(page.Items) == 0 {
			return items, nil
		}
		params.Page = next
	}
}
