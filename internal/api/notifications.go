package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Proton-105/spark-client/internal/cache"
	"github.com/Proton-105/spark-client/internal/domain"
)

const unreadCountPageSize = 100

type NotificationsAPI struct {
	client      *Client
	list        *Query[domain.ListParams, domain.Page[domain.Notification]]
	markRead    *Mutation[domain.MarkReadRequest, domain.Notification]
	markAllRead *Mutation[domain.Empty, domain.MarkAllReadResponse]
}

func InjectNotificationsEndpoints(c *Client) *NotificationsAPI {
	return &NotificationsAPI{
		client: c,
		list: RegisterQuery(c, Query[domain.ListParams, domain.Page[domain.Notification]]{
			Name:   "listNotifications",
			Path:   func(domain.ListParams) string { return "/notifications/" },
			Params: pageParams,
			ProvidesTags: func(page domain.Page[domain.Notification], _ domain.ListParams) []cache.Tag {
				tags := []cache.Tag{cache.ListTag(TagNotification)}
				for _, notification := range page.Items {
					tags = append(tags, cache.IDTag(TagNotification, notification.ID))
				}
				return tags
			},
			Retry: true,
		}),
		markRead: RegisterMutation(c, Mutation[domain.MarkReadRequest, domain.Notification]{
			Name:   "markNotificationRead",
			Method: http.MethodPatch,
			Path:   func(req domain.MarkReadRequest) string { return "/notifications/" + url.PathEscape(req.ID) },
			Body: func(domain.MarkReadRequest) any {
				return map[string]bool{"is_read": true}
			},
			InvalidatesTags: func(_ domain.Notification, req domain.MarkReadRequest) []cache.Tag {
				return []cache.Tag{cache.IDTag(TagNotification, req.ID), cache.ListTag(TagNotification)}
			},
		}),
		markAllRead: RegisterMutation(c, Mutation[domain.Empty, domain.MarkAllReadResponse]{
			Name:   "markAllNotificationsRead",
			Method: http.MethodPatch,
			Path:   func(domain.Empty) string { return "/notifications/" },
			Body: func(domain.Empty) any {
				return map[string]bool{"is_read": true}
			},
			InvalidatesTags: func(domain.MarkAllReadResponse, domain.Empty) []cache.Tag {
				return []cache.Tag{cache.TypeTag(TagNotification)}
			},
		}),
	}
}

func (n *NotificationsAPI) List(ctx context.Context, params domain.ListParams) (domain.Page[domain.Notification], error) {
	return n.list.Get(ctx, n.client, params)
}

func (n *NotificationsAPI) SubscribeList(params domain.ListParams) (*Subscription[domain.Page[domain.Notification]], error) {
	return n.list.Subscribe(n.client, params)
}

func (n *NotificationsAPI) ListAll(ctx context.Context, limit int) ([]domain.Notification, error) {
	return collectPages(ctx, limit, n.List)
}

func (n *NotificationsAPI) MarkRead(ctx context.Context, id string) (domain.Notification, error) {
	return n.markRead.Do(ctx, n.client, domain.MarkReadRequest{ID: id})
}

func (n *NotificationsAPI) MarkAllRead(ctx context.Context) (domain.MarkAllReadResponse, error) {
	return n.markAllRead.Do(ctx, n.client, domain.Empty{})
}

// UnreadCount counts unread notifications across every page. Each page is
// fetched from the server and written back to the cache.
func (n *NotificationsAPI) UnreadCount(ctx context.Context) (int, error) {
	notifications, err := collectPages(ctx, unreadCountPageSize, func(ctx context.Context, params domain.ListParams) (domain.Page[domain.Notification], error) {
		return n.list.Refetch(ctx, n.client, params)
	})
	if err != nil {
		return 0, err
	}
	return CountUnread(notifications), nil
}

func CountUnread(notifications []domain.Notification) int {
	unread := 0
	for _, notification := range notifications {
		if !notification.IsRead {
			unread++
		}
	}
	return unread
}
