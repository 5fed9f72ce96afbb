package api

// Spark groups every endpoint registry of one client.
type Spark struct {
	Client        *Client
	Auth          *AuthAPI
	Users         *UsersAPI
	Onboarding    *OnboardingAPI
	Veriff        *VeriffAPI
	Events        *EventsAPI
	Notifications *NotificationsAPI
	Forms         *FormsAPI
}

// Inject registers every endpoint on c.
func Inject(c *Client) *Spark {
	return &Spark{
		Client:        c,
		Auth:          InjectAuthEndpoints(c),
		Users:         InjectUsersEndpoints(c),
		Onboarding:    InjectOnboardingEndpoints(c),
		Veriff:        InjectVeriffEndpoints(c),
		Events:        InjectEventsEndpoints(c),
		Notifications: InjectNotificationsEndpoints(c),
		Forms:         InjectFormsEndpoints(c),
	}
}
