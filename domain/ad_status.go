package domain

const (
	StatusActive = "ACTIVE"
	StatusPaused = "PAUSED"
)

// PlatformCredentials are supplied per request and never stored.
type PlatformCredentials struct {
	AppID       string `json:"app_id"`
	AppSecret   string `json:"app_secret"`
	AccessToken string `json:"access_token"`
}

type StatusUpdate struct {
	AdID    string `json:"ad_id"`
	Channel string `json:"channel,omitempty"`
	Status  string `json:"status"`
}

// StatusChange is returned only for ads whose status actually changed.
type StatusChange struct {
	AdID      string `json:"ad_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
}
