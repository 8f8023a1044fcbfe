package dto

import "time"

// AuthURLResponse is returned by GET /auth/:platform/login.
type AuthURLResponse struct {
	AuthURL string `json:"auth_url"`
	State   string `json:"state"`
}

// ConnectionStatus describes a user's stored connection to one platform.
type ConnectionStatus struct {
	Connected        bool       `json:"connected"`
	Platform         string     `json:"platform"`
	PlatformUserID   string     `json:"platform_user_id,omitempty"`
	PlatformUsername string     `json:"platform_username,omitempty"`
	Scopes           []string   `json:"scopes,omitempty"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
}
