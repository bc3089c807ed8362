package model

import "time"

// Installation records a Slack workspace that installed the app.
// It is keyed by TeamID, or by EnterpriseID for org-wide installs.
type Installation struct {
	TeamID         string    `json:"team_id,omitempty"`
	TeamName       string    `json:"team_name,omitempty"`
	EnterpriseID   string    `json:"enterprise_id,omitempty"`
	EnterpriseName string    `json:"enterprise_name,omitempty"`
	AppID          string    `json:"app_id,omitempty"`
	BotUserID      string    `json:"bot_user_id,omitempty"`
	BotToken       string    `json:"bot_token,omitempty"`
	Scope          string    `json:"scope,omitempty"`
	InstallerID    string    `json:"installer_id,omitempty"`
	InstalledAt    time.Time `json:"installed_at"`

	// WaveAPIKey is the WebAIM WAVE key configured for this workspace.
	// Empty until an administrator completes the configuration page.
	WaveAPIKey string `json:"wave_api_key,omitempty"`
}

// Key returns the identifier the installation is stored under:
// the team id, else the enterprise id, else "".
func (i *Installation) Key() string {
	if i == nil {
		return ""
	}
	if i.TeamID != "" {
		return i.TeamID
	}
	return i.EnterpriseID
}
