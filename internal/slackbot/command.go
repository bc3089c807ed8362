package slackbot

import (
	"fmt"
	"net/http"

	"github.com/slack-go/slack"
)

// Command is a parsed slash command invocation.
type Command struct {
	TeamID       string
	EnterpriseID string
	ChannelID    string
	UserID       string
	Command      string
	Text         string
	ResponseURL  string
	TriggerID    string
	APIAppID     string
}

// TeamKey returns the identifier used to look up the workspace's
// installation: the team id, else the enterprise id.
func (c Command) TeamKey() string {
	if c.TeamID != "" {
		return c.TeamID
	}
	return c.EnterpriseID
}

// ParseCommand parses the form encoded body of a slash command request.
func ParseCommand(r *http.Request) (Command, error) {
	sc, err := slack.SlashCommandParse(r)
	if err != nil {
		return Command{}, fmt.Errorf("failed to parse slash command: %w", err)
	}

	return Command{
		TeamID:       sc.TeamID,
		EnterpriseID: sc.EnterpriseID,
		ChannelID:    sc.ChannelID,
		UserID:       sc.UserID,
		Command:      sc.Command,
		Text:         sc.Text,
		ResponseURL:  sc.ResponseURL,
		TriggerID:    sc.TriggerID,
		APIAppID:     sc.APIAppID,
	}, nil
}
