// Package server is the HTTP front of wavebot.
//
// It serves the OAuth install flow, the configuration page where an
// administrator enters the workspace's WAVE API key, and the slash command
// endpoint. Slash commands are acknowledged immediately with an ephemeral
// reply; the scan itself runs on a Dispatcher worker and its result is
// posted to the command's response_url.
//
// # Routes
//
//	GET  /                      landing page
//	GET  /slack/install         redirect to Slack's authorize page
//	GET  /slack/oauth_redirect  finish the install, continue to /config
//	GET  /config?teamId=&token= WAVE API key form
//	POST /config                save the WAVE API key
//	POST /slack/events          slash command endpoint
//	GET  /healthz               liveness probe
//
// The configuration page only accepts a team together with the signed token
// issued at the end of that team's install, so a WAVE API key cannot be
// replaced by anyone who merely knows the team ID.
//
// HTML pages are rendered with html/template from embedded files, so every
// value taken from a request is escaped.
package server
