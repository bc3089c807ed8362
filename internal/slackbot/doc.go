// Package slackbot holds the Slack facing pieces of wavebot.
//
// It parses slash command requests and their arguments, verifies request
// signatures, posts replies to response_url, and runs the OAuth v2 install
// flow. Wire level work is delegated to github.com/slack-go/slack; this
// package adds the validation wavebot needs on top of it.
//
// # Security
//
// Slash command text is user input. ParseArgs only accepts http and https
// URLs whose host is a registered domain name, which keeps the WAVE API from
// being pointed at IP literals, localhost or internal names. Responder only
// posts to Slack hosts, so a forged response_url cannot turn wavebot into a
// generic HTTP client.
package slackbot
