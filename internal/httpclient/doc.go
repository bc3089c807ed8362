// Package httpclient builds the outbound HTTP client shared by the WAVE scan
// client, the Slack response_url delivery and the OAuth token exchange.
//
// Requests can optionally be routed through a SOCKS5 proxy, for deployments
// where outbound traffic must leave through a fixed egress point.
package httpclient
