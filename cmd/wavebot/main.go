// Package main provides the entry point for the wavebot CLI.
//
// wavebot runs WebAIM WAVE accessibility checks from a Slack slash command.
// The serve command runs the Slack app; the other commands format saved
// WAVE reports and administer the credential store.
//
// Usage:
//
//	wavebot serve
//	wavebot format report.json --tier 3
//	wavebot keys list
//
// See --help for all available options.
package main

// main is the entry point for wavebot.
func main() {
	Execute()
}
