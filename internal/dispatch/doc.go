// Package dispatch runs slash command work in the background.
//
// Slack expects an answer to a slash command within three seconds, while a
// WAVE scan can take much longer. The HTTP handler acknowledges the command
// and hands the scan to a Dispatcher, which runs it on a bounded number of
// goroutines and reports the result through the command's response_url.
//
// Design decision: We use errgroup.SetLimit with TryGo rather than a queue
// because a full dispatcher should answer "busy" immediately. Queued jobs
// would outlive the response_url's usefulness and hide overload from users.
package dispatch
