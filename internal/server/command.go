package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/nao1215/wavebot/internal/dispatch"
	"github.com/nao1215/wavebot/internal/model"
	"github.com/nao1215/wavebot/internal/slackbot"
	"github.com/nao1215/wavebot/internal/wave"
)

// Replies sent to the user who ran the slash command.
const (
	msgNotConfigured = "WAVE API key not configured. Please contact your admin to complete setup."
	msgMissingURL    = "Please provide a URL to check."
	msgProcessing    = "Processing your request..."
	msgBusy          = "wavebot is busy with other scans. Please try again in a minute."
	msgInternalError = "Internal server error. Please try again later."
)

// scanRequest is everything a background scan job needs.
type scanRequest struct {
	teamID      string
	userID      string
	apiKey      string
	target      string
	tier        model.Tier
	responseURL string
}

// handleCommand answers a slash command. The HTTP reply only acknowledges
// the command; the report is posted to response_url by a background job.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if err := s.verifier.Verify(r); err != nil {
		s.logger.Warn("slash command rejected", "error", err)
		if errors.Is(err, slackbot.ErrRequestTooLarge) {
			http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	cmd, err := slackbot.ParseCommand(r)
	if err != nil {
		s.logger.Warn("malformed slash command", "error", err)
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if cmd.Command != s.command {
		http.NotFound(w, r)
		return
	}

	teamID := cmd.TeamKey()
	apiKey, ok, err := s.deps.Store.WaveAPIKey(r.Context(), teamID)
	if err != nil {
		s.logger.Error("failed to look up wave api key", "team", teamID, "error", err)
		s.reply(w, slackbot.Ephemeral(msgInternalError))
		return
	}
	if !ok {
		s.reply(w, slackbot.Ephemeral(msgNotConfigured))
		return
	}

	target, tier, err := slackbot.ParseArgs(cmd.Text)
	if err != nil {
		if errors.Is(err, slackbot.ErrMissingURL) {
			s.reply(w, slackbot.Ephemeral(msgMissingURL))
			return
		}
		s.logger.Debug("invalid slash command arguments", "team", teamID, "error", err)
		s.reply(w, slackbot.Ephemeral(slackbot.Usage))
		return
	}

	req := scanRequest{
		teamID:      teamID,
		userID:      cmd.UserID,
		apiKey:      apiKey,
		target:      target,
		tier:        tier,
		responseURL: cmd.ResponseURL,
	}
	id, err := s.deps.Dispatcher.Submit("scan", func(ctx context.Context) error {
		return s.runScan(ctx, req)
	})
	if err != nil {
		if errors.Is(err, dispatch.ErrBusy) {
			s.reply(w, slackbot.Ephemeral(msgBusy))
			return
		}
		s.logger.Error("failed to submit scan", "team", teamID, "error", err)
		s.reply(w, slackbot.Ephemeral(msgInternalError))
		return
	}

	s.logger.Info("scan accepted",
		"job_id", id,
		"team", teamID,
		"user", cmd.UserID,
		"url", target,
		"tier", tier.String(),
	)
	s.reply(w, slackbot.Ephemeral(msgProcessing))
}

// runScan scans the page, formats the report and posts it. Exactly one
// message is posted per request.
func (s *Server) runScan(ctx context.Context, req scanRequest) error {
	logger := s.logger.With("job_id", dispatch.JobID(ctx), "team", req.teamID, "user", req.userID, "url", req.target)

	msg := s.scanMessage(ctx, logger, req)
	if err := s.deps.Responder.Respond(ctx, req.responseURL, msg); err != nil {
		return err
	}

	logger.Info("scan result delivered", "response_type", msg.ResponseType)
	return nil
}

// scanMessage builds the message for one scan request: the report on
// success, the API's own message on an API error, a generic text otherwise.
func (s *Server) scanMessage(ctx context.Context, logger *slog.Logger, req scanRequest) slackbot.Message {
	report, err := s.deps.Scanner.Scan(ctx, req.apiKey, req.target, req.tier)
	if err != nil {
		var apiErr *wave.APIError
		if errors.As(err, &apiErr) {
			logger.Warn("wave api returned an error", "error", err)
			return slackbot.Ephemeral("Error: " + apiErr.Message)
		}
		logger.Error("scan failed", "error", err)
		return slackbot.Ephemeral(msgInternalError)
	}

	summary, err := s.deps.Formatter.Format(req.tier, req.target, report)
	if err != nil {
		logger.Error("failed to format report", "error", err)
		return slackbot.Ephemeral(msgInternalError)
	}

	return slackbot.InChannel(summary)
}

// reply writes msg as the immediate JSON response to a slash command.
func (s *Server) reply(w http.ResponseWriter, msg slackbot.Message) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(msg); err != nil {
		s.logger.Warn("failed to write slash command reply", "error", err)
	}
}
