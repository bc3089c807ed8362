package server

import (
	"bytes"
	"net/http"
	"net/url"
)

// Plain text error bodies returned by the install and configuration pages.
const (
	msgInvalidState      = "Invalid or expired OAuth state"
	msgOAuthFailed       = "OAuth installation failed"
	msgTeamIDRequired    = "Team ID is required"
	msgConfigRequired    = "Team ID and WAVE API key are required"
	msgInvalidConfigLink = "Invalid or expired configuration link. Please reinstall the app."
	msgConfigSaveFailed  = "Failed to save configuration"
	msgRenderFailed      = "Failed to render page"
	msgHealthy           = "ok"
	formFieldTeamID      = "teamId"
	formFieldWaveAPIKey  = "waveApiKey"
	formFieldToken       = "token"
	queryParamOAuthCode  = "code"
	queryParamOAuthState = "state"
)

type indexPage struct {
	Command string
}

type configPage struct {
	TeamID string
	Token  string
}

type configDonePage struct {
	Command string
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	s.render(w, "index.html", indexPage{Command: s.command})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(msgHealthy)) //nolint:errcheck // client gone
}

// handleInstall starts the OAuth flow with a fresh signed state.
func (s *Server) handleInstall(w http.ResponseWriter, r *http.Request) {
	state := s.deps.Installer.NewState()
	http.Redirect(w, r, s.deps.Installer.InstallURL(state), http.StatusFound)
}

// handleOAuthRedirect completes the install and sends the administrator on
// to the configuration page.
func (s *Server) handleOAuthRedirect(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if err := s.deps.Installer.VerifyState(query.Get(queryParamOAuthState)); err != nil {
		s.logger.Warn("oauth state rejected", "error", err)
		http.Error(w, msgInvalidState, http.StatusBadRequest)
		return
	}

	if denied := query.Get("error"); denied != "" {
		s.logger.Warn("oauth install denied", "reason", denied)
		http.Error(w, msgOAuthFailed, http.StatusInternalServerError)
		return
	}

	inst, err := s.deps.Installer.Complete(r.Context(), query.Get(queryParamOAuthCode))
	if err != nil {
		s.logger.Error("oauth install failed", "error", err)
		http.Error(w, msgOAuthFailed, http.StatusInternalServerError)
		return
	}

	if err := s.deps.Store.StoreInstallation(r.Context(), inst); err != nil {
		s.logger.Error("failed to store installation", "team", inst.Key(), "error", err)
		http.Error(w, msgOAuthFailed, http.StatusInternalServerError)
		return
	}

	s.logger.Info("installation stored",
		"team", inst.Key(),
		"team_name", inst.TeamName,
		"enterprise", inst.EnterpriseID,
	)

	target := "/config?" + url.Values{
		formFieldTeamID: {inst.Key()},
		formFieldToken:  {s.deps.Installer.ConfigToken(inst.Key())},
	}.Encode()
	http.Redirect(w, r, target, http.StatusFound)
}

// handleConfigForm renders the WAVE API key form. The link carries the
// configuration token issued by handleOAuthRedirect, which the form posts back.
func (s *Server) handleConfigForm(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	teamID := query.Get(formFieldTeamID)
	if teamID == "" {
		http.Error(w, msgTeamIDRequired, http.StatusBadRequest)
		return
	}

	token := query.Get(formFieldToken)
	if err := s.deps.Installer.VerifyConfigToken(teamID, token); err != nil {
		s.logger.Warn("configuration link rejected", "team", teamID, "error", err)
		http.Error(w, msgInvalidConfigLink, http.StatusForbidden)
		return
	}

	s.render(w, "config.html", configPage{TeamID: teamID, Token: token})
}

func (s *Server) handleConfigSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseForm(); err != nil {
		http.Error(w, msgConfigRequired, http.StatusBadRequest)
		return
	}

	teamID := r.PostForm.Get(formFieldTeamID)
	apiKey := r.PostForm.Get(formFieldWaveAPIKey)
	if teamID == "" || apiKey == "" {
		http.Error(w, msgConfigRequired, http.StatusBadRequest)
		return
	}

	if err := s.deps.Installer.VerifyConfigToken(teamID, r.PostForm.Get(formFieldToken)); err != nil {
		s.logger.Warn("configuration rejected", "team", teamID, "error", err)
		http.Error(w, msgInvalidConfigLink, http.StatusForbidden)
		return
	}

	if err := s.deps.Store.SetWaveAPIKey(r.Context(), teamID, apiKey); err != nil {
		s.logger.Error("failed to save wave api key", "team", teamID, "error", err)
		http.Error(w, msgConfigSaveFailed, http.StatusInternalServerError)
		return
	}

	s.logger.Info("wave api key configured", "team", teamID)
	s.render(w, "config_done.html", configDonePage{Command: s.command})
}

// render executes the named template into a buffer first so that a
// template error can still produce a clean 500.
func (s *Server) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("failed to render template", "template", name, "error", err)
		http.Error(w, msgRenderFailed, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w) //nolint:errcheck // client gone
}
