package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/deckhand-ci/deckhand/internal/config"
	"github.com/deckhand-ci/deckhand/pkg/types"
)

// remoteView is the redacted form of the connection settings. The password
// never leaves the server.
type remoteView struct {
	URL   string `json:"url"`
	Login string `json:"login"`
}

// GetRemote returns the current rundeck connection settings, redacted.
func (h *Handlers) GetRemote(w http.ResponseWriter, r *http.Request) {
	rc := h.handle.Get()
	_ = json.NewEncoder(w).Encode(remoteView{URL: rc.URL, Login: rc.Login})
}

// PutRemote validates, persists, and atomically swaps in new rundeck
// connection settings.
func (h *Handlers) PutRemote(w http.ResponseWriter, r *http.Request) {
	var rc types.RemoteConfig
	if err := json.NewDecoder(r.Body).Decode(&rc); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := config.SaveRemote(h.app.RemoteFile, rc); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	h.handle.Set(rc)

	h.logger.Info("rundeck connection settings updated", "url", rc.URL, "login", rc.Login)
	_ = json.NewEncoder(w).Encode(remoteView{URL: rc.URL, Login: rc.Login})
}
