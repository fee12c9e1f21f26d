package httpapi

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"jobagent-engine/internal/config"
	"jobagent-engine/internal/secrets"
)

type SecretsHandler struct {
	CfgVal *atomic.Value // stores config.Config
}

type setIMAPPasswordReq struct {
	Password string `json:"password"`
}

func (h SecretsHandler) account() string {
	mb := h.CfgVal.Load().(config.Config).Sources.Mailbox
	return secrets.IMAPKeyringAccount(mb.Username, mb.IMAPHost)
}

func (h SecretsHandler) SetIMAPPassword(w http.ResponseWriter, r *http.Request) {
	if !IsLocal(r) {
		WriteError(w, r, http.StatusForbidden, CodeForbidden, "forbidden")
		return
	}
	var req setIMAPPasswordReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, CodeInvalidJSON, "invalid json")
		return
	}
	if err := secrets.SetIMAPPassword(h.account(), req.Password); err != nil {
		WriteError(w, r, http.StatusBadRequest, CodeSecretFailed, "failed to store password: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h SecretsHandler) DeleteIMAPPassword(w http.ResponseWriter, r *http.Request) {
	if !IsLocal(r) {
		WriteError(w, r, http.StatusForbidden, CodeForbidden, "forbidden")
		return
	}
	if err := secrets.DeleteIMAPPassword(h.account()); err != nil {
		WriteError(w, r, http.StatusInternalServerError, CodeSecretFailed, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
