package web

import (
	"crypto/subtle"
	"net/http"

	"github.com/google/uuid"
)

const (
	sessionName   = "pgbrowse"
	resetTokenKey = "reset_token"
	confirmWord   = "DELETE"
)

// ResetForm renders the schema reset confirmation with a fresh one-time token.
func (h *Handlers) ResetForm(w http.ResponseWriter, r *http.Request) {
	data := h.view("Reset schema")

	token, err := h.issueResetToken(w, r)
	if err != nil {
		h.logger.Error("save session", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	data.Token = token
	h.render(w, http.StatusOK, pageConfirmDelete, data)
}

// Reset drops every table once the token matches and DELETE was typed.
// The token is spent either way.
func (h *Handlers) Reset(w http.ResponseWriter, r *http.Request) {
	sess, _ := h.sessionStore.Get(r, sessionName)
	expected, _ := sess.Values[resetTokenKey].(string)
	delete(sess.Values, resetTokenKey)

	given := r.PostFormValue("token")
	valid := expected != "" && subtle.ConstantTimeCompare([]byte(expected), []byte(given)) == 1

	if !valid || r.PostFormValue("confirm") != confirmWord {
		token := uuid.NewString()
		sess.Values[resetTokenKey] = token
		if err := sess.Save(r, w); err != nil {
			h.logger.Error("save session", "error", err)
		}

		data := h.view("Reset schema")
		data.Token = token
		data.Notice = &Notice{Level: levelWarning, Message: "Confirmation failed. Type DELETE and submit the form again."}
		h.render(w, http.StatusBadRequest, pageConfirmDelete, data)
		return
	}

	if err := sess.Save(r, w); err != nil {
		h.logger.Error("save session", "error", err)
	}

	if err := h.gateway.ResetSchema(r.Context()); err != nil {
		h.renderError(w, r, pageError, h.view("Reset schema"), err)
		return
	}

	h.logger.Info("schema reset from web", "remote", r.RemoteAddr)
	h.renderIndex(w, r, http.StatusOK, &Notice{Level: levelSuccess, Message: "Success! All tables have been dropped."})
}

func (h *Handlers) issueResetToken(w http.ResponseWriter, r *http.Request) (string, error) {
	sess, _ := h.sessionStore.Get(r, sessionName)
	token := uuid.NewString()
	sess.Values[resetTokenKey] = token
	if err := sess.Save(r, w); err != nil {
		return "", err
	}
	return token, nil
}
