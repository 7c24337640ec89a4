package http

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/maildepot/maildepot/internal/common"
	"github.com/maildepot/maildepot/internal/cryptox"
	"github.com/maildepot/maildepot/internal/server/models"
	"github.com/maildepot/maildepot/internal/server/services"
)

type storeRequest struct {
	UserNum       uint64 `json:"usernum"`
	FolderNum     uint64 `json:"foldernum"`
	Status        uint32 `json:"status"`
	SpamSignature uint64 `json:"signum"`
	SpamKey       uint64 `json:"sigkey"`
	Body          string `json:"body"`                    // base64
	RecipientKey  string `json:"recipient_key,omitempty"` // base64, 32 bytes
}

type copyRequest struct {
	UserNum       uint64    `json:"usernum"`
	Server        string    `json:"server,omitempty"`
	Size          uint32    `json:"size"`
	FolderNum     uint64    `json:"foldernum"`
	Status        uint32    `json:"status"`
	SpamSignature uint64    `json:"signum"`
	SpamKey       uint64    `json:"sigkey"`
	Created       time.Time `json:"created"`
}

type moveRequest struct {
	UserNum      uint64 `json:"usernum"`
	SourceFolder uint64 `json:"source"`
	TargetFolder uint64 `json:"target"`
}

type messageResponse struct {
	MessageNum uint64 `json:"messagenum"`
}

type credentialResponse struct {
	UserNum     uint64 `json:"usernum"`
	Username    string `json:"username"`
	Scheme      string `json:"scheme"`
	Locked      uint8  `json:"locked"`
	LegacyToken string `json:"legacy_token,omitempty"` // hex
	Salt        string `json:"salt,omitempty"`         // base64
	Verify      string `json:"verification,omitempty"` // base64
	BonusRounds uint32 `json:"bonus_rounds,omitempty"`
}

type replaceLegacyRequest struct {
	LegacyToken string `json:"legacy_token"`
	Salt        string `json:"salt"`
	Verify      string `json:"verification"`
	BonusRounds uint32 `json:"bonus_rounds"`
}

type lockRequest struct {
	Lock uint8 `json:"lock"`
}

func (h *Handler) handleStore(w http.ResponseWriter, r *http.Request) {

	var req storeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	body, err := base64.StdEncoding.DecodeString(req.Body)
	if err != nil {
		http.Error(w, "body is not valid base64", http.StatusBadRequest)
		return
	}

	in := services.StoreInput{
		UserNum:       req.UserNum,
		FolderNum:     req.FolderNum,
		Status:        req.Status,
		SpamSignature: req.SpamSignature,
		SpamKey:       req.SpamKey,
		Body:          body,
	}
	if req.RecipientKey != "" {
		raw, err := base64.StdEncoding.DecodeString(req.RecipientKey)
		if err != nil || len(raw) != cryptox.KeySize {
			http.Error(w, "recipient key must be 32 base64-encoded bytes", http.StatusBadRequest)
			return
		}
		var key [cryptox.KeySize]byte
		copy(key[:], raw)
		in.RecipientKey = &key
	}

	messagenum, err := h.mail.Store(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, messageResponse{MessageNum: messagenum})
}

func (h *Handler) handleCopy(w http.ResponseWriter, r *http.Request) {

	original, ok := h.pathUint(w, r, "messagenum")
	if !ok {
		return
	}

	var req copyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	messagenum, err := h.mail.Copy(r.Context(), services.CopyInput{
		UserNum:       req.UserNum,
		Original:      original,
		Server:        req.Server,
		Size:          req.Size,
		FolderNum:     req.FolderNum,
		Status:        req.Status,
		SpamSignature: req.SpamSignature,
		SpamKey:       req.SpamKey,
		Created:       req.Created,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, messageResponse{MessageNum: messagenum})
}

func (h *Handler) handleMove(w http.ResponseWriter, r *http.Request) {

	messagenum, ok := h.pathUint(w, r, "messagenum")
	if !ok {
		return
	}

	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if err := h.mail.Move(r.Context(), req.UserNum, messagenum, req.SourceFolder, req.TargetFolder); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleFetchCredentials(w http.ResponseWriter, r *http.Request) {

	principal := chi.URLParam(r, "principal")

	record, err := h.auth.Fetch(r.Context(), principal)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := credentialResponse{
		UserNum:  record.UserNum,
		Username: record.Username,
		Locked:   uint8(record.Locked),
	}
	switch record.Credential.Scheme {
	case models.SchemeLegacy:
		resp.Scheme = "legacy"
		resp.LegacyToken = hex.EncodeToString(record.Credential.LegacyToken)
	case models.SchemeStacie:
		resp.Scheme = "stacie"
		resp.Salt = base64.RawURLEncoding.EncodeToString(record.Credential.Salt)
		resp.Verify = base64.RawURLEncoding.EncodeToString(record.Credential.Verification)
		resp.BonusRounds = record.Credential.BonusRounds
	}

	h.writeJSON(w, r, http.StatusOK, resp)
}

func (h *Handler) handleReplaceLegacy(w http.ResponseWriter, r *http.Request) {

	usernum, ok := h.pathUint(w, r, "usernum")
	if !ok {
		return
	}

	var req replaceLegacyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	err := h.auth.ReplaceLegacy(r.Context(), usernum, req.LegacyToken, req.Salt, req.Verify, req.BonusRounds)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetLock(w http.ResponseWriter, r *http.Request) {

	usernum, ok := h.pathUint(w, r, "usernum")
	if !ok {
		return
	}

	var req lockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	h.auth.SetLock(r.Context(), usernum, models.LockStatus(req.Lock))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathUint(w http.ResponseWriter, r *http.Request, name string) (uint64, bool) {
	v, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil || v == 0 {
		http.Error(w, "invalid "+name, http.StatusBadRequest)
		return 0, false
	}
	return v, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error(r.Context(), "failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, common.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, common.ErrConflict):
		http.Error(w, "conflict", http.StatusConflict)
	default:
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
