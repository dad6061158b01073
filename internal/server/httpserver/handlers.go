package httpserver

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/mediavault/internal/api"
	"github.com/dmitrijs2005/mediavault/internal/server/models"
	"github.com/dmitrijs2005/mediavault/internal/server/services"
)

// uploads are streamed; only the metadata fields are size-capped
const maxUploadMemory = 4 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, code := api.StatusAndCode(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, status, api.Error{Code: code, Message: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, api.Error{Code: api.CodeBadRequest, Message: "invalid JSON body"})
		return false
	}
	return true
}

// --- auth ---

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserName == "" || len(req.Salt) == 0 || len(req.Verifier) == 0 {
		writeJSON(w, http.StatusBadRequest, api.Error{Code: api.CodeBadRequest, Message: "username, salt and verifier are required"})
		return
	}
	user, err := s.users.Register(r.Context(), req.UserName, req.Salt, req.Verifier)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, api.RegisterResponse{UserID: user.ID})
}

func (s *Server) handleSalt(w http.ResponseWriter, r *http.Request) {
	var req api.SaltRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	salt, err := s.users.GetSalt(r.Context(), req.UserName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.SaltResponse{Salt: salt})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	pair, err := s.users.Login(r.Context(), req.UserName, req.Verifier)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.TokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req api.RefreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	pair, err := s.users.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.TokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

// --- key registry ---

func (s *Server) handlePublishKeys(w http.ResponseWriter, r *http.Request) {
	var req api.PublishKeysRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	identity, err := s.identity.Publish(r.Context(), userID(r), req.WrapPublicKey, req.SignPublicKey)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, keysResponse(identity))
}

func (s *Server) handleGetKeys(w http.ResponseWriter, r *http.Request) {
	identity, err := s.identity.Get(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, keysResponse(identity))
}

func keysResponse(identity *models.Identity) api.KeysResponse {
	return api.KeysResponse{
		UserID:        identity.UserID,
		WrapPublicKey: identity.WrapPublicKey,
		SignPublicKey: identity.SignPublicKey,
		KeyVersion:    identity.KeyVersion,
		UpdatedAt:     identity.UpdatedAt,
	}
}

// --- media items ---

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeJSON(w, http.StatusBadRequest, api.Error{Code: api.CodeBadRequest, Message: "invalid multipart form"})
		return
	}
	signature, err := base64.StdEncoding.DecodeString(r.FormValue(api.UploadFieldSignature))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, api.Error{Code: api.CodeBadRequest, Message: "invalid signature encoding"})
		return
	}
	wrappedKey, err := base64.StdEncoding.DecodeString(r.FormValue(api.UploadFieldWrappedKey))
	if err != nil || len(wrappedKey) == 0 {
		writeJSON(w, http.StatusBadRequest, api.Error{Code: api.CodeBadRequest, Message: "invalid wrapped key"})
		return
	}
	file, _, err := r.FormFile(api.UploadFieldContent)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, api.Error{Code: api.CodeBadRequest, Message: "content part is required"})
		return
	}
	defer file.Close()

	item, err := s.media.Create(r.Context(), userID(r), file, services.CreateParams{
		Title:           r.FormValue(api.UploadFieldTitle),
		Description:     r.FormValue(api.UploadFieldDescr),
		Digest:          r.FormValue(api.UploadFieldDigest),
		Signature:       signature,
		WrappedKeyOwner: wrappedKey,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, itemResponse(item, true))
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.media.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, itemsResponse(items))
}

func (s *Server) handleListMyItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.media.ListByOwner(r.Context(), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, itemsResponse(items))
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.media.Get(r.Context(), chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, err)
		return
	}
	// the owner's wrapped key is only theirs to see
	writeJSON(w, http.StatusOK, itemResponse(item, item.OwnerID == userID(r)))
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	rc, item, err := s.media.Download(r.Context(), userID(r), chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("X-Content-Hash", item.ContentHash)
	if _, err := io.Copy(w, rc); err != nil {
		s.log.Error(r.Context(), "content stream aborted", "item", item.ID, "err", err)
	}
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	report, err := s.media.Verify(r.Context(), chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.VerifyResponse{
		Digest:         report.Digest,
		DigestMatches:  report.DigestMatches,
		SignatureValid: report.SignatureValid,
	})
}

func itemResponse(item *models.MediaItem, includeOwnerKey bool) api.MediaItem {
	out := api.MediaItem{
		ID:          item.ID,
		OwnerID:     item.OwnerID,
		Title:       item.Title,
		Description: item.Description,
		ContentHash: item.ContentHash,
		CreatedAt:   item.CreatedAt,
	}
	if includeOwnerKey {
		out.WrappedKeyOwner = item.WrappedKeyOwner
	}
	return out
}

func itemsResponse(items []*models.MediaItem) []api.MediaItem {
	out := make([]api.MediaItem, 0, len(items))
	for _, item := range items {
		out = append(out, itemResponse(item, false))
	}
	return out
}

// --- access requests ---

func (s *Server) handleOpenRequest(w http.ResponseWriter, r *http.Request) {
	req, err := s.access.Open(r.Context(), userID(r), chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, requestResponse(req))
}

func (s *Server) handleIncomingRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := s.access.ListForOwner(r.Context(), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, requestsResponse(reqs))
}

func (s *Server) handleOutgoingRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := s.access.ListForRequester(r.Context(), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, requestsResponse(reqs))
}

func (s *Server) handleRequesterKey(w http.ResponseWriter, r *http.Request) {
	identity, err := s.access.RequesterWrapKey(r.Context(), userID(r), chi.URLParam(r, "requestID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, keysResponse(identity))
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req api.ApproveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.WrappedKey) == 0 {
		writeJSON(w, http.StatusBadRequest, api.Error{Code: api.CodeBadRequest, Message: "wrapped_key is required"})
		return
	}
	if err := s.access.Approve(r.Context(), userID(r), chi.URLParam(r, "requestID"), req.WrappedKey); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	if err := s.access.Reject(r.Context(), userID(r), chi.URLParam(r, "requestID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleQueryAccess(w http.ResponseWriter, r *http.Request) {
	access, err := s.access.Query(r.Context(), userID(r), chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, api.AccessResponse{
		Level:      string(access.Level),
		WrappedKey: access.WrappedKey,
	})
}

func requestResponse(req *models.AccessRequest) api.AccessRequest {
	return api.AccessRequest{
		ID:          req.ID,
		ItemID:      req.ItemID,
		RequesterID: req.RequesterID,
		State:       string(req.State),
		CreatedAt:   req.CreatedAt,
		DecidedAt:   req.DecidedAt,
	}
}

func requestsResponse(reqs []*models.AccessRequest) []api.AccessRequest {
	out := make([]api.AccessRequest, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, requestResponse(req))
	}
	return out
}
