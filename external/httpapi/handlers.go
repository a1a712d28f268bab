package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/airchat/globaltalk/internal/config"
	"github.com/airchat/globaltalk/internal/relay"
	"github.com/airchat/globaltalk/internal/repository"
	"github.com/airchat/globaltalk/internal/storage"
	"github.com/airchat/globaltalk/internal/translate"
)

const (
	maxFileSize     = 20 << 20
	maxUploadMemory = 32 << 20
	maxHistoryLimit = 100
)

// allowedMimeTypes restricts uploads to images and common document formats.
var allowedMimeTypes = map[string]struct{}{
	"image/jpeg":    {},
	"image/png":     {},
	"image/gif":     {},
	"image/webp":    {},
	"image/svg+xml": {},
	"image/bmp":     {},
	"image/tiff":    {},
	"image/apng":    {},
	"image/avif":    {},
	"image/heic":    {},
	"image/heif":    {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"application/vnd.ms-excel": {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": {},
	"application/pdf": {},
	"text/plain":      {},
	"application/rtf": {},
}

// Translator is the translation gateway as the HTTP surface sees it.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string, toneUnderstanding bool) (translate.Result, error)
}

// RelayService is the slice of the coordinator the HTTP surface needs.
type RelayService interface {
	DeleteMessage(ctx context.Context, requesterID, messageID string) error
	BroadcastFileDeleted(fileID string)
}

type Handlers struct {
	cfg        *config.Config
	repo       repository.Repository
	blobs      storage.BlobStore
	translator Translator
	relay      RelayService
}

func NewHandlers(cfg *config.Config, repo repository.Repository, blobs storage.BlobStore, translator Translator, relaySvc RelayService) *Handlers {
	return &Handlers{cfg: cfg, repo: repo, blobs: blobs, translator: translator, relay: relaySvc}
}

type translateRequest struct {
	Text              json.RawMessage `json:"text"`
	TargetLang        string          `json:"targetLang"`
	TargetLangAlt     string          `json:"target_lang"`
	ToneUnderstanding bool            `json:"toneUnderstanding"`
}

type translateResponse struct {
	Translation string `json:"translation"`
	Source      string `json:"source"`
	Tone        string `json:"tone,omitempty"`
}

func (h *Handlers) Translate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	text, err := decodeTextField(req.Text)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid text field", err.Error())
		return
	}
	targetLang := req.TargetLang
	if targetLang == "" {
		targetLang = req.TargetLangAlt
	}
	if strings.TrimSpace(text) == "" {
		writeError(w, http.StatusBadRequest, "text is required", "")
		return
	}
	if strings.TrimSpace(targetLang) == "" {
		writeError(w, http.StatusBadRequest, "targetLang is required", "")
		return
	}

	result, err := h.translator.Translate(r.Context(), text, targetLang, req.ToneUnderstanding)
	if err != nil {
		if errors.Is(err, translate.ErrAllProvidersFailed) {
			writeError(w, http.StatusBadGateway, "translation failed", "all providers failed")
			return
		}
		slog.Error("translation request failed", "error", err, "target_lang", targetLang)
		writeError(w, http.StatusInternalServerError, "translation failed", "")
		return
	}
	writeJSON(w, http.StatusOK, translateResponse{
		Translation: result.Translation,
		Source:      result.Source,
		Tone:        result.Tone,
	})
}

// decodeTextField accepts both a plain string and a single-element string
// array; clients have historically sent either shape.
func decodeTextField(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return "", errors.New("text must be a string or an array of strings")
	}
	return strings.Join(list, "\n"), nil
}

type uploadedFileResponse struct {
	FileID   string `json:"fileId"`
	Name     string `json:"name"`
	MimeType string `json:"mimetype"`
	Size     int64  `json:"size"`
	URL      string `json:"url"`
}

type uploadResponse struct {
	Success bool                   `json:"success"`
	Files   []uploadedFileResponse `json:"files"`
	Errors  []string               `json:"errors,omitempty"`
}

func (h *Handlers) UploadMultiple(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request", err.Error())
		return
	}
	userID := r.FormValue("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required", "")
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "no files provided", "")
		return
	}

	resp := uploadResponse{Success: true, Files: []uploadedFileResponse{}}
	for _, fh := range headers {
		mimeType := fh.Header.Get("Content-Type")
		if _, ok := allowedMimeTypes[mimeType]; !ok {
			resp.Errors = append(resp.Errors, fh.Filename+": file type not allowed")
			continue
		}
		if fh.Size > maxFileSize {
			resp.Errors = append(resp.Errors, fh.Filename+": file exceeds size limit")
			continue
		}
		src, err := fh.Open()
		if err != nil {
			resp.Errors = append(resp.Errors, fh.Filename+": could not read upload")
			continue
		}
		saved, err := h.blobs.Save(r.Context(), fh.Filename, mimeType, src)
		_ = src.Close()
		if err != nil {
			slog.Error("failed to store uploaded file", "error", err, "file_name", fh.Filename)
			resp.Errors = append(resp.Errors, fh.Filename+": storage failed")
			continue
		}
		if err := h.repo.CreateFile(r.Context(), repository.FileRef{
			FileID:   saved.FileID,
			Name:     saved.Name,
			MimeType: saved.MimeType,
			Size:     saved.Size,
			URL:      saved.URL,
			UserID:   userID,
		}); err != nil {
			slog.Error("failed to record uploaded file", "error", err, "file_id", saved.FileID)
			_ = h.blobs.Delete(r.Context(), saved.FileID)
			resp.Errors = append(resp.Errors, fh.Filename+": storage failed")
			continue
		}
		resp.Files = append(resp.Files, uploadedFileResponse{
			FileID:   saved.FileID,
			Name:     saved.Name,
			MimeType: saved.MimeType,
			Size:     saved.Size,
			URL:      saved.URL,
		})
	}
	if len(resp.Files) == 0 {
		resp.Success = false
	}
	writeJSON(w, http.StatusOK, resp)
}

// DeleteFile removes a file after an ownership check, strips its reference
// from every message that embeds it, and announces the deletion. Owning
// messages are otherwise left intact.
func (h *Handlers) DeleteFile(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required", "")
		return
	}

	file, err := h.repo.GetFile(r.Context(), fileID)
	if err != nil {
		slog.Error("failed to look up file", "error", err, "file_id", fileID)
		writeError(w, http.StatusInternalServerError, "file lookup failed", "")
		return
	}
	if file == nil {
		writeError(w, http.StatusNotFound, "file not found", "")
		return
	}
	if file.UserID != userID {
		writeError(w, http.StatusForbidden, "permission denied", "only the owner can delete a file")
		return
	}

	// The record is the ownership source of truth, so it goes first; a blob
	// failure after that leaves unreferenced garbage rather than message file
	// refs pointing at a dead URL.
	if err := h.repo.DeleteFile(r.Context(), fileID); err != nil {
		slog.Error("failed to delete file record", "error", err, "file_id", fileID)
		writeError(w, http.StatusInternalServerError, "file deletion failed", "")
		return
	}
	if err := h.blobs.Delete(r.Context(), fileID); err != nil {
		slog.Error("failed to delete blob", "error", err, "file_id", fileID)
	}
	affected, err := h.repo.RemoveFileFromMessages(r.Context(), fileID)
	if err != nil {
		slog.Error("failed to retract file from messages", "error", err, "file_id", fileID)
	} else if len(affected) > 0 {
		slog.Info("file retracted from messages", "file_id", fileID, "message_count", len(affected))
	}
	h.relay.BroadcastFileDeleted(fileID)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handlers) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	messageID := chi.URLParam(r, "messageID")
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required", "")
		return
	}

	err := h.relay.DeleteMessage(r.Context(), userID, messageID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	case errors.Is(err, relay.ErrMessageNotFound):
		writeError(w, http.StatusNotFound, "message not found", "")
	case errors.Is(err, relay.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, "permission denied", "only the owner can delete a message")
	default:
		slog.Error("message deletion failed", "error", err, "message_id", messageID)
		writeError(w, http.StatusInternalServerError, "message deletion failed", "")
	}
}

type historyResponse struct {
	Messages []relay.MessagePayload `json:"messages"`
	Page     int                    `json:"page"`
	Limit    int                    `json:"limit"`
	Total    int                    `json:"total"`
}

func (h *Handlers) MessageHistory(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := queryInt(r, "limit", h.cfg.HistoryWindow)
	if limit < 1 {
		limit = 1
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	messages, total, err := h.repo.ListMessagesPage(r.Context(), page, limit)
	if err != nil {
		slog.Error("failed to load message history page", "error", err, "page", page)
		writeError(w, http.StatusInternalServerError, "history lookup failed", "")
		return
	}
	payloads := make([]relay.MessagePayload, 0, len(messages))
	for i := range messages {
		payloads = append(payloads, relay.NewMessagePayload(&messages[i]))
	}
	writeJSON(w, http.StatusOK, historyResponse{
		Messages: payloads,
		Page:     page,
		Limit:    limit,
		Total:    total,
	})
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, errorResponse{Error: message, Details: details})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}
