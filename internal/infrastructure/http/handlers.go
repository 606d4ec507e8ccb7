package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/0xcro3dile/exemplar/internal/adapters/loader"
	"github.com/0xcro3dile/exemplar/internal/domain/entities"
	"github.com/0xcro3dile/exemplar/internal/domain/usecases"
)

const (
	msgBadChatBody   = "Please send JSON with a 'message' field."
	msgEmptyMessage  = "Empty message."
	msgNoFilePart    = "No file part. Please send form-data with key 'file'."
	msgEmptyFilename = "Empty filename."
	msgBadFormat     = "File saved but seems not to have expected JSONL format (no input/response or prompt/completion found in first lines)."
	msgUploaded      = "Uploaded and saved."
)

// maxChatBody bounds the /chat request body.
const maxChatBody = 1 << 20

type chatResponse struct {
	Response       string            `json:"response"`
	Source         string            `json:"source"`
	Match          *entities.Example `json:"match,omitempty"`
	Score          int               `json:"score,omitempty"`
	GeneratorError string            `json:"generator_error,omitempty"`
}

type uploadResponse struct {
	OK      bool   `json:"ok"`
	File    string `json:"file"`
	Message string `json:"message"`
}

type inventoryResponse struct {
	Files         []entities.DatasetFile `json:"files"`
	TotalLines    int                    `json:"total_lines"`
	TotalExamples int                    `json:"total_examples"`
}

type healthResponse struct {
	Status             string    `json:"status"`
	Policy             string    `json:"policy"`
	Generator          string    `json:"generator"`
	GeneratorAvailable *bool     `json:"generator_available,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
}

// availabilityChecker is implemented by generators that can probe their backend.
type availabilityChecker interface {
	Available(ctx context.Context) bool
}

// handleChat answers one message.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	msg, ok := decodeMessage(io.LimitReader(r.Body, maxChatBody))
	if !ok {
		writeError(w, http.StatusBadRequest, msgBadChatBody)
		return
	}

	resp, err := s.chat.Reply(r.Context(), &entities.ChatRequest{Message: msg})
	if err != nil {
		if errors.Is(err, usecases.ErrEmptyMessage) {
			writeError(w, http.StatusBadRequest, msgEmptyMessage)
			return
		}
		s.logger.ErrorContext(r.Context(), "chat failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Response:       resp.Response,
		Source:         string(resp.Source),
		Match:          resp.Match,
		Score:          resp.Score,
		GeneratorError: resp.GeneratorError,
	})
}

// decodeMessage extracts "message" from a JSON object regardless of content
// type. Strings are used as-is; other non-null values use their JSON text.
func decodeMessage(r io.Reader) (string, bool) {
	var payload map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return "", false
	}
	raw, ok := payload["message"]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return "", false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", false
	}
	return buf.String(), true
}

// handleUpload streams the multipart "file" field into the dataset directory.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Headroom for multipart boundaries and other fields.
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes+1<<20)

	part, err := filePart(r)
	if err != nil {
		if isTooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, tooLargeMessage(s.opts.MaxUploadBytes))
			return
		}
		writeError(w, http.StatusBadRequest, msgNoFilePart)
		return
	}
	defer part.Close()

	if part.FileName() == "" {
		writeError(w, http.StatusBadRequest, msgEmptyFilename)
		return
	}

	result, err := s.datasets.Upload(r.Context(), part.FileName(), part)
	switch {
	case err == nil:
	case errors.Is(err, usecases.ErrUnsupportedExtension), errors.Is(err, usecases.ErrInvalidFileName):
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Only [%s] allowed.", s.datasets.Extension()))
		return
	case isTooLarge(err):
		writeError(w, http.StatusRequestEntityTooLarge, tooLargeMessage(s.opts.MaxUploadBytes))
		return
	default:
		s.logger.ErrorContext(r.Context(), "upload failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Could not save file.")
		return
	}

	if !result.Valid {
		writeJSON(w, http.StatusOK, map[string]string{"warning": msgBadFormat, "file": result.File})
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{OK: true, File: result.File, Message: msgUploaded})
}

// filePart advances the multipart stream to the "file" field.
func filePart(r *http.Request) (*multipart.Part, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, err
	}
	for {
		part, err := mr.NextPart()
		if err != nil {
			return nil, err
		}
		if part.FormName() == "file" {
			return part, nil
		}
		part.Close()
	}
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe) || errors.Is(err, loader.ErrTooLarge)
}

func tooLargeMessage(limit int64) string {
	return fmt.Sprintf("File too large (max %d bytes).", limit)
}

// handleListDatasets reports every dataset file with counts.
func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	inv, err := s.datasets.List(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "listing datasets", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Could not list datasets.")
		return
	}
	files := inv.Files
	if files == nil {
		files = []entities.DatasetFile{}
	}
	writeJSON(w, http.StatusOK, inventoryResponse{
		Files:         files,
		TotalLines:    inv.TotalLines,
		TotalExamples: inv.TotalExamples,
	})
}

// handleDownload sends one dataset file as an attachment.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("file")
	path, err := s.datasets.Open(name)
	if err != nil {
		if errors.Is(err, usecases.ErrFileNotFound) {
			writeError(w, http.StatusNotFound, "File not found.")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	w.Header().Set("Content-Type", "application/x-ndjson")
	http.ServeFile(w, r, path)
}

// handleReload refreshes the snapshot dataset.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	report, err := s.datasets.Reload(r.Context())
	if err != nil {
		if errors.Is(err, usecases.ErrNoSnapshot) {
			writeError(w, http.StatusConflict, "Datasets are read on every request; nothing to reload.")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "report": report})
}

// handleHealth reports the load policy and generator in use.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		Policy:    s.chat.Policy(),
		Generator: s.chat.GeneratorName(),
		Timestamp: time.Now(),
	}
	if ac, ok := s.generator.(availabilityChecker); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		up := ac.Available(ctx)
		resp.GeneratorAvailable = &up
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": strings.TrimSpace(msg)})
}
