package delivery

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/scribe/internal/ports"
	"github.com/go-chi/chi/v5"
)

const maxUploadBytes = 32 << 20

type RecognizeHandler struct {
	svc         ports.RecognizeProcessor
	repo        ports.TranscriptRepository
	defaultLang string
	log         *logger.ZapLogger
}

func NewRecognizeHandler(
	svc ports.RecognizeProcessor,
	repo ports.TranscriptRepository,
	defaultLang string,
	log *logger.ZapLogger,
) *RecognizeHandler {
	return &RecognizeHandler{
		svc:         svc,
		repo:        repo,
		defaultLang: defaultLang,
		log:         log,
	}
}

// POST /api/recognize
func (h *RecognizeHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		http.Error(w, "missing audio file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	lang := r.FormValue("lang")
	if lang == "" {
		lang = h.defaultLang
	}
	roomID := r.FormValue("roomID")
	if roomID == "" {
		roomID = "default"
	}

	tmp, err := os.CreateTemp("", "voice_*"+filepath.Ext(header.Filename))
	if err != nil {
		http.Error(w, "failed to store upload", http.StatusInternalServerError)
		return
	}
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		http.Error(w, "failed to store upload", http.StatusInternalServerError)
		return
	}
	tmp.Close()

	// запрос живёт дольше HTTP-ответа, поэтому фоновый контекст
	t, err := h.svc.Start(context.Background(), tmp.Name(), header.Filename, lang, roomID)
	if err != nil {
		_ = os.Remove(tmp.Name())
		http.Error(w, "failed to start recognition: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "recognition started",
		Fields: map[string]any{
			"transcriptID": t.ID,
			"source":       header.Filename,
			"lang":         lang,
			"room":         roomID,
		},
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"transcriptId": t.ID,
		"status":       t.Status,
	})
}

// GET /api/transcripts/{id}
func (h *RecognizeHandler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	if idStr == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}

	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	t, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		http.Error(w, "failed get transcript: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if t == nil {
		http.Error(w, "transcript not found", http.StatusNotFound)
		return
	}

	h.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "transcript fetched",
		Fields: map[string]any{
			"transcriptID": t.ID,
			"status":       t.Status,
		},
	})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"transcriptId": t.ID,
		"source":       t.SourceName,
		"lang":         t.Lang,
		"status":       t.Status,
		"text":         t.Text,
		"error":        t.Error,
		"createdAt":    t.CreatedAt,
	})
}
