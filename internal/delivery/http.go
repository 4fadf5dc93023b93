package delivery

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/greenscope/greenscope-api/internal/ndvi"
	"github.com/greenscope/greenscope-api/internal/notification"
)

// Handler adapts the service to HTTP. It owns no pipeline logic beyond
// decoding the request shape and mapping the error taxonomy to status codes.
type Handler struct {
	Service  *Service
	Notifier *notification.Notifier
}

// Router builds the chi router with CORS enabled for browser frontends.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/process-ndvi", h.handleProcessNDVI)
	r.Get("/output/{filename}", h.handleOutputFile)

	return r
}

func (h *Handler) handleProcessNDVI(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := h.Service.ProcessNDVI(r.Context(), req)
	if err != nil {
		h.notifyError(err)
		switch {
		case IsPrecondition(err):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ndvi.ErrNoUsableData):
			// A valid-but-empty outcome, not a server fault.
			writeError(w, http.StatusNotFound, err.Error())
		default:
			log.Printf("process-ndvi failed: %v", err)
			writeError(w, http.StatusInternalServerError, "NDVI processing failed")
		}
		return
	}

	h.notifySuccess(result)
	writeJSON(w, http.StatusOK, result)
}

// handleOutputFile serves generated artifacts. Only base names are accepted,
// so the output directory cannot be escaped.
func (h *Handler) handleOutputFile(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(chi.URLParam(r, "filename"))
	if name == "." || name == "/" || strings.HasPrefix(name, ".") {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}

	switch {
	case strings.HasSuffix(name, ".tif"):
		w.Header().Set("Content-Type", "image/tiff")
	case strings.HasSuffix(name, ".png"):
		w.Header().Set("Content-Type", "image/png")
	case strings.HasSuffix(name, ".csv"):
		w.Header().Set("Content-Type", "text/csv")
	default:
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	http.ServeFile(w, r, filepath.Join(h.Service.OutputDir, name))
}

func (h *Handler) notifyError(err error) {
	if h.Notifier == nil {
		return
	}
	go func() {
		if nerr := h.Notifier.NotifyError(err.Error()); nerr != nil {
			log.Printf("failed to send error notification: %v", nerr)
		}
	}()
}

func (h *Handler) notifySuccess(result *Result) {
	if h.Notifier == nil {
		return
	}
	msg := fmt.Sprintf("Representative image: %s\nSeries points: %d\nRaster: %s",
		result.ImageDate, len(result.GraphData), result.FileURL)
	go func() {
		if nerr := h.Notifier.NotifySuccess(msg); nerr != nil {
			log.Printf("failed to send success notification: %v", nerr)
		}
	}()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
