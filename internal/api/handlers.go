package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/factcheck/internal/model"
	"github.com/sells-group/factcheck/internal/pipeline"
	"github.com/sells-group/factcheck/internal/store"
)

type createRequest struct {
	Claim string `json:"claim"`
}

type createResponse struct {
	ID     string               `json:"id"`
	Status model.AnalysisStatus `json:"status"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)

	var claimText, mediaPath string
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
			writeError(w, statusForBodyError(err), "invalid multipart body")
			return
		}
		claimText = r.FormValue("claim")
		path, err := s.saveUpload(r)
		if err != nil {
			zap.L().Error("api: save upload", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "could not store media file")
			return
		}
		mediaPath = path
	default:
		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, statusForBodyError(err), "invalid request body")
			return
		}
		claimText = req.Claim
	}

	if strings.TrimSpace(claimText) == "" && mediaPath == "" {
		writeError(w, http.StatusBadRequest, "claim or media is required")
		return
	}

	id, err := s.svc.Submit(r.Context(), claimText, mediaPath)
	if err != nil {
		zap.L().Error("api: submit analysis", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not start analysis")
		return
	}
	writeJSON(w, http.StatusAccepted, createResponse{ID: id, Status: model.AnalysisStatusProcessing})
}

// saveUpload stores the "media" form file under the upload directory with a
// generated name. It returns "" when no file was sent.
func (s *Server) saveUpload(r *http.Request) (string, error) {
	file, header, err := r.FormFile("media")
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", eris.Wrap(err, "api: read form file")
	}
	defer file.Close() //nolint:errcheck

	if err := os.MkdirAll(s.opts.UploadDir, 0o755); err != nil {
		return "", eris.Wrap(err, "api: create upload dir")
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	dst := filepath.Join(s.opts.UploadDir, uuid.NewString()+ext)

	out, err := os.Create(dst)
	if err != nil {
		return "", eris.Wrap(err, "api: create upload file")
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close() //nolint:errcheck
		return "", eris.Wrap(err, "api: write upload file")
	}
	if err := out.Close(); err != nil {
		return "", eris.Wrap(err, "api: close upload file")
	}
	return dst, nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.Result(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeLookupError(w, err)
		return
	}

	switch rec.Status {
	case model.AnalysisStatusComplete:
		writeJSON(w, http.StatusOK, rec.Result)
	case model.AnalysisStatusError:
		writeError(w, http.StatusUnprocessableEntity, rec.Error)
	default:
		writeJSON(w, http.StatusAccepted, rec.View())
	}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	err := s.svc.Delete(r.Context(), chi.URLParam(r, "id"))
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, pipeline.ErrInProgress):
		writeError(w, http.StatusConflict, "analysis is still in progress")
	default:
		s.writeLookupError(w, err)
	}
}

func (s *Server) writeLookupError(w http.ResponseWriter, err error) {
	if store.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "analysis not found")
		return
	}
	zap.L().Error("api: lookup analysis", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "could not read analysis")
}

func statusForBodyError(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}
