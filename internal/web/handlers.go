package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/csvgrid/csvgrid/internal/core"
	"github.com/csvgrid/csvgrid/internal/dataset"
	"github.com/csvgrid/csvgrid/internal/logging"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Ping(r.Context()); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUpload ingests a CSV file into a new dataset. The file arrives as
// the "file" part of a multipart form, or as the raw request body.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	data, name, err := readUpload(r, s.cfg.Upload.MaxFileSize)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if n := r.FormValue("name"); n != "" {
		name = n
	}

	ds, err := s.service.UploadCSV(r.Context(), core.UserIDFromContext(r.Context()), name, data)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, ds)
}

// readUpload extracts the CSV bytes from the request.
func readUpload(r *http.Request, maxSize int64) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxSize+1)

	if err := r.ParseMultipartForm(maxSize); err == nil {
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", fmt.Errorf("%w: no file provided", dataset.ErrParse)
		}
		defer file.Close()
		data, err := readAll(file, maxSize)
		if err != nil {
			return nil, "", err
		}
		return data, header.Filename, nil
	}

	// Not multipart: the body is the CSV itself.
	data, err := readAll(r.Body, maxSize)
	if err != nil {
		return nil, "", err
	}
	return data, "", nil
}

func readAll(src io.Reader, maxSize int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(src, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read upload: %v", dataset.ErrParse, err)
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%w: file too large (limit %d bytes)", dataset.ErrParse, maxSize)
	}
	return data, nil
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.service.ListDatasets(r.Context(), core.UserIDFromContext(r.Context()))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if list == nil {
		list = []*dataset.Dataset{}
	}
	writeJSON(w, r, http.StatusOK, list)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := datasetID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	ds, err := s.service.Dataset(r.Context(), core.UserIDFromContext(r.Context()), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, ds)
}

// handleData serves one page of filtered, sorted rows.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	id, err := datasetID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	req, err := parseQueryRequest(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	res, err := s.service.Data(r.Context(), core.UserIDFromContext(r.Context()), id, req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

// handleExport streams the full dataset as a CSV download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id, err := datasetID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	ctx := r.Context()
	userID := core.UserIDFromContext(ctx)

	// Resolve the dataset before writing headers, so errors still get a
	// proper status.
	ds, err := s.service.Dataset(ctx, userID, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ds.Name))

	if err := s.service.Export(ctx, userID, id, w); err != nil {
		// Headers are already sent; all we can do is log.
		logging.FromContext(ctx).Error("export failed", "dataset_id", id, "error", err)
	}
}

func (s *Server) handleNullRows(w http.ResponseWriter, r *http.Request) {
	id, err := datasetID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	page, limit, err := parsePagination(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	res, err := s.service.NullRows(r.Context(), core.UserIDFromContext(r.Context()), id, page, limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

type renameRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (s *Server) handleRenameColumn(w http.ResponseWriter, r *http.Request) {
	id, err := datasetID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: invalid rename body: %v", dataset.ErrInvalidColumn, err))
		return
	}

	ds, err := s.service.RenameColumn(r.Context(), core.UserIDFromContext(r.Context()), id, req.From, req.To)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, ds)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := datasetID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.service.DeleteDataset(r.Context(), core.UserIDFromContext(r.Context()), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func datasetID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "datasetID"))
	if err != nil {
		return uuid.Nil, dataset.ErrNotFound
	}
	return id, nil
}
