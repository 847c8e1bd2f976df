package server

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/simplebank/simplebank/internal/middleware"
	"github.com/simplebank/simplebank/internal/models"
	"github.com/simplebank/simplebank/internal/query"
	"github.com/simplebank/simplebank/internal/service"
)

// parseListFilter maps the query string (q, category, sort, page, limit,
// from, to) onto a list filter. Bad page/limit values fall back to
// defaults; bad dates are a validation error.
func parseListFilter(r *http.Request) (query.Filter, error) {
	values := r.URL.Query()

	f := query.Filter{
		Text:     values.Get("q"),
		Category: values.Get("category"),
		Sort:     query.ParseSort(values.Get("sort")),
	}
	if v := values.Get("page"); v != "" {
		if page, err := strconv.Atoi(v); err == nil {
			f.Page = page
		}
	}
	if v := values.Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil {
			f.PageSize = limit
		}
	}
	if v := values.Get("from"); v != "" {
		from, err := query.ParseDate(v, false)
		if err != nil {
			return f, err
		}
		f.From = from
	}
	if v := values.Get("to"); v != "" {
		to, err := query.ParseDate(v, true)
		if err != nil {
			return f, err
		}
		f.To = to
	}

	f.Normalize()
	return f, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())

	f, err := parseListFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	items, total, err := s.txSvc.List(r.Context(), ownerID, f)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"page":  f.Page,
		"limit": f.PageSize,
		"total": total,
	})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())

	var in service.CreateTransactionInput
	if err := decodeJSON(r, &in); err != nil {
		if errors.Is(err, models.ErrInvalidAmount) {
			writeError(w, r, err)
			return
		}
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tx, err := s.txSvc.Create(r.Context(), ownerID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())

	tx, err := s.txSvc.Get(r.Context(), ownerID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())

	var patch models.TransactionPatch
	if err := decodeJSON(r, &patch); err != nil {
		if errors.Is(err, models.ErrInvalidAmount) {
			writeError(w, r, err)
			return
		}
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tx, err := s.txSvc.Update(r.Context(), ownerID, r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())

	if err := s.txSvc.Delete(r.Context(), ownerID, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())
	values := r.URL.Query()

	var from, to int64
	if v := values.Get("from"); v != "" {
		ts, err := query.ParseDate(v, false)
		if err != nil {
			writeError(w, r, err)
			return
		}
		from = ts
	}
	if v := values.Get("to"); v != "" {
		ts, err := query.ParseDate(v, true)
		if err != nil {
			writeError(w, r, err)
			return
		}
		to = ts
	}

	rows, err := s.txSvc.Summary(r.Context(), ownerID, from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())

	f, err := parseListFilter(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// Buffer the document so store failures still map to a clean error
	// response instead of a truncated body.
	var buf bytes.Buffer
	if err := s.txSvc.ExportCSV(r.Context(), ownerID, f, &buf); err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		// Client went away mid-download; nothing left to send.
		return
	}
}

func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, s.importMaxBytes)
	if err := r.ParseMultipartForm(s.importMaxBytes); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid or oversized upload")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	inserted, err := s.txSvc.ImportCSV(r.Context(), ownerID, file)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"inserted": inserted})
}
