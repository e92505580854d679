package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/clarus/internal/advisor"
	"github.com/dukerupert/clarus/internal/auth"
	"github.com/dukerupert/clarus/internal/model"
	"github.com/dukerupert/clarus/internal/store"
	"github.com/dukerupert/clarus/internal/websocket"
)

const (
	maxUploadSize = 20 << 20

	// prescriptionRefills is the refill count given to medications read
	// off a prescription.
	prescriptionRefills = 3
)

// Analyzer extracts structured findings from an uploaded document.
type Analyzer interface {
	AnalyzeDocument(ctx context.Context, data []byte, mimeType string, kind model.ReportType) (advisor.Analysis, error)
}

type ReportHandler struct {
	broadcaster
	store    *store.Store
	analyzer Analyzer
	logger   *slog.Logger
	now      func() time.Time
}

func NewReportHandler(st *store.Store, analyzer Analyzer, hub *websocket.Hub, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{broadcaster: broadcaster{hub}, store: st, analyzer: analyzer, logger: logger, now: time.Now}
}

func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	reports, err := h.store.Reports(auth.Namespace(r.Context()), r.URL.Query().Get("member_id"))
	if err != nil {
		h.logger.Error("list reports", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list reports")
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

type analyzeResponse struct {
	Report      model.MedicalReport `json:"report"`
	Medications []model.Medication  `json:"medications"`
}

// Analyze reads a multipart upload (file, type, member_id), runs document
// analysis and stores the resulting report. Medications found on a
// prescription are added to the member's list.
func (h *ReportHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	kind := model.ReportType(r.FormValue("type"))
	if kind == "" {
		writeError(w, http.StatusBadRequest, "type is required")
		return
	}
	memberID := r.FormValue("member_id")
	if memberID == "" {
		writeError(w, http.StatusBadRequest, "member_id is required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "file is empty")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(mimeType); err != nil || mt == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	} else {
		mimeType = mt
	}
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}

	ns := auth.Namespace(r.Context())
	member, err := h.store.FamilyMember(ns, memberID)
	if err != nil {
		h.logger.Error("get family member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to analyze document")
		return
	}
	if member == nil {
		writeError(w, http.StatusBadRequest, "unknown family member")
		return
	}

	analysis, err := h.analyzer.AnalyzeDocument(r.Context(), data, mimeType, kind)
	if err != nil {
		var parseErr *advisor.ParseError
		switch {
		case errors.Is(err, advisor.ErrNotConfigured):
			writeError(w, http.StatusServiceUnavailable, "document analysis is not configured")
		case errors.Is(err, advisor.ErrUnsupportedKind):
			writeError(w, http.StatusBadRequest, "unsupported document type")
		case errors.As(err, &parseErr):
			writeError(w, http.StatusUnprocessableEntity, "could not read the document")
		default:
			writeError(w, http.StatusBadGateway, "document analysis failed")
		}
		return
	}

	report := analysis.Report(memberID, newID())
	if report.Date == "" {
		report.Date = today(h.now())
	}

	if _, err := h.store.AddReport(ns, report); err != nil {
		h.logger.Error("add report", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save report")
		return
	}

	added := []model.Medication{}
	if rx, ok := analysis.(*advisor.PrescriptionResult); ok {
		for _, pm := range rx.Medications {
			refills := prescriptionRefills
			med := model.Medication{
				ID:               newID(),
				MemberID:         memberID,
				Name:             pm.Name,
				Strength:         pm.Strength,
				Timing:           pm.Timing,
				Instructions:     pm.Instructions,
				StartDate:        report.Date,
				Active:           true,
				RefillsRemaining: &refills,
			}
			if _, err := h.store.AddMedication(ns, med); err != nil {
				h.logger.Error("add prescribed medication", "error", err)
				writeError(w, http.StatusInternalServerError, "failed to save medications")
				return
			}
			added = append(added, med)
		}
		if len(added) > 0 {
			h.broadcast(ns, "medication", "created", "")
		}
	}

	h.logger.Info("document analyzed", "kind", kind, "report_id", report.ID, "medications", len(added))
	h.broadcast(ns, "report", "created", report.ID)
	writeJSON(w, http.StatusCreated, analyzeResponse{Report: report, Medications: added})
}
