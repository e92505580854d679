package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/dukerupert/clarus/internal/gemini"
	"github.com/dukerupert/clarus/internal/model"
)

// Analysis is the structured result of a document analysis. The concrete
// type is *LabResult, *ScanResult or *PrescriptionResult.
type Analysis interface {
	Kind() model.ReportType
	Report(memberID, id string) model.MedicalReport
}

type findings struct {
	Title    string          `json:"title"`
	Date     string          `json:"date"`
	Summary  string          `json:"summary"`
	Insights []model.Insight `json:"insights"`
}

func (f findings) report(kind model.ReportType, memberID, id string) model.MedicalReport {
	insights := f.Insights
	if insights == nil {
		insights = []model.Insight{}
	}
	return model.MedicalReport{
		ID:       id,
		MemberID: memberID,
		Type:     kind,
		Title:    f.Title,
		Date:     f.Date,
		Summary:  f.Summary,
		Insights: insights,
	}
}

type LabResult struct{ findings }

func (r *LabResult) Kind() model.ReportType { return model.ReportLab }
func (r *LabResult) Report(memberID, id string) model.MedicalReport {
	return r.report(model.ReportLab, memberID, id)
}

type ScanResult struct{ findings }

func (r *ScanResult) Kind() model.ReportType { return model.ReportScan }
func (r *ScanResult) Report(memberID, id string) model.MedicalReport {
	return r.report(model.ReportScan, memberID, id)
}

// PrescribedMedication is one line read off a prescription.
type PrescribedMedication struct {
	Name         string `json:"name"`
	Strength     string `json:"strength"`
	Timing       string `json:"timing"`
	Instructions string `json:"instructions"`
}

type PrescriptionResult struct {
	findings
	Medications []PrescribedMedication `json:"medications"`
}

func (r *PrescriptionResult) Kind() model.ReportType { return model.ReportPrescription }
func (r *PrescriptionResult) Report(memberID, id string) model.MedicalReport {
	return r.report(model.ReportPrescription, memberID, id)
}

// ParseError reports model output that did not match the expected shape.
type ParseError struct {
	Kind model.ReportType
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("analyze %s: unusable model output: %v", e.Kind, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

const findingsProperties = `
	"title": {"type": "string"},
	"date": {"type": "string"},
	"summary": {"type": "string"},
	"insights": {
		"type": "array",
		"items": {
			"type": "object",
			"required": ["label", "value", "status"],
			"properties": {
				"label": {"type": "string"},
				"value": {"type": "string"},
				"status": {"enum": ["high", "low", "normal"]},
				"explanation": {"type": "string"}
			}
		}
	}`

var findingsSchema = mustSchema(`{
	"type": "object",
	"required": ["title", "summary", "insights"],
	"properties": {` + findingsProperties + `}
}`)

var prescriptionSchema = mustSchema(`{
	"type": "object",
	"required": ["title", "summary", "medications"],
	"properties": {` + findingsProperties + `,
		"medications": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["name"],
				"properties": {
					"name": {"type": "string", "minLength": 1},
					"strength": {"type": "string"},
					"timing": {"type": "string"},
					"instructions": {"type": "string"}
				}
			}
		}
	}
}`)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compile schema: %v", err))
	}
	return s
}

type documentKind struct {
	prompt string
	schema *gojsonschema.Schema
	decode func([]byte) (Analysis, error)
}

var documentKinds = map[model.ReportType]documentKind{
	model.ReportLab: {
		prompt: `Analyze this LAB REPORT. Extract test names, values, and status (High/Low/Normal).
Return JSON: { "title": string, "date": string, "summary": string, "insights": [{ "label": string, "value": string, "status": "high"|"low"|"normal", "explanation": string }] }`,
		schema: findingsSchema,
		decode: decodeInto[*LabResult](func() *LabResult { return &LabResult{} }),
	},
	model.ReportScan: {
		prompt: `Analyze this MEDICAL SCAN/X-RAY report/image text. Extract findings.
Return JSON: { "title": string, "date": string, "summary": string, "insights": [{ "label": string, "value": string, "status": "normal"|"high"|"low", "explanation": string }] }`,
		schema: findingsSchema,
		decode: decodeInto[*ScanResult](func() *ScanResult { return &ScanResult{} }),
	},
	model.ReportPrescription: {
		prompt: `Analyze this PRESCRIPTION. Extract medications. DO NOT invent dosages.
Return JSON: { "title": string, "date": string, "summary": string, "insights": [], "medications": [{ "name": string, "strength": string, "timing": string, "instructions": string }] }`,
		schema: prescriptionSchema,
		decode: decodeInto[*PrescriptionResult](func() *PrescriptionResult { return &PrescriptionResult{} }),
	},
}

func decodeInto[T Analysis](alloc func() T) func([]byte) (Analysis, error) {
	return func(data []byte) (Analysis, error) {
		v := alloc()
		if err := json.Unmarshal(data, v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

// AnalyzeDocument extracts structured findings from a lab report, scan or
// prescription. Output that fails schema validation yields a *ParseError.
func (s *Service) AnalyzeDocument(ctx context.Context, data []byte, mimeType string, kind model.ReportType) (Analysis, error) {
	if !s.configured() {
		return nil, ErrNotConfigured
	}
	dk, ok := documentKinds[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
	}

	resp, err := s.gen.GenerateContent(ctx, &gemini.Request{
		Model: s.cfg.FastModel,
		Contents: []gemini.Content{{
			Role:  "user",
			Parts: []gemini.Part{gemini.InlineData(mimeType, data), {Text: dk.prompt}},
		}},
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		s.logger.Error("document analysis failed", "kind", kind, "error", err)
		return nil, fmt.Errorf("analyze %s: %w", kind, err)
	}

	analysis, err := parseAnalysis(dk, resp.Text())
	if err != nil {
		s.logger.Warn("rejected document analysis", "kind", kind, "error", err)
		return nil, &ParseError{Kind: kind, Err: err}
	}
	return analysis, nil
}

func parseAnalysis(dk documentKind, text string) (Analysis, error) {
	raw := stripFence(text)
	if raw == "" {
		return nil, fmt.Errorf("empty response")
	}
	if !json.Valid([]byte(raw)) {
		return nil, fmt.Errorf("response is not JSON")
	}

	result, err := dk.schema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		if len(errs) > 3 {
			errs = append(errs[:3], fmt.Sprintf("and %d more", len(errs)-3))
		}
		return nil, fmt.Errorf("schema validation failed: %s", strings.Join(errs, "; "))
	}

	return dk.decode([]byte(raw))
}

// stripFence removes a surrounding ```json ... ``` fence if present.
func stripFence(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	t = strings.TrimPrefix(t, "json")
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t)
}
