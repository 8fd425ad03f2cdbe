package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/navneetkhandelwal/email-campaign-dashboard/internal/campaign"
	"github.com/navneetkhandelwal/email-campaign-dashboard/internal/render"
	"github.com/navneetkhandelwal/email-campaign-dashboard/internal/roster"
)

// maxUploadBytes bounds roster uploads; spreadsheets past this size are
// rejected rather than buffered.
const maxUploadBytes = 10 << 20

type startCampaignRequest struct {
	SenderEmail    string              `json:"senderEmail"`
	AppPassword    string              `json:"appPassword"`
	Template       string              `json:"template"`
	CustomTemplate string              `json:"customTemplate"`
	Recipients     []map[string]string `json:"recipients"`
}

type startCampaignResponse struct {
	JobID string `json:"jobId"`
	Total int    `json:"total"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(w, status, errorResponse{Error: fmt.Sprintf(format, args...)})
}

// HandleStartCampaign accepts either a multipart form with a spreadsheet
// upload or a JSON body with an inline recipient list, validates it, and
// hands the batch to the campaign core. The response returns as soon as the
// job is accepted; delivery progress flows through the progress stream.
func (s *Server) HandleStartCampaign(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseStartRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "%v", err)
		return
	}

	result, err := s.service.Start(r.Context(), req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, startCampaignResponse{
			JobID: result.JobID.String(),
			Total: result.Total,
		})
	case errors.Is(err, campaign.ErrJobActive):
		writeError(w, http.StatusConflict, "a campaign is already running for %s", req.Sender)
	case errors.Is(err, campaign.ErrMissingSender),
		errors.Is(err, campaign.ErrMissingCredential),
		errors.Is(err, campaign.ErrEmptyRecipients),
		errors.Is(err, render.ErrMissingCustomBody),
		errors.Is(err, render.ErrUnknownTemplate):
		writeError(w, http.StatusBadRequest, "%v", err)
	default:
		s.log.Error().Err(err).Msg("campaign start failed")
		writeError(w, http.StatusInternalServerError, "failed to start campaign")
	}
}

func (s *Server) parseStartRequest(r *http.Request) (campaign.StartRequest, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		return s.parseMultipartStart(r)
	}
	return s.parseJSONStart(r)
}

func (s *Server) parseJSONStart(r *http.Request) (campaign.StartRequest, error) {
	var body startCampaignRequest
	if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxUploadBytes)).Decode(&body); err != nil {
		return campaign.StartRequest{}, fmt.Errorf("invalid request body: %w", err)
	}
	if len(body.Recipients) == 0 {
		return campaign.StartRequest{}, errors.New("recipient list is required")
	}
	return campaign.StartRequest{
		Sender:     strings.TrimSpace(body.SenderEmail),
		Credential: body.AppPassword,
		Template:   selector(body.Template),
		CustomBody: body.CustomTemplate,
		Recipients: roster.FromMaps(body.Recipients),
	}, nil
}

func (s *Server) parseMultipartStart(r *http.Request) (campaign.StartRequest, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return campaign.StartRequest{}, fmt.Errorf("invalid multipart form: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return campaign.StartRequest{}, errors.New("recipient file is required")
	}
	defer file.Close()

	var records []roster.Record
	switch ext := strings.ToLower(filepath.Ext(header.Filename)); ext {
	case ".xlsx", ".xls":
		records, err = roster.ParseXLSX(file)
	case ".csv":
		records, err = roster.ParseCSV(file)
	default:
		return campaign.StartRequest{}, fmt.Errorf("unsupported file type %q, expected .xlsx or .csv", ext)
	}
	if err != nil {
		return campaign.StartRequest{}, fmt.Errorf("could not read recipient file: %w", err)
	}

	return campaign.StartRequest{
		Sender:     strings.TrimSpace(r.FormValue("senderEmail")),
		Credential: r.FormValue("appPassword"),
		Template:   selector(r.FormValue("template")),
		CustomBody: r.FormValue("customTemplate"),
		Recipients: records,
	}, nil
}

// selector maps the wire value to a template selector, defaulting to the
// built-in template when the field is omitted.
func selector(raw string) render.Selector {
	if raw == "" {
		return render.TemplateDefault
	}
	return render.Selector(raw)
}
