package portal

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/sensdot/sensdot/internal/configstore"
	"github.com/sensdot/sensdot/internal/logging"
	"github.com/sensdot/sensdot/internal/netconn"
)

// saveResponse is the POST /save reply
type saveResponse struct {
	Status   string   `json:"status"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// statusResponse is the GET /api/status reply
type statusResponse struct {
	DeviceID string `json:"device_id"`
	APSSID   string `json:"ap_ssid"`
	Version  string `json:"version"`
	State    string `json:"state"`
}

// scanResponse is the GET /scan reply
type scanResponse struct {
	Networks []netconn.Network `json:"networks"`
}

func (p *Portal) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexPage))
}

func (p *Portal) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		DeviceID: p.id.DeviceID,
		APSSID:   p.id.APSSID(),
		Version:  p.version,
		State:    "configuration",
	})
}

func (p *Portal) handleScan(w http.ResponseWriter, r *http.Request) {
	networks, err := p.scanner.Scan(r.Context())
	if err != nil {
		logging.Warn("WiFi scan failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, saveResponse{
			Status: "error",
			Errors: []string{"scan failed: " + err.Error()},
		})
		return
	}
	writeJSON(w, http.StatusOK, scanResponse{Networks: networks})
}

func (p *Portal) handleSave(w http.ResponseWriter, r *http.Request) {
	var cfg configstore.DeviceConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, saveResponse{
			Status: "error",
			Errors: []string{"malformed request body: " + err.Error()},
		})
		return
	}

	// Fill defaults before validating so an empty port or interval does
	// not read as an operator mistake
	notes := configstore.Normalize(&cfg, p.id)
	for _, note := range notes {
		logging.Debug("Save normalization", zap.String("note", note))
	}

	warnings, criticalErrors := configstore.SeparateWarningsAndErrors(configstore.ValidateConfig(&cfg))
	if len(criticalErrors) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, saveResponse{
			Status:   "invalid",
			Errors:   errorStrings(criticalErrors),
			Warnings: errorStrings(warnings),
		})
		return
	}

	if err := p.store.Commit(&cfg); err != nil {
		logging.Error("Configuration commit failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, saveResponse{
			Status: "error",
			Errors: []string{"failed to persist configuration: " + err.Error()},
		})
		return
	}

	logging.Info("Configuration saved via portal",
		zap.String("ssid", cfg.WiFi.SSID),
		zap.String("broker", cfg.MQTT.Broker),
	)

	writeJSON(w, http.StatusOK, saveResponse{
		Status:   "saved",
		Warnings: errorStrings(warnings),
	})

	// Tell connected pages, then end the portal
	p.hub.broadcast(event{Event: "saved"})
	p.markCommitted()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("Response encode failed", zap.Error(err))
	}
}

func errorStrings(errs []error) []string {
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.Error()
	}
	return out
}
