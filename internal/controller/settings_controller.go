package controller

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/membercast/internal/model"
	"github.com/unclebandit/membercast/internal/service"
)

type SettingsController struct {
	SettingsService *service.SettingsService
}

func (c *SettingsController) GetSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	value, err := c.SettingsService.Get(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.Setting{Key: key, Value: value})
}

func (c *SettingsController) SetSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var body struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := c.SettingsService.Set(r.Context(), key, body.Value); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.Setting{Key: key, Value: body.Value})
}

func (c *SettingsController) GetTwilio(w http.ResponseWriter, r *http.Request) {
	t, err := c.SettingsService.TwilioSettings(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"settings":   t,
		"configured": t.IsConfigured(),
	})
}

func (c *SettingsController) SaveTwilio(w http.ResponseWriter, r *http.Request) {
	var body model.TwilioSettings
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := c.SettingsService.SaveTwilioSettings(r.Context(), body); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"settings":   body,
		"configured": body.IsConfigured(),
	})
}
