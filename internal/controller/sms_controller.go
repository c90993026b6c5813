package controller

import (
	"encoding/json"
	"net/http"

	"github.com/unclebandit/membercast/internal/service"
)

type SMSController struct {
	CampaignService *service.CampaignService
}

// SendSMS sends an ad-hoc message to the listed recipients.
func (c *SMSController) SendSMS(w http.ResponseWriter, r *http.Request) {
	var body service.SendRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	res, err := c.CampaignService.SendMessage(r.Context(), body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SendTest sends one message to check the provider settings.
func (c *SMSController) SendTest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Phone   string `json:"phone"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Phone == "" {
		http.Error(w, "phone is required", http.StatusBadRequest)
		return
	}

	res := c.CampaignService.Sender.SendTest(r.Context(), body.Phone, body.Message)
	out := service.SendResult{Success: res.Success, Message: res.Message}
	if res.Success {
		out.SuccessCount = 1
	} else {
		out.ErrorCount = 1
	}
	writeJSON(w, http.StatusOK, out)
}
