package controller

import (
	"encoding/json"
	"net/http"

	"github.com/unclebandit/membercast/internal/translate"
)

type TranslateController struct {
	Translator translate.Translator
}

func (c *TranslateController) Translate(w http.ResponseWriter, r *http.Request) {
	var body translate.Request
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, c.Translator.Translate(r.Context(), body))
}
