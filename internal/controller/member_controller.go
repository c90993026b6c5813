package controller

import (
	"encoding/json"
	"net/http"

	"github.com/unclebandit/membercast/internal/model"
	"github.com/unclebandit/membercast/internal/service"
)

type MemberController struct {
	MemberService *service.MemberService
}

func (c *MemberController) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := c.MemberService.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (c *MemberController) GetMember(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.Error(w, "invalid member id", http.StatusBadRequest)
		return
	}
	m, err := c.MemberService.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (c *MemberController) CreateMember(w http.ResponseWriter, r *http.Request) {
	var body model.MemberInput
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	m, err := c.MemberService.Create(r.Context(), body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (c *MemberController) UpdateMember(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.Error(w, "invalid member id", http.StatusBadRequest)
		return
	}
	var body model.MemberInput
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	m, err := c.MemberService.Update(r.Context(), id, body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (c *MemberController) DeleteMember(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.Error(w, "invalid member id", http.StatusBadRequest)
		return
	}
	if err := c.MemberService.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportMembers streams the member list as CSV (default) or XLSX.
func (c *MemberController) ExportMembers(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	switch format {
	case "", service.ExportCSV:
		format = service.ExportCSV
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	case service.ExportXLSX:
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	default:
		http.Error(w, "format must be csv or xlsx", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="members.`+format+`"`)

	if err := c.MemberService.Export(r.Context(), w, format); err != nil {
		writeError(w, err)
	}
}
