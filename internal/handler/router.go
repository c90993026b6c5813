// Package handler assembles the HTTP API.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/unclebandit/membercast/internal/controller"
	"github.com/unclebandit/membercast/internal/metrics"
)

// Deps are the controllers and plumbing the router mounts.
type Deps struct {
	Members   *controller.MemberController
	Imports   *controller.ImportController
	Campaigns *controller.CampaignController
	Settings  *controller.SettingsController
	SMS       *controller.SMSController
	Translate *controller.TranslateController

	Logger         *zap.Logger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
}

func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(Instrument(d.Metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	// Member routes
	if c := d.Members; c != nil {
		r.Get("/members", c.ListMembers)
		r.Post("/members", c.CreateMember)
		r.Get("/members/export", c.ExportMembers)
		r.Get("/members/{id}", c.GetMember)
		r.Put("/members/{id}", c.UpdateMember)
		r.Delete("/members/{id}", c.DeleteMember)
	}

	// Import routes
	if c := d.Imports; c != nil {
		r.Post("/imports/file", c.UploadFile)
		r.Post("/imports/text", c.ParseText)
		r.Post("/imports/{session}/commit", c.Commit)
	}

	// Campaign routes
	if c := d.Campaigns; c != nil {
		r.Post("/campaigns", c.CreateCampaign)
		r.Get("/campaigns", c.ListCampaigns)
		r.Get("/campaigns/{id}", c.GetCampaignDetails)
		r.Delete("/campaigns/{id}", c.DeleteCampaign)
		r.Post("/campaigns/{id}/send", c.SendCampaign)
		r.Get("/stats", c.DashboardStats)
	}

	// Settings routes
	if c := d.Settings; c != nil {
		r.Get("/settings/twilio", c.GetTwilio)
		r.Put("/settings/twilio", c.SaveTwilio)
		r.Get("/settings/{key}", c.GetSetting)
		r.Put("/settings/{key}", c.SetSetting)
	}

	if c := d.SMS; c != nil {
		r.Post("/sms/send", c.SendSMS)
		r.Post("/sms/test", c.SendTest)
	}
	if c := d.Translate; c != nil {
		r.Post("/translate", c.Translate)
	}

	return r
}
