package httpapi

import (
	"net/http"
	"time"

	"studio/internal/http/handlers"
	"studio/internal/infra"
	"studio/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type Options struct {
	Logger          infra.Logger
	AllowedOrigins  []string
	RateLimitPerMin int
	CountryLookup   middleware.CountryLookup
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.I18N("en", opts.CountryLookup),
	)
	if opts.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
	}

	r.Get("/v1/healthz", app.Health)

	r.Post("/v1/styles/generate", app.StylesGenerate)

	r.Route("/v1/videos", func(r chi.Router) {
		r.Post("/", app.VideosCreate)
		r.Get("/{job_id}", app.VideoStatus)
		r.Get("/{job_id}/download", app.VideoDownload)
	})

	r.Post("/v1/coupons/apply", app.CouponsApply)

	r.Get("/v1/transactions/{payment_id}", app.TransactionStatus)

	return r
}
