package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"voyago/docs" //this is required to generate swagger docs
	"voyago/internal/auth"
	"voyago/internal/config"
	"voyago/internal/domain/admins"
	"voyago/internal/domain/bookings"
	"voyago/internal/domain/dashboard"
	"voyago/internal/domain/storage"
	"voyago/internal/events"
	"voyago/internal/mailer"
	"voyago/internal/metrics"
	"voyago/internal/ratelimiter"
)

type application struct {
	config        config.Config
	store         *storage.Container
	refs          *bookings.ReferenceCoder
	dashboard     *dashboard.Service
	logger        *zap.SugaredLogger
	images        ImageUploader
	mailer        mailer.Client
	events        events.Publisher
	authenticator auth.Authenticator
	rateLimiter   ratelimiter.Limiter
	now           func() time.Time
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{app.config.FrontendURL, "https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	//Set a timeout value on the request context (ctx), that will signal through ctx.Done() that the request has timed out and further processing should be stopped
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)
		r.Get("/metrics", promhttp.Handler().ServeHTTP)

		docsURL := fmt.Sprintf("%s/swagger/doc.json", app.config.Addr)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

		// Public routes
		r.Route("/destinations", func(r chi.Router) {
			r.Get("/", app.listDestinationsHandler)
			r.Get("/featured", app.featuredDestinationsHandler)
			r.Get("/{slug}", app.getDestinationBySlugHandler)
		})
		r.Route("/guides", func(r chi.Router) {
			r.Get("/", app.listGuidesHandler)
			r.Get("/{id}", app.getGuideHandler)
		})
		r.Get("/community", app.communityHandler)

		r.Group(func(r chi.Router) {
			r.Use(app.RateLimiterMiddleware)
			r.Post("/contact", app.createContactHandler)
			r.Post("/reviews", app.submitReviewHandler)
			r.Post("/bookings/request", app.requestBookingHandler)
			r.Post("/auth/login", app.loginHandler)
			r.Post("/auth/refresh", app.refreshTokenHandler)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)

			r.Get("/me", app.meHandler)

			r.Route("/bookings", func(r chi.Router) {
				r.Get("/", app.listBookingsHandler)
				r.Post("/", app.createBookingHandler)
				r.Get("/stats", app.bookingStatsHandler)
				r.Get("/reference/{reference}", app.getBookingByReferenceHandler)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", app.getBookingHandler)
					r.Patch("/", app.updateBookingHandler)
					r.With(app.RequireRole(admins.RoleAdmin)).Delete("/", app.deleteBookingHandler)
				})
			})

			r.Route("/destinations", func(r chi.Router) {
				r.Get("/", app.listDestinationsHandler)
				r.Post("/", app.createDestinationHandler)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", app.getDestinationHandler)
					r.Patch("/", app.updateDestinationHandler)
					r.Post("/image", app.uploadDestinationImageHandler)
					r.With(app.RequireRole(admins.RoleAdmin)).Delete("/", app.deleteDestinationHandler)
				})
			})

			r.Route("/guides", func(r chi.Router) {
				r.Get("/", app.listGuidesHandler)
				r.Post("/", app.createGuideHandler)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", app.getGuideHandler)
					r.Patch("/", app.updateGuideHandler)
					r.Post("/image", app.uploadGuideImageHandler)
					r.With(app.RequireRole(admins.RoleAdmin)).Delete("/", app.deleteGuideHandler)
				})
			})

			r.Route("/reviews", func(r chi.Router) {
				r.Get("/", app.listReviewsHandler)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", app.getReviewHandler)
					r.Patch("/", app.updateReviewHandler)
					r.With(app.RequireRole(admins.RoleAdmin)).Delete("/", app.deleteReviewHandler)
				})
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", app.listNotificationsHandler)
				r.Post("/", app.createNotificationHandler)
				r.Get("/stats", app.notificationStatsHandler)
				r.Post("/read-all", app.markAllNotificationsReadHandler)
				r.Patch("/{id}/read", app.markNotificationReadHandler)
				r.Delete("/{id}", app.deleteNotificationHandler)
			})

			r.Route("/dashboard", func(r chi.Router) {
				r.Get("/", app.dashboardHandler)
				r.Get("/destinations", app.destinationStatsHandler)
				r.Get("/guides", app.guideStatsHandler)
				r.Get("/reviews", app.reviewStatsHandler)
			})

			r.Route("/push-tokens", func(r chi.Router) {
				r.Post("/", app.savePushTokenHandler)
				r.Delete("/", app.removePushTokenHandler)
			})
		})
	})
	return r
}

func (app *application) run(mux http.Handler) error {
	// Docs
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.ExternalURL
	docs.SwaggerInfo.BasePath = "/v1"

	srv := &http.Server{
		Addr:         app.config.Addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	return app.serve(srv, quit)
}

// serve blocks until srv fails to listen or a signal on quit has drained it.
// A clean shutdown returns nil.
func (app *application) serve(srv *http.Server, quit <-chan os.Signal) error {
	shutdown := make(chan error, 1)

	go func() {
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.Addr, "env", app.config.Env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.Addr, "env", app.config.Env)

	return nil
}
