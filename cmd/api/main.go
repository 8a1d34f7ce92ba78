package main

import (
	"context"
	"expvar"
	"log"
	"runtime"

	"voyago/internal/auth"
	"voyago/internal/cache"
	"voyago/internal/config"
	"voyago/internal/db"
	"voyago/internal/domain/bookings"
	"voyago/internal/domain/dashboard"
	"voyago/internal/domain/storage"
	"voyago/internal/events"
	"voyago/internal/logger"
	"voyago/internal/mailer"
	"voyago/internal/ratelimiter"
)

//	@title			Voyago API
//	@description	Travel booking API and admin dashboard for Voyago.

//	@contact.name	Voyago Engineering
//	@contact.email	engineering@voyago.travel

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@BasePath					/v1
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer access token from /auth/login

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Logger
	logger := logger.New(cfg.Env)
	defer logger.Sync()

	// Database
	pool, err := db.New(cfg.DB.Addr, cfg.DB.MaxConns, cfg.DB.MaxIdleTime)
	if err != nil {
		logger.Fatal(err)
	}
	defer pool.Close()
	logger.Info("database connection pool established")

	//storage
	refs, err := bookings.NewReferenceCoder(cfg.BookingRefSalt)
	if err != nil {
		logger.Fatal(err)
	}
	store := storage.NewContainer(pool, refs)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Stats cache; without Redis the dashboard is computed on every request
	var statsCache cache.Cache = cache.Noop{}
	if cfg.Redis.Addr != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warnw("redis unavailable, stats cache disabled", "error", err)
		} else {
			defer rdb.Close()
			statsCache = cache.NewRedisCache(rdb, "voyago")
			logger.Infow("redis stats cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.StatsTTL)
		}
	}
	dash := dashboard.NewService(store.Dashboard, store.Bookings, store.Reviews,
		dashboard.Names{Destinations: store.Destinations, Guides: store.Guides}, statsCache, cfg.Redis.StatsTTL, logger)

	// Booking events
	var publisher events.Publisher = events.NoopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.BookingTopic)
		logger.Infow("publishing booking events", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.BookingTopic)
	}
	defer publisher.Close()

	//cloudinary
	var images ImageUploader
	if cfg.CloudinaryURL != "" {
		cld, err := newCloudinaryUploader(cfg.CloudinaryURL)
		if err != nil {
			logger.Fatal(err)
		}
		images = cld
	}

	// Mailer for contact form forwarding
	var mail mailer.Client = mailer.LogMailer{Logf: logger.Infof}
	if cfg.Mail.SMTPHost != "" {
		smtp, err := mailer.NewSMTPMailer(cfg.Mail.SMTPHost, cfg.Mail.SMTPPort, cfg.Mail.SMTPUser, cfg.Mail.SMTPPass, cfg.Mail.From)
		if err != nil {
			logger.Fatal(err)
		}
		mail = smtp
	}

	// Rate limiter
	rateLimiter := ratelimiter.NewFixedWindowLimiter(
		cfg.RateLimiter.RequestsPerTimeFrame,
		cfg.RateLimiter.TimeFrame,
	)
	go rateLimiter.Cleanup(ctx.Done())

	// Authenticator
	jwtAuthenticator := auth.NewJWTAuthenticator(
		cfg.Auth.TokenSecret,
		cfg.Auth.RefreshSecret,
		cfg.Auth.Issuer,
		cfg.Auth.Issuer,
		cfg.Auth.AccessTokenExp,
		cfg.Auth.RefreshTokenExp,
	)

	app := &application{
		config:        cfg,
		logger:        logger,
		store:         store,
		refs:          refs,
		dashboard:     dash,
		images:        images,
		mailer:        mail,
		events:        publisher,
		authenticator: jwtAuthenticator,
		rateLimiter:   rateLimiter,
	}

	app.startBackgroundJobs(ctx)

	//Metrics collected http://localhost:8080/v1/debug/vars
	expvar.NewString("version").Set(version)
	expvar.Publish("database", expvar.Func(func() any {
		return pool.Stat().TotalConns()
	}))
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.mount()

	if err := app.run(mux); err != nil {
		logger.Errorw("server stopped", "error", err)
	}
}
