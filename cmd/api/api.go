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

	"biznesnet/docs" //this is required to generate swagger docs
	"biznesnet/internal/auth"
	"biznesnet/internal/domain/premium"
	"biznesnet/internal/domain/storage"
	"biznesnet/internal/mailer"
	"biznesnet/internal/media"
	"biznesnet/internal/metrics"
	"biznesnet/internal/payments"
	"biznesnet/internal/ratelimiter"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

type application struct {
	config        config
	store         *storage.Container
	logger        *zap.SugaredLogger
	media         media.Uploader
	mailer        mailer.Client // nil when SMTP is not configured
	payments      *payments.PaymentManager
	references    *premium.ReferenceGenerator
	authenticator auth.Authenticator
	rateLimiter   ratelimiter.Limiter
}

type config struct {
	addr           string
	env            string
	apiURL         string
	db             dbConfig
	auth           authConfig
	mail           mailConfig
	payment        paymentConfig
	media          mediaConfig
	rateLimiter    ratelimiter.Config
	migrateOnStart bool
}

type authConfig struct {
	basic basicConfig
	token tokenConfig
}

type tokenConfig struct {
	secret string
	exp    time.Duration
	iss    string
}

type basicConfig struct {
	user string
	pass string
}

type mailConfig struct {
	fromEmail string
	smtp      smtpConfig
}

type smtpConfig struct {
	host string
	port int
	user string
	pass string
}

type paymentConfig struct {
	provider   string // stripe or khalti
	priceMinor int64
	currency   string
	stripe     stripeConfig
	khalti     khaltiConfig
}

type stripeConfig struct {
	secretKey     string
	publicKey     string
	webhookSecret string
}

type khaltiConfig struct {
	secretKey  string
	production bool
}

type mediaConfig struct {
	cloudinaryURL string
	root          string
	url           string
}

type dbConfig struct {
	addr        string
	maxConns    int
	maxIdleTime string
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.InstrumentHandler)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Location"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	if app.config.rateLimiter.Enabled {
		r.Use(app.RateLimiterMiddleware)
	}

	//Set a timeout value on the request context (ctx), that will signal through ctx.Done() that the request has timed out and further processing should be stopped
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/v1", func(r chi.Router) {
		r.With(app.BasicAuthMiddleware()).Get("/health", app.healthCheckHandler)
		r.With(app.BasicAuthMiddleware()).Get("/debug/vars", expvar.Handler().ServeHTTP)
		r.With(app.BasicAuthMiddleware()).Handle("/metrics", metrics.Handler())

		docsURL := fmt.Sprintf("%s/v1/swagger/doc.json", app.config.apiURL)
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL(docsURL)))

		if app.config.media.cloudinaryURL == "" && app.config.media.root != "" {
			fs := http.FileServer(http.Dir(app.config.media.root))
			r.Handle("/media/*", http.StripPrefix("/v1/media/", fs))
		}

		r.Route("/businesses", func(r chi.Router) {
			r.With(app.OptionalAuthMiddleware).Get("/", app.listBusinessesHandler)
			r.With(app.AuthTokenMiddleware).Post("/", app.createBusinessHandler)

			r.Route("/{businessID}", func(r chi.Router) {
				r.With(app.OptionalAuthMiddleware, app.businessContextMiddleware).Get("/", app.getBusinessHandler)

				r.Group(func(r chi.Router) {
					r.Use(app.AuthTokenMiddleware)
					r.Use(app.businessContextMiddleware)

					r.Post("/", app.businessFeedbackHandler)
					r.Get("/premium", app.premiumPageHandler)
					r.Post("/premium", app.premiumCheckoutHandler)
					r.Post("/like-toggle", app.likeToggleHandler)
				})
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", app.listCategoriesHandler)
			r.With(app.BasicAuthMiddleware()).Post("/", app.createCategoryHandler)
			r.With(app.BasicAuthMiddleware()).Delete("/{categoryID}", app.deleteCategoryHandler)
		})

		r.Route("/tags", func(r chi.Router) {
			r.Get("/", app.listTagsHandler)
			r.With(app.BasicAuthMiddleware()).Post("/", app.createTagHandler)
			r.With(app.BasicAuthMiddleware()).Delete("/{tagID}", app.deleteTagHandler)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/stripe/webhook", app.stripeWebhookHandler)
			r.Get("/khalti/return", app.khaltiReturnHandler)
		})

		// Public routes
		r.Route("/authentication", func(r chi.Router) {
			r.Post("/user", app.registerUserHandler)
			r.Post("/token", app.createTokenHandler)
		})
	})

	return r
}

// listingURL is the absolute URL of the business listing.
func (app *application) listingURL() string {
	return app.config.apiURL + "/v1/businesses"
}

func (app *application) businessURL(id int64) string {
	return fmt.Sprintf("%s/v1/businesses/%d", app.config.apiURL, id)
}

func (app *application) run(mux http.Handler) error {
	// Docs
	docs.SwaggerInfo.Version = version
	docs.SwaggerInfo.Host = app.config.apiURL
	docs.SwaggerInfo.BasePath = "/v1"

	srv := &http.Server{
		Addr:         app.config.addr,
		Handler:      mux,
		WriteTimeout: time.Second * 30,
		ReadTimeout:  time.Second * 10,
		IdleTimeout:  time.Minute,
	}

	// Implementing graceful shutdown
	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)

	return nil
}
