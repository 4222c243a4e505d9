package router

import (
	"github.com/oksasatya/auth-service/internal/application"
	"github.com/oksasatya/auth-service/internal/container"
	pginfra "github.com/oksasatya/auth-service/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/auth-service/internal/interface/http"
	"github.com/oksasatya/auth-service/internal/router/modules"
)

// InitModules builds the application services from the container singletons
// and registers every feature module. Call once during startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	repo := pginfra.NewUserRepository(container.GetPGPool())

	// Avoid handing a typed-nil publisher to the service when RabbitMQ is
	// unavailable; signup then reports email_sent=false instead of panicking.
	var pub application.EmailPublisher
	if rp := container.GetRabbitPub(); rp != nil {
		pub = rp
	}

	userSvc := application.NewUserService(
		repo,
		logger,
		container.GetGCS(),
		cfg.GCSBucket,
		container.GetES(),
		cfg.ESUsersIndex,
	)
	authSvc := application.NewAuthService(
		repo,
		container.GetJWT(),
		pub,
		logger,
		cfg.BcryptCost,
		cfg.MailSendEnabled,
		cfg.VerifyEmailURL,
		cfg.ResetPasswordURL,
	)
	oauthSvc := application.NewOAuthService(
		repo,
		container.GetJWT(),
		container.GetRedis(),
		logger,
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.GoogleCallbackURL,
	)
	// New and linked accounts become searchable without waiting for a
	// profile edit.
	authSvc.Indexer = userSvc
	oauthSvc.Indexer = userSvc

	authHandler := handlers.NewAuthHandler(authSvc, logger)
	oauthHandler := handlers.NewOAuthHandler(oauthSvc, logger, cfg.ClientURL)
	userHandler := handlers.NewUserHandler(userSvc, logger)

	r.Add(modules.NewAuthModule(authHandler, oauthHandler, container.GetJWT()))
	r.Add(modules.NewUserModule(userHandler, container.GetJWT()))
}
