package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carenest/config"
	"carenest/config/database"
	adminHandler "carenest/internal/admin"
	authHandler "carenest/internal/auth"
	authRepository "carenest/internal/auth/repository"
	authService "carenest/internal/auth/service"
	galleryHandler "carenest/internal/gallery"
	galleryService "carenest/internal/gallery/service"
	patientHandler "carenest/internal/patient"
	patientRepository "carenest/internal/patient/repository"
	patientService "carenest/internal/patient/service"
	"carenest/pkg/logger"
	"carenest/router"
	"carenest/socket"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().String("addr", "", "listen address (overrides ADDR)")
	_ = v.BindPFlag("ADDR", cmd.Flags().Lookup("addr"))
	return cmd
}

func loadConfig(v *viper.Viper) (config.Config, error) {
	logger.Init(v.GetString("LOG_LEVEL"), v.GetBool("LOG_DEV"))
	return config.Load(v)
}

func serve(ctx context.Context, cfg config.Config) error {
	users, closeUsers, err := openUsers(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeUsers()

	tokens := authService.NewTokenService(cfg.SessionSecret, cfg.SessionTTL)
	auth := authService.NewAuthService(users, authService.NewRecaptchaVerifier(cfg.RecaptchaSecretKey), tokens)
	if cfg.RecaptchaSecretKey == "" {
		logger.Sugar.Warn("RECAPTCHA_SECRET_KEY is not set, CAPTCHA checks are disabled")
	}

	patients := patientService.NewPatientService(
		patientRepository.NewRecordRepository(),
		patientRepository.NewUploadRepository(cfg.UploadRoot),
		nil,
	)
	hub := socket.NewHub(patients.DashboardJSON)
	patients.Hub = hub
	gallery := galleryService.NewGalleryService(cfg.GalleryRoot)

	handler := router.Setup(router.Handlers{
		Auth:    authHandler.NewAuthHandler(auth, cfg.RecaptchaSiteKey),
		Patient: patientHandler.NewPatientHandler(patients, hub),
		Gallery: galleryHandler.NewGalleryHandler(gallery),
		Admin:   adminHandler.NewAdminHandler(patients, hub),
	}, tokens, cfg.CORSOrigin)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return gallery.Watch(gctx)
	})
	g.Go(func() error {
		logger.Sugar.Infof("CareNest listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Sugar.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openUsers picks the Postgres user table when DATABASE_URL is set and the
// YAML file (or the demo accounts) otherwise.
func openUsers(ctx context.Context, cfg config.Config) (authRepository.UserRepository, func(), error) {
	if cfg.DatabaseURL == "" {
		users, err := authRepository.LoadFileUserRepository(cfg.UsersFile)
		if err != nil {
			return nil, nil, err
		}
		return users, func() {}, nil
	}

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, nil, err
	}
	return authRepository.NewPostgresUserRepository(db), func() { db.Close() }, nil
}
