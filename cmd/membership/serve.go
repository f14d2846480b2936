package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	membership "github.com/vinculo/go-membership"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			db, err := openDatabase(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			repo := membership.NewRepositoryManager(db)
			repo.MustValidate()

			auther := membership.NewAuthenticator(repo, cfg)
			register := membership.NewRegisterUserHandler(repo)

			opts := []membership.AuthControllerOption{}
			if cfg.Mail.Host != "" {
				sender, err := newMailSender(cfg)
				if err != nil {
					return err
				}

				dispatcher := membership.NewDispatcher(sender)
				defer dispatcher.Close()

				invitations := membership.NewSendInvitationHandler(repo, auther.TokenService(), dispatcher)
				opts = append(opts, membership.WithInvitations(invitations))

				resetInit := membership.NewInitializePasswordResetHandler(repo, dispatcher)
				resetFinalize := membership.NewFinalizePasswordResetHandler(repo)
				opts = append(opts, membership.WithPasswordReset(resetInit, resetFinalize))
			}

			app := fiber.New()
			controller := membership.NewAuthController(auther, register, opts...)
			membership.RegisterAuthRoutes(app, controller)

			go func() {
				quit := make(chan os.Signal, 1)
				signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
				<-quit
				_ = app.Shutdown()
			}()

			return app.Listen(viper.GetString("listen"))
		},
	}
}
