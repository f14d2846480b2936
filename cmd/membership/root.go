package main

import (
	"database/sql"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	membership "github.com/vinculo/go-membership"
	"github.com/vinculo/go-membership/mailer"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "membership",
		Short:         "Membership platform backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	root.AddCommand(newServeCmd())
	root.AddCommand(newCleanInvitationsCmd())

	return root
}

// initViper wires defaults, the optional config file, and environment
// variables. Env vars use the MEMBERSHIP_ prefix with underscores, e.g.
// MEMBERSHIP_SIGNING_KEY, MEMBERSHIP_MAIL_HOST.
func initViper(cmd *cobra.Command) error {
	v := viper.GetViper()

	v.SetDefault("issuer", "http://localhost")
	v.SetDefault("token_ttl", membership.DefaultTokenTTL)
	v.SetDefault("listen", ":3000")
	v.SetDefault("database", "file:membership.db?cache=shared")

	v.SetEnvPrefix("MEMBERSHIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return err
		}
	}

	return nil
}

// loadConfig builds and validates the process configuration. A missing
// signing key is fatal here, before anything can mint a token.
func loadConfig(cmd *cobra.Command) (membership.AppConfig, error) {
	if err := initViper(cmd); err != nil {
		return membership.AppConfig{}, err
	}

	v := viper.GetViper()

	cfg := membership.AppConfig{
		SigningKey: v.GetString("signing_key"),
		Issuer:     v.GetString("issuer"),
		TokenTTL:   v.GetInt("token_ttl"),
		Mail: membership.MailConfig{
			Host:       v.GetString("mail.host"),
			Port:       v.GetString("mail.port"),
			Username:   v.GetString("mail.username"),
			Password:   v.GetString("mail.password"),
			Encryption: v.GetString("mail.encryption"),
			FromName:   v.GetString("mail.from_name"),
			FromAddr:   v.GetString("mail.from_address"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return membership.AppConfig{}, err
	}

	return cfg, nil
}

func openDatabase(cmd *cobra.Command) (*bun.DB, error) {
	dsn := viper.GetString("database")
	if dsn == "" {
		dsn = "file:membership.db?cache=shared"
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if err := membership.CreateSchema(cmd.Context(), db); err != nil {
		db.Close()
		return nil, err
	}

	if err := membership.SeedRoles(cmd.Context(), db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func newMailSender(cfg membership.AppConfig) (membership.MailSender, error) {
	return mailer.NewSMTPSender(mailer.Config{
		Host:       cfg.Mail.Host,
		Port:       cfg.Mail.Port,
		Username:   cfg.Mail.Username,
		Password:   cfg.Mail.Password,
		Encryption: cfg.Mail.Encryption,
		FromName:   cfg.Mail.FromName,
		FromAddr:   cfg.Mail.FromAddr,
	})
}
