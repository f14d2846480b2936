package membership

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

// DefaultTokenTTL is 24 hours, in seconds.
const DefaultTokenTTL = 86400

// AppConfig is the concrete Config used by the service. It is built once at
// process start (see cmd/membership) and handed to every constructor.
type AppConfig struct {
	SigningKey string     `json:"signing_key" mapstructure:"signing_key"`
	Issuer     string     `json:"issuer" mapstructure:"issuer"`
	TokenTTL   int        `json:"token_ttl" mapstructure:"token_ttl"`
	Mail       MailConfig `json:"mail" mapstructure:"mail"`
}

// MailConfig carries the SMTP transport settings.
type MailConfig struct {
	Host       string `json:"host" mapstructure:"host"`
	Port       string `json:"port" mapstructure:"port"`
	Username   string `json:"username" mapstructure:"username"`
	Password   string `json:"password" mapstructure:"password"`
	Encryption string `json:"encryption" mapstructure:"encryption"`
	FromName   string `json:"from_name" mapstructure:"from_name"`
	FromAddr   string `json:"from_address" mapstructure:"from_address"`
}

func (c AppConfig) GetSigningKey() string { return c.SigningKey }

func (c AppConfig) GetIssuer() string {
	if c.Issuer == "" {
		return "http://localhost"
	}
	return c.Issuer
}

// GetTokenTTL returns the token lifetime in seconds.
func (c AppConfig) GetTokenTTL() int {
	if c.TokenTTL <= 0 {
		return DefaultTokenTTL
	}
	return c.TokenTTL
}

// Validate enforces the configuration the process cannot run without.
// A missing signing key is fatal.
func (c AppConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.SigningKey, validation.Required),
		validation.Field(&c.TokenTTL, validation.Min(0)),
	)
}

var _ Config = AppConfig{}
