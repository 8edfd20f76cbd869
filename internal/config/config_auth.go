package config

import "time"

// AuthConfig configures caller JWT verification. The signing secret
// itself is never written to the YAML file — only the name of the
// environment variable that holds it.
type AuthConfig struct {
	JWTSecretEnv string        `yaml:"jwt_secret_env"`
	TokenExpiry  time.Duration `yaml:"token_expiry"`
}

// GoogleOAuthConfig carries the client credentials an operator binds
// to the Google Calendar wrapper service for its OAuth2 refresh flow;
// the gateway itself only passes along the resulting bearer token, it
// never performs the OAuth exchange.
type GoogleOAuthConfig struct {
	ClientIDEnv     string `yaml:"client_id_env"`
	ClientSecretEnv string `yaml:"client_secret_env"`
}
