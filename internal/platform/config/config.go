package config

import (
	"os"
	"strings"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName    string
	HTTPPort       string
	PostgresDSN    string
	BusBrokers     []string
	TokenSecret    string
	ModeratorRoles []string
	SMTPAddr       string
	SMTPFrom       string

	EnableChangesDoneDelivery bool
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "signoff"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("BUS_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	var roles []string
	for _, value := range strings.Split(os.Getenv("MODERATOR_ROLES"), ",") {
		value = strings.ToLower(strings.TrimSpace(value))
		if value != "" {
			roles = append(roles, value)
		}
	}
	if len(roles) == 0 {
		roles = []string{"administrator", "editor"}
	}

	secret := os.Getenv("SIGNOFF_TOKEN_SECRET")
	if secret == "" {
		secret = "signoff-dev-secret"
	}

	return Config{
		ServiceName:    service,
		HTTPPort:       port,
		PostgresDSN:    os.Getenv("POSTGRES_DSN"),
		BusBrokers:     brokers,
		TokenSecret:    secret,
		ModeratorRoles: roles,
		SMTPAddr:       strings.TrimSpace(os.Getenv("SMTP_ADDR")),
		SMTPFrom:       strings.TrimSpace(os.Getenv("SMTP_FROM")),

		EnableChangesDoneDelivery: envBool("ENABLE_CHANGES_DONE_DELIVERY", true),
	}, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
