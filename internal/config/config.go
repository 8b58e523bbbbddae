package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config aggregates every setting the service reads at startup.
type Config struct {
	Server  ServerConfig
	ChatKit ChatKitConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	chatkit, err := loadChatKitConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, ChatKit: chatkit}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" as-is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// ChatKitConfig holds the credential and defaults for the remote session API.
// The APIKey never leaves the process; it is only attached to outbound requests.
type ChatKitConfig struct {
	APIKey            string
	DefaultWorkflowID string
	BaseURL           string
	Timeout           int
}

// Enabled reports whether the credential required for session issuance is present.
func (c ChatKitConfig) Enabled() bool {
	return c.APIKey != ""
}

func loadChatKitConfig() (ChatKitConfig, error) {
	timeoutSeconds := 30
	if override, err := parseOptionalIntEnv("CHATKIT_TIMEOUT"); err != nil {
		return ChatKitConfig{}, err
	} else if override != nil {
		if *override < 1 {
			return ChatKitConfig{}, fmt.Errorf("CHATKIT_TIMEOUT must be positive, got %d", *override)
		}
		timeoutSeconds = *override
	}

	return ChatKitConfig{
		APIKey:            strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		DefaultWorkflowID: strings.TrimSpace(os.Getenv("CHATKIT_WORKFLOW_ID")),
		BaseURL:           getEnvOrDefault("CHATKIT_API_BASE", "https://api.openai.com"),
		Timeout:           timeoutSeconds,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
