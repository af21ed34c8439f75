package tracing

import (
	"encoding/base64"
	"strings"
)

const (
	// DefaultEndpoint is the Langfuse OTLP base endpoint (EU region).
	DefaultEndpoint = "https://cloud.langfuse.com/api/public/otel"

	tracesPath = "/v1/traces"
)

// Config holds the tracing settings read from the environment.
type Config struct {
	PublicKey   string `env:"LANGFUSE_PUBLIC_KEY"`
	SecretKey   string `env:"LANGFUSE_SECRET_KEY"`
	Endpoint    string `env:"LANGFUSE_HOST_OTEL, default=https://cloud.langfuse.com/api/public/otel"`
	ServiceName string `env:"OTEL_SERVICE_NAME, default=alfred"`
}

// HasCredentials reports whether both halves of the credential pair are set.
func (c Config) HasCredentials() bool {
	return c.PublicKey != "" && c.SecretKey != ""
}

// AuthHeader returns the Basic authorization header value for the credential pair.
func (c Config) AuthHeader() string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.PublicKey+":"+c.SecretKey))
}

// TracesURL returns the OTLP/HTTP traces URL derived from the base endpoint.
func (c Config) TracesURL() string {
	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	endpoint = strings.TrimRight(endpoint, "/")
	if strings.HasSuffix(endpoint, tracesPath) {
		return endpoint
	}
	return endpoint + tracesPath
}
