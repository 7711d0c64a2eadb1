package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultDBPath is the manifest location when VKIR_DB is unset.
const DefaultDBPath = "vkir.db"

// Env holds settings read from the process environment (and .env, if present).
type Env struct {
	DBPath   string
	Artifact ArtifactEnv
}

// ArtifactEnv configures the S3-compatible bucket used by compile --publish.
type ArtifactEnv struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Enabled reports whether an artifact endpoint is configured.
func (a ArtifactEnv) Enabled() bool {
	return a.Endpoint != ""
}

// LoadEnv reads .env from the working directory (ignored when missing)
// and then the environment.
func LoadEnv() Env {
	_ = godotenv.Load()

	return Env{
		DBPath: firstNonEmpty(getenv("VKIR_DB"), DefaultDBPath),
		Artifact: ArtifactEnv{
			Endpoint:  getenv("VKIR_ARTIFACT_ENDPOINT"),
			Region:    firstNonEmpty(getenv("VKIR_ARTIFACT_REGION"), "us-east-1"),
			AccessKey: getenv("VKIR_ARTIFACT_ACCESS_KEY"),
			SecretKey: getenv("VKIR_ARTIFACT_SECRET_KEY"),
			Bucket:    firstNonEmpty(getenv("VKIR_ARTIFACT_BUCKET"), "vkir-ir"),
			UseSSL:    parseBool(getenv("VKIR_ARTIFACT_USE_SSL"), true),
		},
	}
}

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func parseBool(raw string, fallback bool) bool {
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
