package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/eventhub/internal/flagx"
	"github.com/dmitrijs2005/eventhub/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Duration fields
// use timex.Duration so both "10m" and integer nanoseconds are accepted.
// Pointer fields distinguish "absent" from a zero value, so a partial file
// only overrides what it mentions.
type JsonConfig struct {
	HTTPAddress                *string         `json:"http_address"`
	StorageBackend             *string         `json:"storage_backend"`
	DatabaseDSN                *string         `json:"database_dsn"`
	MongoURI                   *string         `json:"mongo_uri"`
	MongoDatabase              *string         `json:"mongo_database"`
	SecretKey                  *string         `json:"secret_key"`
	TokenValidityDuration      *timex.Duration `json:"token_validity_duration"`
	ResetTokenValidityDuration *timex.Duration `json:"reset_token_validity_duration"`
	ClientURL                  *string         `json:"client_url"`
	RevealUnknownResetEmail    *bool           `json:"reveal_unknown_reset_email"`
	SMTPHost                   *string         `json:"smtp_host"`
	SMTPPort                   *int            `json:"smtp_port"`
	SMTPUsername               *string         `json:"smtp_username"`
	SMTPPassword               *string         `json:"smtp_password"`
	SMTPFrom                   *string         `json:"smtp_from"`
	S3RootUser                 *string         `json:"s3_root_user"`
	S3RootPassword             *string         `json:"s3_root_password"`
	S3Bucket                   *string         `json:"s3_bucket"`
	S3Region                   *string         `json:"s3_region"`
	S3BaseEndpoint             *string         `json:"s3_base_endpoint"`
	CleanupInterval            *timex.Duration `json:"cleanup_interval"`
	LogFormat                  *string         `json:"log_format"`
}

// parseJson loads configuration values from the JSON file named by the
// -c or -config flag into config. Without the flag nothing is loaded.
// An unreadable file or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFile(os.Args[1:])

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.HTTPAddress, c.HTTPAddress)
	setString(&config.StorageBackend, c.StorageBackend)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.MongoURI, c.MongoURI)
	setString(&config.MongoDatabase, c.MongoDatabase)
	setString(&config.SecretKey, c.SecretKey)
	if c.TokenValidityDuration != nil {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.ResetTokenValidityDuration != nil {
		config.ResetTokenValidityDuration = c.ResetTokenValidityDuration.Duration
	}
	setString(&config.ClientURL, c.ClientURL)
	if c.RevealUnknownResetEmail != nil {
		config.RevealUnknownResetEmail = *c.RevealUnknownResetEmail
	}
	setString(&config.SMTPHost, c.SMTPHost)
	if c.SMTPPort != nil {
		config.SMTPPort = *c.SMTPPort
	}
	setString(&config.SMTPUsername, c.SMTPUsername)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.SMTPFrom, c.SMTPFrom)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	if c.CleanupInterval != nil {
		config.CleanupInterval = c.CleanupInterval.Duration
	}
	setString(&config.LogFormat, c.LogFormat)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
