package cmd

import (
	"fmt"
	"time"

	"supabase-clone/internal/clone"
	"supabase-clone/internal/generator"
	"supabase-clone/internal/source"

	"github.com/spf13/viper"
)

// ProjectConfig describes one side of a clone.
type ProjectConfig struct {
	Ref        string `mapstructure:"ref"`
	URL        string `mapstructure:"url"`
	ServiceKey string `mapstructure:"service_key"`
	DBPassword string `mapstructure:"db_password"`
	DSN        string `mapstructure:"dsn"`
}

// APIURL returns the configured URL, falling back to the hosted URL of Ref.
func (p ProjectConfig) APIURL() string {
	if p.URL != "" {
		return p.URL
	}
	if p.Ref == "" {
		return ""
	}
	return source.ProjectURL(p.Ref)
}

// CatalogDSN returns a direct database DSN when one can be built.
func (p ProjectConfig) CatalogDSN() string {
	if p.DSN != "" {
		return p.DSN
	}
	if p.DBPassword != "" && p.Ref != "" {
		return source.DatabaseDSN(p.Ref, p.DBPassword)
	}
	return ""
}

func (p ProjectConfig) Credentials() clone.Credentials {
	return clone.Credentials{Ref: p.Ref, ServiceKey: p.ServiceKey}
}

type MigrationConfig struct {
	Type       string `mapstructure:"type"`
	IncludeRLS bool   `mapstructure:"include_rls"`
}

type OutputConfig struct {
	Dir    string `mapstructure:"dir"`
	Prefix string `mapstructure:"prefix"`
}

// GetProjectConfig reads the source or target section.
func GetProjectConfig(key string) (ProjectConfig, error) {
	var p ProjectConfig
	if err := viper.UnmarshalKey(key, &p); err != nil {
		return p, fmt.Errorf("failed to parse %s config: %w", key, err)
	}
	// UnmarshalKey does not see keys that only exist in the environment.
	for field, dst := range map[string]*string{
		"ref":         &p.Ref,
		"url":         &p.URL,
		"service_key": &p.ServiceKey,
		"db_password": &p.DBPassword,
		"dsn":         &p.DSN,
	} {
		if *dst == "" {
			*dst = viper.GetString(key + "." + field)
		}
	}
	return p, nil
}

func GetMigrationConfig() (MigrationConfig, generator.MigrationKind, error) {
	var m MigrationConfig
	if err := viper.UnmarshalKey("migration", &m); err != nil {
		return m, "", fmt.Errorf("failed to parse migration config: %w", err)
	}
	m.Type = viper.GetString("migration.type")
	m.IncludeRLS = viper.GetBool("migration.include_rls")

	kind, err := generator.ParseKind(m.Type)
	if err != nil {
		return m, "", err
	}
	return m, kind, nil
}

func GetOutputConfig() OutputConfig {
	return OutputConfig{
		Dir:    viper.GetString("output.dir"),
		Prefix: viper.GetString("output.prefix"),
	}
}

func httpTimeout() time.Duration {
	return viper.GetDuration("http.timeout")
}
