package config

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/viper"
)

// JSONConfig is the configuration of the JSON files export.
type JSONConfig struct {
	Output string
}

func (c JSONConfig) Validate() error {
	if c.Output == "" {
		return fmt.Errorf("missing output directory")
	}
	return nil
}

func LoadJSONConfigFromCLI() JSONConfig {
	return JSONConfig{
		Output: viper.GetString("json-out"),
	}
}

// TSVConfig is the configuration of the TSV files export.
type TSVConfig struct {
	Output string
}

func (c TSVConfig) Validate() error {
	if c.Output == "" {
		return fmt.Errorf("missing output directory")
	}
	return nil
}

func LoadTSVConfigFromCLI() TSVConfig {
	return TSVConfig{
		Output: viper.GetString("tsv-out"),
	}
}

// PostgresConfig is the configuration of the PostgreSQL export.
type PostgresConfig struct {
	ConnString string
}

func (c PostgresConfig) Validate() error {
	if c.ConnString == "" {
		return fmt.Errorf("missing PostgreSQL connection string")
	}

	_, err := pgxpool.ParseConfig(c.ConnString)
	if err != nil {
		return fmt.Errorf("failed to parse PostgreSQL connection string: %w", err)
	}

	return nil
}

// LoadPostgresConfig builds the configuration from the connection string
// argument, falling back to the postgres-conn setting.
func LoadPostgresConfig(connString string) PostgresConfig {
	if connString == "" {
		connString = viper.GetString("postgres-conn")
	}
	return PostgresConfig{
		ConnString: connString,
	}
}
