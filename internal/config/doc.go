// Package config loads pipeline configuration.
//
// Configuration is environment-first: provider selection and database
// credentials come from environment variables (optionally via a .env file).
// An optional YAML tuning file adjusts batching, pacing, pool sizes, and
// timeouts; ${VAR} references inside it are expanded from the environment.
//
// Recognized environment variables:
//   - USE_YAHOO_FINANCE: true/1/yes selects the free Yahoo provider
//   - FINANCIAL_DATASETS_API_KEY: key for the paid provider
//   - DATABASE_URL: full connection string (takes precedence)
//   - POSTGRES_HOST, POSTGRES_PORT, POSTGRES_DB, POSTGRES_USER,
//     POSTGRES_PASSWORD: component form; the password is mandatory when
//     DATABASE_URL is absent
package config
