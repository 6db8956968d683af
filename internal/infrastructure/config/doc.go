// Package config handles loading and validating the inventory service configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables (INVENTORY_*)
//   - Validation of required fields
//   - Default value handling
//
// The service runs without a config file: LoadOrDefault falls back to the
// built-in defaults, which keep the three CSV files under ./data and listen
// on localhost:5002.
//
// Security Considerations:
//   - Sensitive values (passwords, tokens) should be set via environment variables
//   - A JWT secret, when set, must be at least 32 characters
//
// Usage:
//
//	cfg, found, err := config.LoadOrDefault("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Storage.Backend, found)
package config
