// Package config loads service configuration with viper.
//
// LoadConfig reads a YAML file, then a .env file through godotenv, then the
// environment. Environment keys carry the service prefix and use '_' for
// nesting:
//
//	var cfg Config
//	err := config.LoadConfig("contractctl", &cfg)
//	// CONTRACTCTL_CONTRACT_BASE_URL overrides contract.base_url
package config
