// Package config handles loading and validating Waveform Core configuration.
//
// This package manages:
//   - Default values for every setting
//   - An optional YAML file (WAVEFORM_CONFIG)
//   - Overriding with environment variables (WAVEFORM_*)
//   - Validation of required fields
//
// Security Considerations:
//   - Database passwords and broker credentials should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Performance Characteristics:
//   - Configuration is loaded once at startup and never reloaded
//
// Usage:
//
//	cfg, err := config.Load(os.Getenv("WAVEFORM_CONFIG"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Addr)
package config
