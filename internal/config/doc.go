// Package config provides configuration parsing for the fluxe command.
//
// The configuration is stored in fluxe.yaml (or fluxe.yml, or fluxe.json)
// in the working directory. This package handles loading and validating it.
//
// # Configuration File Structure
//
//	name: todo-app
//	log:
//	  level: debug
//	  format: json
//	devtools:
//	  host: localhost
//	  port: 7070
//	  shutdown_timeout: 5s
//	metrics:
//	  enabled: true
//	  namespace: todo
//	tracing:
//	  enabled: true
//	  tracer_name: todo-app
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	logger := cfg.Log.NewLogger(os.Stderr)
package config
