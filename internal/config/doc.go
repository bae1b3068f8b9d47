// Package config provides configuration loading for userpages.
//
// Configuration is read from userpages.json (or userpages.yaml) in the
// working directory, then from a .env file, then from USERPAGES_*
// environment variables. Later sources win.
//
// # Configuration File Structure
//
//	{
//	  "server": {
//	    "host": "localhost",
//	    "port": 8080,
//	    "sessionTTL": "30m"
//	  },
//	  "profile": {
//	    "latency": "1s",
//	    "failureRate": 0.2,
//	    "name": "Juan Carlos",
//	    "email": "juan@example.com",
//	    "autoRetries": 0,
//	    "retryDelay": "1s"
//	  },
//	  "users": {
//	    "latency": "500ms",
//	    "failureRate": 0.1,
//	    "count": 100,
//	    "perPage": 10
//	  },
//	  "log": {"level": "info", "format": "text"},
//	  "telemetry": {"otlpEndpoint": "", "serviceName": "userpages"},
//	  "seed": 0
//	}
//
// # Environment Overrides
//
//	USERPAGES_SERVER_PORT=9090
//	USERPAGES_PROFILE_FAILURE_RATE=0
//	USERPAGES_USERS_AUTO_RETRIES=2
//	USERPAGES_LOG_LEVEL=debug
//
// # Usage
//
//	cfg, err := config.Resolve(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config
