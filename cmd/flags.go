package cmd

import "github.com/urfave/cli/v2"

// Flags override the environment configuration.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			EnvVars: []string{"FLEETSYNC_HOST"},
		},
		&cli.StringFlag{
			Name:    "username",
			EnvVars: []string{"FLEETSYNC_USERNAME"},
		},
		&cli.StringFlag{
			Name:    "password",
			EnvVars: []string{"FLEETSYNC_PASSWORD"},
		},
		&cli.BoolFlag{
			Name:    "ssl",
			EnvVars: []string{"FLEETSYNC_SSL"},
			Value:   true,
		},
		&cli.BoolFlag{
			Name:    "show-errors",
			EnvVars: []string{"SHOW_ERRORS"},
		},
		&cli.StringFlag{
			Name:    "mqtt-host",
			EnvVars: []string{"MQTT_HOST"},
		},
		&cli.StringFlag{
			Name:    "mqtt-user",
			EnvVars: []string{"MQTT_USER"},
		},
		&cli.StringFlag{
			Name:    "mqtt-pass",
			EnvVars: []string{"MQTT_PASS"},
		},
		&cli.StringFlag{
			Name:    "redis-addr",
			EnvVars: []string{"REDIS_ADDR"},
		},
		&cli.StringFlag{
			Name:    "database-url",
			EnvVars: []string{"DATABASE_URL"},
		},
		&cli.StringFlag{
			Name:    "http-addr",
			EnvVars: []string{"HTTP_ADDR"},
			Value:   "0.0.0.0:8000",
		},
		&cli.StringFlag{
			Name:    "metrics-addr",
			EnvVars: []string{"METRICS_ADDR"},
			Value:   ":9090",
		},
		&cli.StringFlag{
			Name:    "log-level",
			EnvVars: []string{"LOG_LEVEL"},
			Value:   "INFO",
		},
	}
}
