package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pion/webrtc/v4"
)

type Config struct {
	Debug      bool   `env:"DEBUG" envDefault:"false"`
	Port       string `env:"PORT" envDefault:"3000"`
	MetricPort string `env:"METRIC_PORT" envDefault:"9090"`
	Domain     string `env:"DOMAIN" envDefault:"http://localhost:3000"`
	StaticDir  string `env:"STATIC_DIR" envDefault:"web"`

	StunURLs []string `env:"STUN_URLS" envDefault:"stun:stun.l.google.com:19302"`
	Turn     TurnConfig

	// ReapInterval is how often abandoned rooms are swept; RoomRetention is
	// how long an empty room may live before the sweep removes it.
	ReapInterval  time.Duration `env:"REAP_INTERVAL" envDefault:"1h"`
	RoomRetention time.Duration `env:"ROOM_RETENTION" envDefault:"24h"`

	ICEServers []webrtc.ICEServer
}

type TurnConfig struct {
	Host     string `env:"TURN_HOST"`
	Username string `env:"TURN_USERNAME"`
	Password string `env:"TURN_PASSWORD"`
}

func New() (*Config, error) {
	c, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	c.ICEServers = []webrtc.ICEServer{
		{URLs: c.StunURLs},
	}

	if c.Turn.Host != "" {
		c.ICEServers = append(c.ICEServers,
			webrtc.ICEServer{
				URLs:       []string{fmt.Sprintf("turn:%s?transport=udp", c.Turn.Host)},
				Username:   c.Turn.Username,
				Credential: c.Turn.Password,
			},
			webrtc.ICEServer{
				URLs:       []string{fmt.Sprintf("turn:%s?transport=tcp", c.Turn.Host)},
				Username:   c.Turn.Username,
				Credential: c.Turn.Password,
			},
		)
	}

	return &c, nil
}
