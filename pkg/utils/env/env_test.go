package env_test

import (
	"testing"

	"github.com/ripple-mq/echor/pkg/utils/env"
)

func TestName(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"config", "ECHOR_CONFIG"},
		{"server.buffer_size", "ECHOR_SERVER_BUFFER_SIZE"},
		{"admin.pprof-addr", "ECHOR_ADMIN_PPROF_ADDR"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := env.Name(tt.key); got != tt.want {
				t.Errorf("Name() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGet(t *testing.T) {
	t.Setenv("ECHOR_CONFIG", "/etc/echor.toml")

	if got := env.Get("config", "config.toml"); got != "/etc/echor.toml" {
		t.Errorf("Get() = %v, want /etc/echor.toml", got)
	}
	if got := env.Get("missing", "fallback"); got != "fallback" {
		t.Errorf("Get() = %v, want fallback", got)
	}
	if got := env.Get("missing"); got != "" {
		t.Errorf("Get() = %v, want empty", got)
	}
}
