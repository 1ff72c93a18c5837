package observability

import (
	"context"
	"testing"

	"github.com/riskibarqy/fixture-sync/internal/config"
	"github.com/riskibarqy/fixture-sync/internal/platform/logging"
)

func TestInitUptrace_Disabled(t *testing.T) {
	cases := map[string]config.Config{
		"switched off": {UptraceEnabled: false, ServiceName: "fixture-sync", ServiceVersion: "dev", AppEnv: config.EnvDev},
		"missing dsn":  {UptraceEnabled: true, ServiceName: "fixture-sync", ServiceVersion: "dev", AppEnv: config.EnvDev},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			shutdown, err := InitUptrace(cfg, logging.NewNop())
			if err != nil {
				t.Fatalf("init uptrace: %v", err)
			}
			if err := shutdown(context.Background()); err != nil {
				t.Fatalf("shutdown uptrace: %v", err)
			}
		})
	}
}
