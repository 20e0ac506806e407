package config

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyReloadReplacesPolicyKnobsOnly(t *testing.T) {
	cfg := &Config{
		Server:    ServerConfig{Port: "8080", Mode: "debug"},
		JWT:       JWTConfig{Secret: "original"},
		Test:      TestConfig{QuestionCount: 20, DurationMinutes: 30},
		Ledger:    LedgerConfig{StartingBalance: "100.00"},
		RateLimit: RateLimitConfig{MaxRequests: 600, WindowMinutes: 1},
	}

	cfg.ApplyReload(&Config{
		Server:    ServerConfig{Port: "9999", Mode: "release"},
		JWT:       JWTConfig{Secret: "changed"},
		Test:      TestConfig{QuestionCount: 10, DurationMinutes: 15},
		Ledger:    LedgerConfig{StartingBalance: "50.00"},
		RateLimit: RateLimitConfig{MaxRequests: 100, WindowMinutes: 5},
	})

	assert.Equal(t, 10, cfg.TestPolicy().QuestionCount)
	assert.Equal(t, 15, cfg.TestPolicy().DurationMinutes)
	assert.Equal(t, "50.00", cfg.LedgerPolicy().StartingBalance)
	assert.Equal(t, 100, cfg.RateLimitPolicy().MaxRequests)
	assert.Equal(t, 5, cfg.RateLimitPolicy().WindowMinutes)

	// 非策略项不受重载影响
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "original", cfg.JWT.Secret)
}

func TestPolicySnapshotsConcurrentWithReload(t *testing.T) {
	cfg := &Config{
		Test:      TestConfig{QuestionCount: 20, DurationMinutes: 30},
		Ledger:    LedgerConfig{StartingBalance: "100.00"},
		RateLimit: RateLimitConfig{MaxRequests: 600, WindowMinutes: 1},
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			cfg.ApplyReload(&Config{
				Test:      TestConfig{QuestionCount: i, DurationMinutes: i},
				Ledger:    LedgerConfig{StartingBalance: "1.00"},
				RateLimit: RateLimitConfig{MaxRequests: i, WindowMinutes: 1},
			})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			_ = cfg.TestPolicy()
			_ = cfg.LedgerPolicy()
			_ = cfg.RateLimitPolicy()
		}
	}()
	wg.Wait()
}
