package server

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/wombatlabs/wombat/breaker"
	"github.com/wombatlabs/wombat/security"
)

// duration wraps time.Duration so TOML values like "30s" decode directly.
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// fileConfig mirrors the TOML layout. Only middleware that is pure
// configuration appears here; anything that needs code (auth funcs, locale
// handlers, custom middleware) is added with options alongside the file.
type fileConfig struct {
	Recovery  bool `toml:"recovery"`
	RequestID bool `toml:"request_id"`
	AccessLog bool `toml:"access_log"`
	Metrics   bool `toml:"metrics"`

	RateLimit *struct {
		RPS   float64 `toml:"rps"`
		Burst int     `toml:"burst"`
	} `toml:"rate_limit"`

	IPBlock *struct {
		Mode           string   `toml:"mode"`
		CIDRs          []string `toml:"cidrs"`
		TrustedProxies []string `toml:"trusted_proxies"`
	} `toml:"ip_block"`

	Breaker *struct {
		FailureThreshold   int      `toml:"failure_threshold"`
		OpenTimeout        duration `toml:"open_timeout"`
		HalfOpenMaxSuccess int      `toml:"half_open_max_success"`
	} `toml:"breaker"`

	Cache *struct {
		L1MaxEntries  int64    `toml:"l1_max_entries"`
		RedisAddr     string   `toml:"redis_addr"`
		RedisPassword string   `toml:"redis_password"`
		RedisDB       int      `toml:"redis_db"`
		ResponseTTL   duration `toml:"response_ttl"`
	} `toml:"cache"`
}

// FromFile reads a TOML configuration file and returns the equivalent
// options. The returned slice combines with code-level options:
//
//	opts, err := server.FromFile("wombat.toml")
//	...
//	srv, err := server.New(append(opts, server.WithAuth(authFn))...)
func FromFile(path string) ([]Option, error) {
	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return nil, fmt.Errorf("server: decode %s: %w", path, err)
	}
	return fc.options()
}

func (fc *fileConfig) options() ([]Option, error) {
	var opts []Option

	if fc.Recovery {
		opts = append(opts, WithRecovery())
	}
	if fc.RequestID {
		opts = append(opts, WithRequestID())
	}
	if fc.AccessLog {
		opts = append(opts, WithAccessLog())
	}
	if fc.Metrics {
		opts = append(opts, WithMetrics(nil))
	}

	if fc.RateLimit != nil {
		opts = append(opts, WithRateLimitGlobal(fc.RateLimit.RPS, fc.RateLimit.Burst))
	}

	if fc.IPBlock != nil {
		var mode security.Mode
		switch fc.IPBlock.Mode {
		case "allow":
			mode = security.AllowList
		case "deny":
			mode = security.DenyList
		default:
			return nil, fmt.Errorf("server: ip_block mode must be \"allow\" or \"deny\", got %q", fc.IPBlock.Mode)
		}
		opts = append(opts, WithIPBlock(security.Config{
			Mode:           mode,
			CIDRs:          fc.IPBlock.CIDRs,
			TrustedProxies: fc.IPBlock.TrustedProxies,
		}))
	}

	if fc.Breaker != nil {
		opts = append(opts, WithBreaker(breaker.Config{
			FailureThreshold:   fc.Breaker.FailureThreshold,
			OpenTimeout:        fc.Breaker.OpenTimeout.Duration,
			HalfOpenMaxSuccess: fc.Breaker.HalfOpenMaxSuccess,
		}))
	}

	if fc.Cache != nil {
		if fc.Cache.L1MaxEntries > 0 {
			opts = append(opts, WithCacheL1(fc.Cache.L1MaxEntries))
		}
		if fc.Cache.RedisAddr != "" {
			opts = append(opts, WithCacheL2(fc.Cache.RedisAddr, fc.Cache.RedisPassword, fc.Cache.RedisDB))
		}
		if fc.Cache.ResponseTTL.Duration > 0 {
			opts = append(opts, WithResponseCache(fc.Cache.ResponseTTL.Duration))
		}
	}

	return opts, nil
}
