package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/smartwork/assistant/internal/config"
	jwtpkg "github.com/smartwork/assistant/internal/pkg/jwt"
	"go.uber.org/zap"
)

func applyRuntimeSettings(cfg *config.AppConfig, logger *zap.Logger) error {
	if secret := strings.TrimSpace(cfg.JWTSecret); secret != "" {
		jwtpkg.SetSecret(secret)
	} else {
		logger.Warn("jwt_secret is empty, using built-in default secret")
	}

	tz := strings.TrimSpace(cfg.Timezone)
	if tz == "" {
		return nil
	}
	loc, err := parseTimezoneLocation(tz)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	time.Local = loc
	_ = os.Setenv("TZ", tz)
	return nil
}

// parseTimezoneLocation accepts an IANA name or a fixed offset such as
// "+09:00", "+0900" or "UTC+9".
func parseTimezoneLocation(raw string) (*time.Location, error) {
	tz := strings.TrimSpace(raw)
	if tz == "" {
		return time.Local, nil
	}
	if loc, err := time.LoadLocation(tz); err == nil {
		return loc, nil
	}
	offset := strings.TrimPrefix(strings.ToUpper(tz), "UTC")
	if len(offset) == 2 {
		offset = offset[:1] + "0" + offset[1:]
	}
	for _, layout := range []string{"-07:00", "-0700", "-07"} {
		if t, err := time.Parse(layout, offset); err == nil {
			_, secs := t.Zone()
			return time.FixedZone(tz, secs), nil
		}
	}
	return nil, fmt.Errorf("expect IANA zone (e.g. Asia/Seoul) or UTC offset (e.g. +09:00)")
}

// tokenKey picks the secret Google tokens are sealed with.
func tokenKey(cfg *config.AppConfig, logger *zap.Logger) string {
	if k := strings.TrimSpace(cfg.TokenEncryptionKey); k != "" {
		return k
	}
	if k := strings.TrimSpace(cfg.JWTSecret); k != "" {
		logger.Warn("token_encryption_key is empty, sealing Google tokens with jwt_secret")
		return k
	}
	logger.Warn("token_encryption_key and jwt_secret are empty, sealing Google tokens with the built-in key")
	return "smart-work-assistant-token-key"
}
