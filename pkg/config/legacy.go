package config

import (
	"time"

	apperrors "srtalert/pkg/errors"

	"gopkg.in/yaml.v2"
)

// legacyConfig is the flat document used by earlier releases (abc_config.json).
// JSON is a subset of YAML, so yaml.v2 decodes it directly.
type legacyConfig struct {
	StatsURL          *string  `yaml:"STATS_URL"`
	Publisher         *string  `yaml:"PUBLISHER"`
	OBSHost           *string  `yaml:"OBS_HOST"`
	OBSPort           *int     `yaml:"OBS_PORT"`
	OBSPassword       *string  `yaml:"OBS_PASSWORD"`
	SourceName        *string  `yaml:"SOURCE_NAME"`
	SceneName         *string  `yaml:"SCENE_NAME"`
	BitrateThreshold  *float64 `yaml:"BITRATE_THRESHOLD"`
	RTTThreshold      *float64 `yaml:"RTT_THRESHOLD"`
	CooldownSeconds   *float64 `yaml:"COOLDOWN_SECONDS"`
	SourceDisplayTime *float64 `yaml:"SOURCE_DISPLAY_TIME"`
}

func applyLegacy(data []byte, cfg *Config) error {
	var lc legacyConfig
	if err := yaml.Unmarshal(data, &lc); err != nil {
		return apperrors.WrapError(err, apperrors.ErrCodeConfig, "failed to parse legacy JSON config")
	}

	strs := []struct {
		key string
		src *string
		dst *string
	}{
		{"STATS_URL", lc.StatsURL, &cfg.Stats.URL},
		{"PUBLISHER", lc.Publisher, &cfg.Stats.Publisher},
		{"OBS_HOST", lc.OBSHost, &cfg.OBS.Host},
		{"OBS_PASSWORD", lc.OBSPassword, &cfg.OBS.Password},
		{"SOURCE_NAME", lc.SourceName, &cfg.Overlay.SourceName},
		{"SCENE_NAME", lc.SceneName, &cfg.Overlay.SceneName},
	}
	for _, s := range strs {
		if s.src == nil {
			return apperrors.NewConfigError(s.key, "is required")
		}
		*s.dst = *s.src
	}

	if lc.OBSPort == nil {
		return apperrors.NewConfigError("OBS_PORT", "is required")
	}
	cfg.OBS.Port = *lc.OBSPort

	nums := []struct {
		key string
		src *float64
	}{
		{"BITRATE_THRESHOLD", lc.BitrateThreshold},
		{"RTT_THRESHOLD", lc.RTTThreshold},
		{"COOLDOWN_SECONDS", lc.CooldownSeconds},
		{"SOURCE_DISPLAY_TIME", lc.SourceDisplayTime},
	}
	for _, n := range nums {
		if n.src == nil {
			return apperrors.NewConfigError(n.key, "is required")
		}
	}

	cfg.Thresholds.BitrateKbps = *lc.BitrateThreshold
	cfg.Thresholds.RTTMillis = *lc.RTTThreshold
	cfg.Alert.Cooldown = seconds(*lc.CooldownSeconds)
	cfg.Alert.DisplayTime = seconds(*lc.SourceDisplayTime)
	return nil
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
