package config

import (
	"errors"
	"fmt"
	audioconfig "soundcapture/internal/audio/config"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "CAPTURE"

var ErrInvalidDuration = errors.New("capture duration must be positive")

// Settings is the user facing configuration of one capture run.
type Settings struct {
	Codec       string        `mapstructure:"codec"`
	Duration    time.Duration `mapstructure:"duration"`
	DeviceRate  uint32        `mapstructure:"device_rate"` // 0 keeps the codec default
	Channels    uint16        `mapstructure:"channels"`    // 0 keeps the codec default
	Bitrate     int           `mapstructure:"bitrate"`
	DTX         bool          `mapstructure:"dtx"`
	Buffer      int           `mapstructure:"buffer"`
	Output      string        `mapstructure:"output"`
	Monitor     bool          `mapstructure:"monitor"`
	WSAddr      string        `mapstructure:"ws_addr"`
	Interactive bool          `mapstructure:"interactive"`
	LogLevel    string        `mapstructure:"log_level"`
	LogPretty   bool          `mapstructure:"log_pretty"`
}

// SetDefaults registers every known key so AutomaticEnv can resolve it.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("codec", string(audioconfig.AudioCodecOpus))
	v.SetDefault("duration", 5*time.Second)
	v.SetDefault("device_rate", 0)
	v.SetDefault("channels", 0)
	v.SetDefault("bitrate", audioconfig.BitrateOpus)
	v.SetDefault("dtx", true)
	v.SetDefault("buffer", audioconfig.BufferSize)
	v.SetDefault("output", "")
	v.SetDefault("monitor", false)
	v.SetDefault("ws_addr", "")
	v.SetDefault("interactive", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_pretty", false)
}

// Load reads settings from cfgFile (or soundcapture.yaml in the working
// directory when empty) and from CAPTURE_* environment variables.
func Load(v *viper.Viper, cfgFile string) (*Settings, error) {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("soundcapture")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) Validate() error {
	if s.Duration <= 0 {
		return ErrInvalidDuration
	}
	ac, err := s.AudioConfig()
	if err != nil {
		return err
	}
	return ac.Validate()
}

// AudioConfig builds the codec config, applying overrides on top of the codec defaults.
func (s *Settings) AudioConfig() (audioconfig.AudioConfig, error) {
	ac, err := audioconfig.ForCodec(strings.ToLower(s.Codec))
	if err != nil {
		return audioconfig.AudioConfig{}, err
	}
	if s.DeviceRate != 0 {
		ac.DeviceSampleRate = s.DeviceRate
	}
	if s.Channels != 0 {
		ac.Channels = s.Channels
	}
	if s.Buffer != 0 {
		ac.BufferSize = s.Buffer
	}
	if ac.Type == audioconfig.AudioCodecOpus && s.Bitrate != 0 {
		ac.Bitrate = s.Bitrate
	}
	if ac.Type != audioconfig.AudioCodecPCM {
		ac.DTX = s.DTX
	}
	return ac, nil
}
