package config

import (
	"errors"
	"os"
	"path/filepath"
	audioconfig "soundcapture/internal/audio/config"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	s, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Duration != 5*time.Second {
		t.Errorf("expected 5s default duration, got %v", s.Duration)
	}
	ac, err := s.AudioConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ac.Type != audioconfig.AudioCodecOpus || ac.SampleRate != audioconfig.SampleRateOpus {
		t.Errorf("expected opus defaults, got %+v", ac)
	}
	if ac.Bitrate != audioconfig.BitrateOpus || !ac.DTX {
		t.Errorf("unexpected opus tuning %+v", ac)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CAPTURE_CODEC", "pcmu")
	t.Setenv("CAPTURE_DURATION", "1500ms")
	t.Setenv("CAPTURE_DTX", "false")
	t.Setenv("CAPTURE_BUFFER", "16")

	s, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Duration != 1500*time.Millisecond {
		t.Errorf("expected 1.5s, got %v", s.Duration)
	}
	ac, err := s.AudioConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ac.Type != audioconfig.AudioCodecPCMU || ac.DTX || ac.BufferSize != 16 {
		t.Errorf("env overrides not applied: %+v", ac)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.yaml")
	content := "codec: pcm\nduration: 2s\nchannels: 1\ndevice_rate: 48000\noutput: out.wav\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	s, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Output != "out.wav" {
		t.Errorf("expected output from file, got %q", s.Output)
	}
	ac, err := s.AudioConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ac.Channels != 1 || ac.DeviceSampleRate != 48000 || !ac.NeedsResampling() {
		t.Errorf("file overrides not applied: %+v", ac)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for explicit missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		s    Settings
		want error
	}{
		{"zero duration", Settings{Codec: "opus"}, ErrInvalidDuration},
		{"unknown codec", Settings{Codec: "aac", Duration: time.Second}, audioconfig.ErrUnknownCodec},
		{"three channels", Settings{Codec: "pcm", Duration: time.Second, Channels: 3}, audioconfig.ErrInvalidChannels},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.s.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
