package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"soundcapture/internal/app"
	"soundcapture/pkg/config"
	"soundcapture/pkg/interface/desktop"
	"soundcapture/pkg/logger"
	"soundcapture/pkg/system"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "0.1.0"
	cfgFile string
	v       = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "soundcapture",
	Short: "Capture encoded audio frames for a fixed time",
	Long: `soundcapture opens the default capture device, encodes audio into fixed size
frames and logs every frame with its presentation timestamp until the capture
duration has elapsed.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCapture(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("soundcapture v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./soundcapture.yaml)")

	flags := rootCmd.Flags()
	flags.String("codec", "opus", "codec: opus, pcmu or pcm")
	flags.Duration("duration", 0, "capture duration (default 5s)")
	flags.Uint32("device-rate", 0, "capture device sample rate (default codec specific)")
	flags.Uint16("channels", 0, "channel count (default codec specific)")
	flags.Int("bitrate", 0, "opus bitrate in bits per second")
	flags.Bool("dtx", true, "skip silent frames")
	flags.String("output", "", "write frames to this file (.ogg, .wav, .raw)")
	flags.Bool("monitor", false, "play captured audio back on the default output device")
	flags.String("ws-addr", "", "serve a live frame stream on this address")
	flags.Bool("interactive", false, "read menu commands from stdin while capturing")
	flags.String("log-level", "info", "log level: trace, debug, info, warn, error")
	flags.Bool("log-pretty", false, "human readable logs")

	for _, name := range []string{
		"codec", "duration", "device-rate", "channels", "bitrate", "dtx",
		"output", "monitor", "ws-addr", "interactive", "log-level", "log-pretty",
	} {
		if err := v.BindPFlag(flagKey(name), flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(versionCmd)
}

func flagKey(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// loadEnv loads environment variables from a .env file when one exists
func loadEnv() {
	if err := system.LoadEnv(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		os.Exit(1)
	}
}

func runCapture(ctx context.Context) error {
	settings, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}
	logger.InitLogger(settings.LogLevel, settings.LogPretty)
	sessionLog := log.With().Str("session", system.GenerateSessionID()).Logger()

	sess, err := app.NewSession(settings, sessionLog)
	if err != nil {
		sessionLog.Error().Err(err).Msg("Failed to create capture session")
		return err
	}

	if settings.Interactive {
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		defer cancel()
		console, err := desktop.NewConsole(os.Stdin, os.Stdout, cancel, sess.Monitor())
		if err != nil {
			return err
		}
		go console.Run()
	}

	summary, err := sess.Run(ctx)
	if err != nil {
		sessionLog.Error().Err(err).Msg("Capture failed")
		return err
	}
	sessionLog.Info().
		Uint64("frames", summary.Frames).
		Uint64("bytes", summary.Bytes).
		Int64("first_pts", summary.FirstPTS).
		Int64("last_pts", summary.LastPTS).
		Msg("Done")
	return nil
}

func main() {
	loadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
