package config

const (
	defaultConfigPath        = "~/.config/asciireel/config.toml"
	defaultStateDir          = "~/.local/share/asciireel"
	defaultLogDir            = "~/.local/share/asciireel/logs"
	defaultLogRetentionDays  = 30
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultOutputDir         = "output"
	defaultConvertFPS        = 15.0
	defaultConvertWidth      = 100
	defaultConvertHeight     = 50
	defaultPalette           = "very-detailed"
	defaultFFmpegBinary      = "ffmpeg"
	defaultFFprobeBinary     = "ffprobe"
	defaultPlayFPS           = 30.0
	defaultLoopDelayMillis   = 10
	defaultAudioBufferMillis = 100
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Convert: Convert{
			OutputDir:     defaultOutputDir,
			FPS:           defaultConvertFPS,
			Width:         defaultConvertWidth,
			Height:        defaultConvertHeight,
			Palette:       defaultPalette,
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
		Play: Play{
			FramesDir:         defaultOutputDir,
			FPS:               defaultPlayFPS,
			LoopDelayMillis:   defaultLoopDelayMillis,
			AudioBufferMillis: defaultAudioBufferMillis,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		History: History{
			Enabled: true,
		},
	}
}
