package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode   string `mapstructure:"mode"`
	Port   int    `mapstructure:"port"`
	Secret string `mapstructure:"secret"`

	LiveKitURL string `mapstructure:"livekit_url"`
	APIKey     string `mapstructure:"livekit_api_key"`
	APISecret  string `mapstructure:"livekit_api_secret"`

	ConnectTimeout  time.Duration `mapstructure:"room_connect_timeout"`
	ReplyTimeout    time.Duration `mapstructure:"reply_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	TokenTTL        time.Duration `mapstructure:"token_ttl"`

	OpenAIKey       string `mapstructure:"openai_api_key"`
	RealtimeModel   string `mapstructure:"openai_realtime_model"`
	Voice           string `mapstructure:"openai_voice"`
	TTSInstructions string `mapstructure:"tts_instructions"`
	STTModel        string `mapstructure:"stt_model"`
	STTLanguage     string `mapstructure:"stt_language"`

	Greeting     string `mapstructure:"welcome_message"`
	Instructions string `mapstructure:"instructions"`

	DatabaseURL string `mapstructure:"database_url"`
}

const defaultInstructions = `You are Kali-E, a helpful voice assistant.
You respond with clear, concise information.
You are polite, intelligent, and eager to help.`

const defaultGreeting = "Hello, I'm Kali-E, your voice assistant. How can I help you today?"

// envKeys maps viper keys to the environment variables the service
// recognizes. Env always wins over the config file.
var envKeys = map[string]string{
	"mode":                  "MODE",
	"port":                  "PORT",
	"secret":                "SECRET",
	"livekit_url":           "LIVEKIT_URL",
	"livekit_api_key":       "LIVEKIT_API_KEY",
	"livekit_api_secret":    "LIVEKIT_API_SECRET",
	"room_connect_timeout":  "ROOM_CONNECT_TIMEOUT",
	"reply_timeout":         "REPLY_TIMEOUT",
	"shutdown_timeout":      "SHUTDOWN_TIMEOUT",
	"token_ttl":             "TOKEN_TTL",
	"openai_api_key":        "OPENAI_API_KEY",
	"openai_realtime_model": "OPENAI_REALTIME_MODEL",
	"openai_voice":          "OPENAI_VOICE",
	"tts_instructions":      "TTS_INSTRUCTIONS",
	"stt_model":             "STT_MODEL",
	"stt_language":          "STT_LANGUAGE",
	"welcome_message":       "WELCOME_MESSAGE",
	"instructions":          "INSTRUCTIONS",
	"database_url":          "DATABASE_URL",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("secret", "kali-e-dev-secret")
	v.SetDefault("room_connect_timeout", "60s")
	v.SetDefault("reply_timeout", "30s")
	v.SetDefault("shutdown_timeout", "10s")
	v.SetDefault("token_ttl", "6h")
	v.SetDefault("openai_realtime_model", "gpt-4o-realtime-preview")
	v.SetDefault("openai_voice", "alloy")
	v.SetDefault("tts_instructions", "Speak in a friendly, conversational tone.")
	v.SetDefault("stt_model", "nova-3")
	v.SetDefault("stt_language", "en")
	v.SetDefault("welcome_message", defaultGreeting)
	v.SetDefault("instructions", defaultInstructions)

	for key, envVar := range envKeys {
		_ = v.BindEnv(key, envVar)
	}

	if err := v.ReadInConfig(); err != nil {
		log.Info().Str("module", "config").Str("file", fileName).Msg("no config file, using env and defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config file")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
