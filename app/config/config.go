package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config.yaml"

type Config struct {
	Log     Log     `yaml:"log"`
	API     API     `yaml:"api"`
	Voice   Voice   `yaml:"voice"`
	Yandex  Yandex  `yaml:"yandex"`
	Preview Preview `yaml:"preview"`
	News    News    `yaml:"news"`
	TTS     TTS     `yaml:"tts"`
	Auth    Auth    `yaml:"auth"`
	Server  Server  `yaml:"server"`
}

type API struct {
	// Backend base url, without the /api/v1 suffix
	BaseURL string `yaml:"base_url" example:"http://15.165.68.253:8080" validate:"required,url"`
	// Request timeout
	Timeout time.Duration `yaml:"timeout" example:"10s"`
}

type Voice struct {
	// Recognition language
	Language string `yaml:"language" example:"ko-KR" validate:"required"`
	// Microphone sample rate in Hz
	SampleRate int `yaml:"sample_rate" example:"16000" validate:"gt=0"`
}

type Yandex struct {
	SpeechKit SpeechKit `yaml:"speech_kit"`
}

type SpeechKit struct {
	// Path to the service account key json
	KeyFile string `yaml:"key_file" example:"service-account-key.json"`
	// Recognition model
	Model string `yaml:"model" example:"general"`
	// Silence after which an utterance is considered finished
	EndOfUtterancePause time.Duration `yaml:"end_of_utterance_pause" example:"500ms"`
}

type Preview struct {
	// Page fetch timeout
	FetchTimeout time.Duration `yaml:"fetch_timeout" example:"6s"`
	// User-Agent sent with page fetches
	UserAgent string `yaml:"user_agent"`
	// Accept-Language sent with page fetches
	AcceptLanguage string `yaml:"accept_language" example:"ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7"`
	// Max cached previews, negative disables eviction
	CacheCapacity int `yaml:"cache_capacity" example:"512"`
	// Carousel rotation interval
	RotationInterval time.Duration `yaml:"rotation_interval" example:"3s"`
	// Max page size to download
	MaxPageBytes int64 `yaml:"max_page_bytes" example:"2097152"`
	// Max page fetches per second, 0 means unlimited
	FetchRate float64 `yaml:"fetch_rate" example:"4" validate:"gte=0"`
	// Download preview images after extraction
	ImagePrewarm *bool `yaml:"image_prewarm" example:"true"`
}

type News struct {
	// Lookback window in days
	Days int `yaml:"days" example:"7" validate:"gt=0"`
	// Max links per answer
	MaxLinks int `yaml:"max_links" example:"5" validate:"gt=0"`
}

type TTS struct {
	// Speech synthesis command, the text is appended as the last argument
	Command string `yaml:"command" example:"espeak-ng"`
	// Extra arguments
	Args []string `yaml:"args" example:"[\"-v\", \"ko\"]"`
}

type Auth struct {
	// Directory for device keys and tokens
	DataDir string `yaml:"data_dir" example:"data"`
}

type Server struct {
	// Local HTTP surface listen address, empty disables it
	Listen string `yaml:"listen" example:"127.0.0.1:8765"`
}

type Log struct {
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" example:"1001234567890"`
}

func (p Preview) PrewarmEnabled() bool {
	return p.ImagePrewarm == nil || *p.ImagePrewarm
}

func Load(path string) (*Config, error) {
	var result Config

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, oops.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, oops.Errorf("failed to read config file: %w", err)
	}

	if err = yaml.Unmarshal(data, &result); err != nil {
		return nil, oops.Errorf("failed to parse YAML config: %w", err)
	}

	applyEnv(&result)
	applyDefaults(&result)

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	return &result, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("API_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		cfg.Log.Telegram.Token = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 10 * time.Second
	}

	if cfg.Voice.Language == "" {
		cfg.Voice.Language = "ko-KR"
	}
	if cfg.Voice.SampleRate == 0 {
		cfg.Voice.SampleRate = 16000
	}

	if cfg.Yandex.SpeechKit.KeyFile == "" {
		cfg.Yandex.SpeechKit.KeyFile = "service-account-key.json"
	}
	if cfg.Yandex.SpeechKit.Model == "" {
		cfg.Yandex.SpeechKit.Model = "general"
	}
	if cfg.Yandex.SpeechKit.EndOfUtterancePause == 0 {
		cfg.Yandex.SpeechKit.EndOfUtterancePause = 500 * time.Millisecond
	}

	if cfg.Preview.FetchTimeout == 0 {
		cfg.Preview.FetchTimeout = 6 * time.Second
	}
	if cfg.Preview.UserAgent == "" {
		cfg.Preview.UserAgent = "Mozilla/5.0 (Linux; Android 13; RN) AppleWebKit/537.36 Chrome/120 Mobile Safari/537.36"
	}
	if cfg.Preview.AcceptLanguage == "" {
		cfg.Preview.AcceptLanguage = "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7"
	}
	if cfg.Preview.CacheCapacity == 0 {
		cfg.Preview.CacheCapacity = 512
	}
	if cfg.Preview.RotationInterval == 0 {
		cfg.Preview.RotationInterval = 3 * time.Second
	}
	if cfg.Preview.MaxPageBytes == 0 {
		cfg.Preview.MaxPageBytes = 2 * 1024 * 1024
	}

	if cfg.News.Days == 0 {
		cfg.News.Days = 7
	}
	if cfg.News.MaxLinks == 0 {
		cfg.News.MaxLinks = 5
	}

	if cfg.TTS.Command == "" {
		cfg.TTS.Command = "espeak-ng"
		if len(cfg.TTS.Args) == 0 {
			cfg.TTS.Args = []string{"-v", "ko"}
		}
	}

	if cfg.Auth.DataDir == "" {
		cfg.Auth.DataDir = "data"
	}
}
