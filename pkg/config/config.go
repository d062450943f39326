package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pershin-daniil/MeetBot/pkg/models"
	"github.com/pershin-daniil/MeetBot/pkg/timeutil"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Address          string
	DSN              string
	TelegramToken    string
	RedisAddr        string
	KafkaBrokers     string
	KafkaTopic       string
	UsersFile        string
	CleanupInterval  time.Duration
	NotifyInterval   time.Duration
	MeetingTimes     []string
	MeetingDurations []int
	WorkdayCount     int
	JWTKeyFile       string
	TokenTTL         time.Duration
	GoogleCredsFile  string
	GoogleTokenFile  string
	GoogleCalendarID string
	RatePerMinute    int
	LogLevel         string
}

// UsersFile is the YAML layout of the user directory.
type UsersFile struct {
	Users []models.User `yaml:"users"`
}

func Load() (Config, error) {
	cfg := Config{
		Address:          LookupEnv("ADDRESS", ":8080"),
		DSN:              LookupEnv("DB_DSN", "file:meetbot.db?_pragma=foreign_keys(1)"),
		TelegramToken:    os.Getenv("TG_TOKEN"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		KafkaBrokers:     os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:       LookupEnv("KAFKA_TOPIC", "meetbot.meetings"),
		UsersFile:        LookupEnv("USERS_FILE", "configs/users.yaml"),
		JWTKeyFile:       os.Getenv("JWT_KEY_FILE"),
		GoogleCredsFile:  os.Getenv("GOOGLE_CREDENTIALS_FILE"),
		GoogleTokenFile:  LookupEnv("GOOGLE_TOKEN_FILE", "token.json"),
		GoogleCalendarID: os.Getenv("GOOGLE_CALENDAR_ID"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
	}
	var err error
	if cfg.CleanupInterval, err = durationEnv("CLEANUP_INTERVAL", time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.NotifyInterval, err = durationEnv("NOTIFY_INTERVAL", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.TokenTTL, err = durationEnv("TOKEN_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.WorkdayCount, err = intEnv("WORKDAYS_COUNT", timeutil.DefaultWorkdayCount); err != nil {
		return Config{}, err
	}
	if cfg.RatePerMinute, err = intEnv("TG_RATE_PER_MIN", 60); err != nil {
		return Config{}, err
	}
	if cfg.MeetingTimes, err = ParseTimes(LookupEnv("MEETING_TIMES", "09:00,10:00,11:00,14:00,15:00,16:00")); err != nil {
		return Config{}, err
	}
	if cfg.MeetingDurations, err = ParseDurations(LookupEnv("MEETING_DURATIONS", "30,60,120,180")); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func LookupEnv(key, defaultValue string) string {
	result := os.Getenv(key)
	if result == "" {
		return defaultValue
	}
	return result
}

func durationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return d, nil
}

func intEnv(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return n, nil
}

func ParseTimes(raw string) ([]string, error) {
	var times []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		normalized, err := timeutil.Canonical(part)
		if err != nil {
			return nil, fmt.Errorf("invalid meeting time: %w", err)
		}
		times = append(times, normalized)
	}
	if len(times) == 0 {
		return nil, fmt.Errorf("no meeting times configured")
	}
	return times, nil
}

func ParseDurations(raw string) ([]int, error) {
	var durations []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid meeting duration %q", part)
		}
		durations = append(durations, n)
	}
	if len(durations) == 0 {
		return nil, fmt.Errorf("no meeting durations configured")
	}
	return durations, nil
}

func LoadUsers(path string) ([]models.User, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("err reading users file: %w", err)
	}
	var file UsersFile
	if err = yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("err parsing users file %s: %w", path, err)
	}
	if len(file.Users) == 0 {
		return nil, fmt.Errorf("users file %s has no users", path)
	}
	return file.Users, nil
}
