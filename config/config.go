package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the runtime settings of the bot. Values come from the process
// environment, optionally preloaded from a .env file by main.
type Config struct {
	BotToken string `env:"BOT_TOKEN,required,notEmpty"`
	// AdminIDs are the Telegram ids allowed to run operator commands and the
	// recipients of spin reports, digests and backups.
	AdminIDs []int64 `env:"ADMIN_IDS" envSeparator:","`
	// ChannelID is the channel whose membership gates the wheel, either a
	// @username or a numeric chat id. Empty disables the membership check.
	ChannelID string `env:"CHANNEL_ID"`
	WebAppURL string `env:"WEBAPP_URL" envDefault:"https://bro4you.github.io/roulette"`
	DBPath    string `env:"DB_PATH" envDefault:"/etc/roulette-bot/spins.db"`

	// WindowPolicy selects how "one spin per window" is measured:
	// "rolling" (RollingDays after the previous spin) or "calendar"
	// (one spin per calendar month).
	WindowPolicy string `env:"WINDOW_POLICY" envDefault:"rolling"`
	RollingDays  int    `env:"ROLLING_DAYS" envDefault:"14"`

	// LossMarker classifies a prize label as a non-winning outcome when the
	// label contains it. Messaging only, never affects acceptance.
	LossMarker string `env:"LOSS_MARKER" envDefault:"Попробуй ещё"`

	OracleTimeout time.Duration `env:"ORACLE_TIMEOUT" envDefault:"5s"`
	// OracleFailOpen treats the user as subscribed when the membership check
	// fails or times out. Off by default: an unverifiable membership does not
	// unlock the wheel.
	OracleFailOpen bool `env:"ORACLE_FAIL_OPEN" envDefault:"false"`

	TimeZone  string `env:"TIME_ZONE" envDefault:"UTC"`
	Language  string `env:"LANGUAGE" envDefault:"ru"`
	StatsCron string `env:"STATS_CRON" envDefault:"@daily"`
	// BackupCron schedules the database push to the admins. Empty disables it.
	BackupCron string `env:"BACKUP_CRON"`

	// TgProxy is an optional socks5:// URL for reaching the Telegram API.
	TgProxy string `env:"TG_PROXY"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func IsDebug() bool {
	return os.Getenv("DEBUG") == "true"
}
