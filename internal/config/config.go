package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"winnersfit-data/pkg/database"
	"winnersfit-data/pkg/redisx"
)

// Config winnersfit-data（HTTP API）配置
type Config struct {
	HTTP struct {
		Addr string
	}
	Database database.Config
	Redis    redisx.Config
	Log      struct {
		Level  string
		Format string
	}
	Auth struct {
		JWTSecret string
		TokenTTL  time.Duration
	}
	Sync struct {
		// 本地写入后的新鲜窗口：窗口内跳过后台刷新
		FreshWindow time.Duration
		// 远端写入与本地计时器竞速的超时
		WriteTimeout time.Duration
	}
	Attendance struct {
		// 考勤令牌轮换周期与有效期（有效期略长于周期，留出扫码余量）
		RotatePeriod time.Duration
		TokenTTL     time.Duration
		// 打卡策略: "strict"（每天一进一出，打满即止）或 "toggle"（自由切换）
		Policy string
		// 出勤页深链接基础地址（生成二维码用的 URL 前缀）
		DeepLinkBase string
	}
	Mail MailConfig
}

// MailConfig 邮件服务配置（EmailJS 风格的模板发送 API）
type MailConfig struct {
	Enabled    bool
	APIBase    string
	ServiceID  string
	TemplateID string
	PublicKey  string
}

func Load() *Config {
	// 本地开发时从 .env 读取；文件不存在则忽略
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "winnersfit")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "20"), 20)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = parseInt(getEnv("REDIS_DB", "0"), 0)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", "change-me-in-production")
	cfg.Auth.TokenTTL = parseDuration(getEnv("JWT_TTL", "24h"), 24*time.Hour)

	cfg.Sync.FreshWindow = parseDuration(getEnv("SYNC_FRESH_WINDOW", "10s"), 10*time.Second)
	cfg.Sync.WriteTimeout = parseDuration(getEnv("SYNC_WRITE_TIMEOUT", "2500ms"), 2500*time.Millisecond)

	cfg.Attendance.RotatePeriod = parseDuration(getEnv("ATTENDANCE_ROTATE_PERIOD", "20s"), 20*time.Second)
	cfg.Attendance.TokenTTL = parseDuration(getEnv("ATTENDANCE_TOKEN_TTL", "25s"), 25*time.Second)
	cfg.Attendance.Policy = getEnv("ATTENDANCE_POLICY", "strict")
	cfg.Attendance.DeepLinkBase = getEnv("ATTENDANCE_DEEPLINK_BASE", "https://winnersfitcamp.app/attendance")

	cfg.Mail.Enabled = getEnv("MAIL_ENABLED", "false") == "true"
	cfg.Mail.APIBase = getEnv("MAIL_API_BASE", "https://api.emailjs.com")
	cfg.Mail.ServiceID = getEnv("MAIL_SERVICE_ID", "")
	cfg.Mail.TemplateID = getEnv("MAIL_TEMPLATE_ID", "")
	cfg.Mail.PublicKey = getEnv("MAIL_PUBLIC_KEY", "")

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func parseDuration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
