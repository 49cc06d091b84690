package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	DBDriver    string // postgres / sqlite
	DatabaseURL string // 空ならPOSTGRES_*から組み立てる

	JWTSecret string // JWT署名シークレット（検証のみ）

	GoEnv    string // dev/prod
	LogLevel string // debug/info/warn/error

	RedisAddr string // 空ならキャッシュ無効化を送らない

	MailHost     string
	MailPort     string
	MailUsername string // 空ならメールはログ出力のみ
	MailPassword string
	MailFrom     string
	AdminEmail   string // 在庫アラートの宛先
	StoreURL     string // 再入荷メールのリンク先

	VIPThreshold int64 // 累計購入額のVIP基準
}

// Loadは.envと環境変数から読む（APIサーバー用）
func Load() (Config, error) {
	return load(true)
}

// stockctl用。JWTの検証はしないのでJWT_SECRETはなくてよい
func LoadForCLI() (Config, error) {
	return load(false)
}

func load(requireJWT bool) (Config, error) {
	//.envはなくてもよい
	_ = godotenv.Load()

	vip, err := atoiDefault("VIP_THRESHOLD", 10000)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port: getenv("PORT", "8080"),

		DBDriver:    getenv("DB_DRIVER", "postgres"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		GoEnv:    getenv("GO_ENV", "dev"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		RedisAddr: os.Getenv("REDIS_ADDR"),

		MailHost:     getenv("MAIL_HOST", "localhost"),
		MailPort:     getenv("MAIL_PORT", "587"),
		MailUsername: os.Getenv("MAIL_USERNAME"),
		MailPassword: os.Getenv("MAIL_PASSWORD"),
		MailFrom:     getenv("MAIL_FROM", "noreply@example.com"),
		AdminEmail:   os.Getenv("ADMIN_EMAIL"),
		StoreURL:     strings.TrimRight(getenv("STORE_URL", "http://localhost:3000"), "/"),

		VIPThreshold: vip,
	}

	//必須チェック
	if requireJWT && cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.AdminEmail == "" {
		return Config{}, fmt.Errorf("ADMIN_EMAIL is required")
	}
	switch cfg.DBDriver {
	case "postgres", "sqlite":
	default:
		return Config{}, fmt.Errorf("DB_DRIVER must be postgres or sqlite")
	}
	if cfg.VIPThreshold <= 0 {
		return Config{}, fmt.Errorf("VIP_THRESHOLD must be > 0")
	}

	return cfg, nil
}

func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoiDefault(key string, def int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}
