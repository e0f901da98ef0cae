package config

import (
	"encoding/hex"
	"os"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	RoomCodeRegex = "[0-9A-Za-z]{6}"
	IdRegex       = "[0-9a-v]{20}"
)

var (
	PortNumber, SessionsFile, StorageDriver, DatabaseURL, CookieHashKey, CookieBlockKey, SecretKey string
	PublicURL, AdminToken, LetsEncryptCertsDir, LogLevel                                         string
	UseLetsEncrypt, Debug                                                                         bool
	AllowedOrigins                                                                                []string
	SessionDuration, PresenceTimeout, SchedulerTick                                               time.Duration
	MaxLoadAvg                                                                                    float64
	MaxImageDimension, MaxImagePixels, MaxUploadMB                                                int
	SecureCookie                                                                                  *securecookie.SecureCookie
)

// Conf holds the merged flag, environment and .env configuration. Values are
// copied into the package variables by ParseFlags.
var Conf = viper.New()

func init() {
	setDefaults()
}

func setDefaults() {
	PortNumber = "3000"
	StorageDriver = "file"
	SessionsFile = "./feather/sessions"
	SecretKey = randomSecret()
	PublicURL = "http://localhost:3000"
	LogLevel = "info"
	AllowedOrigins = []string{"localhost"}
	SessionDuration = 4 * time.Hour
	PresenceTimeout = 45 * time.Second
	SchedulerTick = 5 * time.Second
	MaxLoadAvg = 100
	MaxImageDimension = 1600
	MaxImagePixels = 40_000_000
	MaxUploadMB = 10
	SecureCookie = securecookie.New([]byte(SecretKey), nil)
}

func ParseFlags() {
	ParseArgs(os.Args[1:])
}

// ParseArgs parses the given command line arguments. Environment variables
// prefixed with FEATHER_ (and the optional .env file) override the defaults
// but not explicit flags.
func ParseArgs(args []string) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			log.Fatalf("config.godotenv: %v", err)
		}
	}

	fs := pflag.NewFlagSet("feather", pflag.ExitOnError)
	fs.String("port", PortNumber, "Port number")
	fs.String("storage", StorageDriver, "Storage driver to use (file or postgres)")
	fs.String("save", SessionsFile, "Tell where to store the sessions file when using the file storage")
	fs.String("database-url", DatabaseURL, "Postgres connection url")
	fs.String("cookie-hash-key", CookieHashKey, "Hash key to use to validate cookies")
	fs.String("cookie-block-key", CookieBlockKey, "Block key to use to encrypt cookies")
	fs.String("secret-key", "", "Key used to sign teacher tokens. A random one is generated when empty")
	fs.String("public-url", PublicURL, "Public url students use to join sessions")
	fs.String("admin-token", AdminToken, "Token to validate admin user for admin endpoints")
	fs.String("letsencrypt-certs-dir", "/certs", "Path where let's encrypt certs will be stored")
	fs.Bool("letsencrypt-enable", UseLetsEncrypt, "Enabled let's encrypt tls certificates")
	fs.StringSlice("allowed-origins", AllowedOrigins, "Origin suffixes allowed for CORS requests")
	fs.Duration("session-duration", SessionDuration, "Default lifetime of a session")
	fs.Duration("presence-timeout", PresenceTimeout, "Time without heartbeat after which a client is considered gone")
	fs.Duration("scheduler-tick", SchedulerTick, "Interval of the periodic session tasks")
	fs.Float64("maxload", MaxLoadAvg, "Maximum allowed load average before failing ping requests")
	fs.Int("max-image-dimension", MaxImageDimension, "Longest side, in pixels, of stored images")
	fs.Int("max-image-pixels", MaxImagePixels, "Maximum width times height of an uploaded image")
	fs.Int("max-upload-mb", MaxUploadMB, "Maximum size of an uploaded image")
	fs.String("log-level", LogLevel, "Log level")
	fs.Bool("debug", Debug, "Debug mode")
	fs.Parse(args)

	Conf.SetEnvPrefix("feather")
	Conf.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	Conf.AutomaticEnv()
	if err := Conf.BindPFlags(fs); err != nil {
		log.Fatalf("config.BindPFlags: %v", err)
	}

	load()
}

func load() {
	PortNumber = Conf.GetString("port")
	StorageDriver = Conf.GetString("storage")
	SessionsFile = Conf.GetString("save")
	DatabaseURL = Conf.GetString("database-url")
	CookieHashKey = Conf.GetString("cookie-hash-key")
	CookieBlockKey = Conf.GetString("cookie-block-key")
	SecretKey = Conf.GetString("secret-key")
	PublicURL = strings.TrimSuffix(Conf.GetString("public-url"), "/")
	AdminToken = Conf.GetString("admin-token")
	LetsEncryptCertsDir = Conf.GetString("letsencrypt-certs-dir")
	UseLetsEncrypt = Conf.GetBool("letsencrypt-enable")
	AllowedOrigins = Conf.GetStringSlice("allowed-origins")
	SessionDuration = Conf.GetDuration("session-duration")
	PresenceTimeout = Conf.GetDuration("presence-timeout")
	SchedulerTick = Conf.GetDuration("scheduler-tick")
	MaxLoadAvg = Conf.GetFloat64("maxload")
	MaxImageDimension = Conf.GetInt("max-image-dimension")
	MaxImagePixels = Conf.GetInt("max-image-pixels")
	MaxUploadMB = Conf.GetInt("max-upload-mb")
	LogLevel = Conf.GetString("log-level")
	Debug = Conf.GetBool("debug")

	if lvl, err := log.ParseLevel(LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	if Debug {
		log.SetLevel(log.DebugLevel)
	}

	if SecretKey == "" {
		SecretKey = randomSecret()
		log.Warnln("No secret key configured, using a random one. Teacher tokens and cookies won't survive a restart.")
	}

	hashKey := CookieHashKey
	if hashKey == "" {
		hashKey = SecretKey
	}
	var blockKey []byte
	if CookieBlockKey != "" {
		blockKey = []byte(CookieBlockKey)
	}
	SecureCookie = securecookie.New([]byte(hashKey), blockKey)
}

func randomSecret() string {
	return hex.EncodeToString(securecookie.GenerateRandomKey(32))
}

func GetDuration(d time.Duration) time.Duration {
	if d <= 0 {
		return SessionDuration
	}
	return d
}
