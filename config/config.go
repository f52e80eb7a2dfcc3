package config

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"os"
	"strconv"
)

type Config struct {
	AppName       string `json:"app_name"`
	ListenIP      string `json:"listen_ip"`
	ListenPort    int    `json:"listen_port"`
	DBPath        string `json:"db_path"`
	SessionKey    string `json:"session_key"`
	AdminUsername string `json:"admin_username"`
	AllowedOrigin string `json:"allowed_origin"`

	// DevMode turns off the Secure flag on cookies for plain-HTTP local runs.
	DevMode bool `json:"dev_mode"`

	// Bootstrap password for the admin user. Environment only, never read
	// from the config file.
	AdminPassword string `json:"-"`
}

var AppConfig Config

func defaults() Config {
	return Config{
		AppName:       "Folio",
		ListenIP:      "0.0.0.0",
		ListenPort:    8080,
		DBPath:        "./folio.db",
		AdminUsername: "admin",
	}
}

// LoadConfig reads the JSON config file, then applies FOLIO_* environment
// overrides. A missing file is not an error; defaults plus environment are
// enough to run.
func LoadConfig(path string) error {
	AppConfig = defaults()

	file, err := os.Open(path)
	if err == nil {
		defer file.Close()
		decoder := json.NewDecoder(file)
		if err := decoder.Decode(&AppConfig); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	if v := os.Getenv("FOLIO_SESSION_KEY"); v != "" {
		AppConfig.SessionKey = v
	}
	if v := os.Getenv("FOLIO_ADMIN_USER"); v != "" {
		AppConfig.AdminUsername = v
	}
	AppConfig.AdminPassword = os.Getenv("FOLIO_ADMIN_PASSWORD")
	if v := os.Getenv("FOLIO_ALLOWED_ORIGIN"); v != "" {
		AppConfig.AllowedOrigin = v
	}
	if v := os.Getenv("FOLIO_DB_PATH"); v != "" {
		AppConfig.DBPath = v
	}
	if v := os.Getenv("FOLIO_LISTEN_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		AppConfig.ListenPort = port
	}
	if v := os.Getenv("FOLIO_DEV_MODE"); v != "" {
		devMode, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		AppConfig.DevMode = devMode
	}

	// If no key is provided or it's the placeholder, generate a secure random one
	if AppConfig.SessionKey == "" || AppConfig.SessionKey == "CHANGE_ME_IN_PRODUCTION" {
		log.Println("WARNING: No session key configured. Generating a random key. Sessions will be invalidated on restart.")
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err != nil {
			return err
		}
		AppConfig.SessionKey = hex.EncodeToString(randomKey)
	}

	return nil
}
