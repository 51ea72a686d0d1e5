package config

import "os"

type Config struct {
	Port                    string
	Env                     string
	AuthMode                string // "jwt" or "firebase"
	JWTSecret               string
	FirebaseCredentialsPath string
	PostgresConnStr         string
	MongoURI                string
}

func Load() *Config {
	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		AuthMode:                getEnv("AUTH_MODE", "jwt"),
		JWTSecret:               getEnv("JWT_SECRET", "supersecretjwtkey"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./firebase_credentials.json"),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
