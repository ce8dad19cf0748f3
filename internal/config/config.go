package config // package config loads application configuration from environment variables

import (
    "os"       // os provides access to environment variables
    "strconv"  // strconv converts strings to other types
    "time"     // time parses duration-valued variables
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The queue engine only strictly needs Redis to
// run; the audit database, the operator JWT guard and the AMQP event
// pipeline are all optional and switch off when their variables are unset.
type Config struct {
    Env            string // application environment (e.g. "dev", "prod")
    Port           string // HTTP port to listen on
    DBUser         string // audit database username (empty disables the audit trail)
    DBPass         string // audit database password (optional)
    DBHost         string // audit database host address
    DBPort         string // audit database port number
    DBName         string // audit database name
    AdminJWTSecret string // secret guarding the manual allow endpoint (empty = open)
    EventsEnabled  bool   // publish admission events to the message broker
    ConsumerOn     bool   // run the admission event consumer in this process
}

// Load reads configuration values from environment variables and returns a
// Config.  Unlike stricter deployments nothing here is hard-required: the
// port and environment have defaults, and the optional subsystems detect
// their own variables.
func Load() Config {
    return Config{
        Env:            getenv("APP_ENV", "dev"),
        Port:           getenv("APP_PORT", "9010"),
        DBUser:         os.Getenv("DB_USER"),
        DBPass:         os.Getenv("DB_PASS"),
        DBHost:         getenv("DB_HOST", "localhost"),
        DBPort:         getenv("DB_PORT", "3306"),
        DBName:         os.Getenv("DB_NAME"),
        AdminJWTSecret: os.Getenv("ADMIN_JWT_SECRET"),
        EventsEnabled:  envBool("ADMISSION_EVENTS_ENABLED", false),
        ConsumerOn:     envBool("ADMISSION_CONSUMER_ENABLED", false),
    }
}

// AuditEnabled reports whether enough database variables are present to
// record promotion batches.  Host and port fall back to defaults, so the
// user and database name are the deciding values.
func (c Config) AuditEnabled() bool {
    return c.DBUser != "" && c.DBName != ""
}

// getenv returns the value of key, or def when the variable is unset or empty.
func getenv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func envBool(k string, d bool) bool {
    v := os.Getenv(k)
    if v == "" { return d }
    switch v {
    case "1","true","TRUE","True","yes","YES","on","ON": return true
    case "0","false","FALSE","False","no","NO","off","OFF": return false
    }
    return d
}

func envInt(k string, d int) int {
    v := os.Getenv(k); if v == "" { return d }
    if n, err := strconv.Atoi(v); err == nil { return n }
    return d
}

func envDur(k string, d time.Duration) time.Duration {
    v := os.Getenv(k); if v == "" { return d }
    if dur, err := time.ParseDuration(v); err == nil { return dur }
    return d
}
