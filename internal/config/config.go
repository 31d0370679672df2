package config

import (
        "database/sql"
        "log"
        "os"
        "strconv"
        "time"
        _ "github.com/lib/pq"
)

type Config struct {
        // Database configuration (bootstrap only)
        DatabaseURL      string
        DatabaseMaxConns int
        DatabaseTimeout  time.Duration

        // Server configuration (bootstrap only)
        Port        string
        Environment string
        LogLevel    string

        // Everything else from database
        JWTSecret          string
        EncryptionKey      string
        SessionTimeout     time.Duration
        MFARequired        bool
        RateLimitPerMinute int

        // External services (all from database)
        SuggestionAPIKey string // address-suggestion/geocoding provider, used by internal/address

        // Redis configuration (from database)
        RedisURL      string
        RedisPassword string
        RedisDB       int

        // Email configuration (from database)
        SMTPHost     string
        SMTPPort     int
        SMTPUsername string
        SMTPPassword string

        // Email configuration (from database)
        EmailFromAddress  string
        EmailFromName     string

        // Notification channels (from database), used by internal/notify
        TwilioAccountSID  string
        TwilioAuthToken   string
        TwilioPhoneNumber string
        SendGridAPIKey    string
        AWSRegion         string
        AWSSNSTopicARN    string

        // Valuation defaults (from database) — the business constants spec.md
        // §3/§4 name as tunable inputs rather than hardcoded literals.
        BargainDiscount    float64 // default 0.07, asking-price markdown
        BottomKBargain     float64 // default 0.93, bottom-K bargain multiplier
        TransactionBargain float64 // default 0.07, CIAN discount in the combined engine
        KNNDefaultK        int     // default 10
        KNNMaxDistanceKm   float64 // default 5.0
        KNNMaxAgeDays      int     // default 90
        TransactionMaxAgeDays int  // default 365
        MonthlyProfitRate  float64 // default 0.04, "4%/month" investment target
        MortgageRate       float64 // default 0.02, "2%/month" bank-flip rate
        TaxRate            float64 // default 0.06
        RenovationBonusMultiplier float64 // default 1.8
        RegionRefreshInterval time.Duration // default 1h, region polygon cache refresh
}

var AppConfig *Config

func LoadConfig() *Config {
        log.Printf("🔧 DEBUG: LoadConfig called")
        
        // Initialize database connection for config loading
        dbURL := os.Getenv("DATABASE_URL")
        if dbURL == "" {
                log.Fatal("❌ DATABASE_URL environment variable required for bootstrap")
        }
        log.Printf("🔧 DEBUG: DATABASE_URL loaded from env")

        // Load all settings from database
        dbSettings := loadAllDatabaseSettings(dbURL)
        log.Printf("🔧 DEBUG: loadAllDatabaseSettings returned %d settings", len(dbSettings))
        
        // Debug: Print JWT_SECRET specifically
        if jwtSecret, exists := dbSettings["JWT_SECRET"]; exists {
                if len(jwtSecret) > 10 {
                        log.Printf("🔧 DEBUG: JWT_SECRET found in settings: %s...", jwtSecret[:10])
                } else {
                        log.Printf("🔧 DEBUG: JWT_SECRET found in settings: %s", jwtSecret)
                }
        } else {
                log.Printf("❌ DEBUG: JWT_SECRET NOT found in settings")
        }

        config := &Config{
                // Bootstrap from environment (minimum required)
                DatabaseURL: dbURL,
                Port:        getEnv("PORT", "8080"),
                Environment: getEnv("ENVIRONMENT", "production"),
                LogLevel:    getEnv("LOG_LEVEL", "info"),

                // Database connection settings
                DatabaseMaxConns: getDbSettingInt(dbSettings, "DATABASE_MAX_CONNS", 25),
                DatabaseTimeout:  time.Duration(getDbSettingInt(dbSettings, "DATABASE_TIMEOUT_SECONDS", 30)) * time.Second,

                // Security (ALL from database)
                JWTSecret:          dbSettings["JWT_SECRET"],
                EncryptionKey:      dbSettings["ENCRYPTION_KEY"],
                SessionTimeout:     time.Duration(getDbSettingInt(dbSettings, "SESSION_TIMEOUT_MINUTES", 60)) * time.Minute,
                MFARequired:        getDbSettingBool(dbSettings, "MFA_REQUIRED", false),
                RateLimitPerMinute: getDbSettingInt(dbSettings, "RATE_LIMIT_REQUESTS_PER_MINUTE", 100),

                // External services (ALL from database)
                SuggestionAPIKey: dbSettings["SUGGESTION_API_KEY"],

                // Redis
                RedisURL:      getDbSetting(dbSettings, "REDIS_URL", "localhost:6379"),
                RedisPassword: dbSettings["REDIS_PASSWORD"],
                RedisDB:       getDbSettingInt(dbSettings, "REDIS_DB", 0),

                // Email
                SMTPHost:     getDbSetting(dbSettings, "SMTP_HOST", "localhost"),
                SMTPPort:     getDbSettingInt(dbSettings, "SMTP_PORT", 587),
                SMTPUsername: dbSettings["SMTP_USERNAME"],
                SMTPPassword: dbSettings["SMTP_PASSWORD"],

                // Email settings
                EmailFromAddress: getDbSetting(dbSettings, "EMAIL_FROM_ADDRESS", "valuations@example.com"),
                EmailFromName:    getDbSetting(dbSettings, "EMAIL_FROM_NAME", "Moscow Valuation Engine"),

                // Notification channels
                TwilioAccountSID:  dbSettings["TWILIO_ACCOUNT_SID"],
                TwilioAuthToken:   dbSettings["TWILIO_AUTH_TOKEN"],
                TwilioPhoneNumber: dbSettings["TWILIO_PHONE_NUMBER"],
                SendGridAPIKey:    dbSettings["SENDGRID_API_KEY"],
                AWSRegion:         getDbSetting(dbSettings, "AWS_REGION", "eu-central-1"),
                AWSSNSTopicARN:    dbSettings["AWS_SNS_TOPIC_ARN"],

                // Valuation defaults
                BargainDiscount:           getDbSettingFloat(dbSettings, "BARGAIN_DISCOUNT", 0.07),
                BottomKBargain:            getDbSettingFloat(dbSettings, "BOTTOM_K_BARGAIN", 0.93),
                TransactionBargain:        getDbSettingFloat(dbSettings, "TRANSACTION_BARGAIN", 0.07),
                KNNDefaultK:               getDbSettingInt(dbSettings, "KNN_DEFAULT_K", 10),
                KNNMaxDistanceKm:          getDbSettingFloat(dbSettings, "KNN_MAX_DISTANCE_KM", 5.0),
                KNNMaxAgeDays:             getDbSettingInt(dbSettings, "KNN_MAX_AGE_DAYS", 90),
                TransactionMaxAgeDays:     getDbSettingInt(dbSettings, "TRANSACTION_MAX_AGE_DAYS", 365),
                MonthlyProfitRate:         getDbSettingFloat(dbSettings, "MONTHLY_PROFIT_RATE", 0.04),
                MortgageRate:              getDbSettingFloat(dbSettings, "MORTGAGE_RATE", 0.02),
                TaxRate:                   getDbSettingFloat(dbSettings, "TAX_RATE", 0.06),
                RenovationBonusMultiplier: getDbSettingFloat(dbSettings, "RENOVATION_BONUS_MULTIPLIER", 1.8),
                RegionRefreshInterval:     time.Duration(getDbSettingInt(dbSettings, "REGION_REFRESH_MINUTES", 60)) * time.Minute,
        }

        if len(config.JWTSecret) > 10 {
                log.Printf("🔧 DEBUG: Config struct created with JWT: %s...", config.JWTSecret[:10])
        } else {
                log.Printf("🔧 DEBUG: Config struct created with JWT: %s", config.JWTSecret)
        }
        AppConfig = config
        return config
}

func loadAllDatabaseSettings(dbURL string) map[string]string {
        log.Printf("🔧 DEBUG: Starting loadAllDatabaseSettings")
        settings := make(map[string]string)

        db, err := sql.Open("postgres", dbURL)
        if err != nil {
                log.Printf("❌ WARNING: Could not connect to database for settings: %v", err)
                return settings
        }
        defer db.Close()
        log.Printf("🔧 DEBUG: Database connection opened successfully")

        // Test connection first
        if err := db.Ping(); err != nil {
                log.Printf("❌ WARNING: Database ping failed: %v", err)
                return settings
        }
        log.Printf("🔧 DEBUG: Database ping successful")

        rows, err := db.Query("SELECT key, value FROM system_settings")
        if err != nil {
                log.Printf("❌ WARNING: Could not load settings from database: %v", err)
                return settings
        }
        defer rows.Close()
        log.Printf("🔧 DEBUG: Settings query executed successfully")

        for rows.Next() {
                var key, value string
                if err := rows.Scan(&key, &value); err != nil {
                        log.Printf("❌ WARNING: Could not scan setting row: %v", err)
                        continue
                }
                settings[key] = value
                
                // Safe debug logging - avoid slice bounds crash
                if len(value) > 10 {
                        log.Printf("🔧 DEBUG: Loaded setting: %s = %s...", key, value[:10])
                } else {
                        log.Printf("🔧 DEBUG: Loaded setting: %s = %s", key, value)
                }
        }

        if err := rows.Err(); err != nil {
                log.Printf("❌ WARNING: Error iterating settings rows: %v", err)
        }

        log.Printf("✅ Loaded %d settings from database", len(settings))
        return settings
}

func getDbSetting(settings map[string]string, key, defaultValue string) string {
        if value, exists := settings[key]; exists && value != "" {
                return value
        }
        return defaultValue
}

func getDbSettingInt(settings map[string]string, key string, defaultValue int) int {
        if value, exists := settings[key]; exists && value != "" {
                if intVal, err := strconv.Atoi(value); err == nil {
                        return intVal
                }
        }
        return defaultValue
}

func getDbSettingFloat(settings map[string]string, key string, defaultValue float64) float64 {
        if value, exists := settings[key]; exists && value != "" {
                if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
                        return floatVal
                }
        }
        return defaultValue
}

func getDbSettingBool(settings map[string]string, key string, defaultValue bool) bool {
        if value, exists := settings[key]; exists {
                return value == "true" || value == "1"
        }
        return defaultValue
}

func (c *Config) IsDevelopment() bool {
        return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
        return c.Environment == "production"
}

func (c *Config) HasJWTSecret() bool {
        return c.JWTSecret != ""
}

// Bootstrap helpers (only for DATABASE_URL, PORT, ENVIRONMENT, LOG_LEVEL)
func getEnv(key, defaultValue string) string {
        if value := os.Getenv(key); value != "" {
                return value
        }
        return defaultValue
}

func GetConfig() *Config {
        if AppConfig == nil {
                return LoadConfig()
        }
        return AppConfig
}
