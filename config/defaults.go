package config

const (
	defaultConfigPath       = "~/.config/streamfront/config.toml"
	defaultDataDir          = "~/.local/share/streamfront"
	defaultTokenFile        = "~/.local/share/streamfront/token"
	defaultBind             = "127.0.0.1:7600"
	defaultReadTimeout      = 15
	defaultWriteTimeout     = 30
	defaultTMDBBaseURL      = "https://api.themoviedb.org/3"
	defaultTMDBImageBaseURL = "https://image.tmdb.org/t/p"
	defaultTMDBLanguage     = "en-US"
	defaultTMDBTimeout      = 10
	defaultStoreBackend     = StoreSQLite
	defaultSQLiteName       = "favorites.db"
	defaultFirestoreColl    = "users"
	defaultSessionHours     = 30 * 24
	defaultAuthPerMinute    = 10
	defaultAuthBurst        = 5
	defaultLogMaxSizeMB     = 20
	defaultLogMaxBackups    = 5
	defaultLogMaxAgeDays    = 30
)

// Document store backends.
const (
	StoreMemory    = "memory"
	StoreSQLite    = "sqlite"
	StoreFirestore = "firestore"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			Bind:                defaultBind,
			ReadTimeoutSeconds:  defaultReadTimeout,
			WriteTimeoutSeconds: defaultWriteTimeout,
		},
		Paths: Paths{
			DataDir:   defaultDataDir,
			TokenFile: defaultTokenFile,
		},
		TMDB: TMDB{
			BaseURL:        defaultTMDBBaseURL,
			ImageBaseURL:   defaultTMDBImageBaseURL,
			Language:       defaultTMDBLanguage,
			TimeoutSeconds: defaultTMDBTimeout,
		},
		Store: Store{
			Backend:             defaultStoreBackend,
			FirestoreCollection: defaultFirestoreColl,
		},
		Sessions: Sessions{
			DurationHours: defaultSessionHours,
		},
		RateLimit: RateLimit{
			AuthPerMinute: defaultAuthPerMinute,
			AuthBurst:     defaultAuthBurst,
		},
		Logging: Logging{
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
	}
}
