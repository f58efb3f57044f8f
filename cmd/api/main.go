package main

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/oauth2"

	"releasedesk/internal/blob"
	"releasedesk/internal/config"
	"releasedesk/internal/credentials"
	"releasedesk/internal/database"
	"releasedesk/internal/domain/feed"
	"releasedesk/internal/domain/release"
	"releasedesk/internal/domain/session"
	"releasedesk/internal/middleware"
	jwtsvc "releasedesk/internal/pkg/jwt"
	"releasedesk/internal/tabular"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file loaded, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if cfg.IsProdLike() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	if err := db.AutoMigrate(&session.Session{}); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}

	sealer, err := session.NewSealer(cfg.SessionKey)
	if err != nil {
		log.Fatalf("session sealer: %v", err)
	}
	j := jwtsvc.New(cfg.JWTSecret, cfg.SessionTTL)
	sessionService := session.NewService(session.NewRepository(db), sealer, j)
	cookie := session.CookieConfig{
		Name:     session.DefaultCookieName,
		Path:     cfg.CookiePath,
		Secure:   cfg.CookieSecure,
		SameSite: session.ParseSameSite(cfg.CookieSameSite),
	}
	sessionHandler := session.NewHandler(sessionService, cookie)

	provider := newProvider(cfg)
	store := release.NewStore(
		tabular.NewClient(provider, cfg.GoogleAPIEndpoint),
		blob.NewClient(provider, cfg.GoogleAPIEndpoint),
		release.Config{
			SpreadsheetID: cfg.SpreadsheetID,
			SheetName:     cfg.SheetName,
			FolderID:      cfg.DriveFolderID,
		},
	)

	hub := feed.NewHub()
	releaseHandler := release.NewHandler(store, hub)
	feedHandler := feed.NewHandler(hub, middleware.OriginAllowed())

	r := gin.Default()
	r.MaxMultipartMemory = 2 * blob.MaxFileSize
	r.Use(middleware.ErrorLogger())
	r.Use(middleware.CORS())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		sessionHandler.RegisterRoutes(v1)

		authed := v1.Group("")
		authed.Use(middleware.SessionAuth(sessionService, cookie.Name))
		{
			releases := releaseHandler.RegisterRoutes(authed)
			feedHandler.RegisterRoutes(releases)
		}
	}

	log.Printf("releasedesk listening addr=%s env=%s sheet=%q", cfg.HTTPAddr, cfg.AppEnv, cfg.SheetName)
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatal(err)
	}
}

// newProvider picks the fixed service token when one is configured and the
// per-session Google token otherwise.
func newProvider(cfg *config.Config) credentials.Provider {
	if cfg.ServiceAccessToken != "" {
		log.Println("using SERVICE_ACCESS_TOKEN for all Google calls")
		return credentials.NewStaticProvider(cfg.ServiceAccessToken, nil)
	}

	var oauth *oauth2.Config
	if cfg.GoogleClientID != "" {
		oauth = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: cfg.GoogleTokenURL},
		}
	}
	return credentials.NewSessionProvider(oauth, nil)
}
