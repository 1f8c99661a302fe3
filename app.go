package threadline

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"

	"github.com/gorilla/sessions"
	"github.com/nasermirzaei89/env"
	"github.com/nasermirzaei89/threadline/db/memory"
	"github.com/nasermirzaei89/threadline/db/sqlite3"
	"github.com/nasermirzaei89/threadline/discuss"
	"github.com/nasermirzaei89/threadline/random"
	"github.com/nasermirzaei89/threadline/server"
	"github.com/nasermirzaei89/threadline/web"
)

// MemoryDSN selects the in-process comment repository instead of sqlite.
const MemoryDSN = "memory"

type App struct {
	server  *server.Server
	handler *web.Handler
	db      *sql.DB
}

func NewApp(ctx context.Context) (*App, error) {
	maxDepth, err := GetMaxDepthFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to read comments max depth: %w", err)
	}

	flattener, err := discuss.NewFlattener(maxDepth)
	if err != nil {
		return nil, fmt.Errorf("failed to create flattener: %w", err)
	}

	commentRepo, db, err := newCommentRepository(ctx, env.GetString("DB_DSN", "file::memory:?cache=shared"))
	if err != nil {
		return nil, fmt.Errorf("failed to create comment repository: %w", err)
	}

	var discussSvc discuss.Service = discuss.NewEngine(commentRepo, discuss.NewBuffer(), flattener)
	discussSvc = discuss.NewLoggingMiddleware(slog.Default(), discussSvc)

	sessionName := env.GetString("SESSION_NAME", "threadline-"+random.String(4))
	sessionKey := env.GetString("SESSION_KEY", random.String(32))
	cookieStore := sessions.NewCookieStore([]byte(sessionKey))

	httpHandler, err := web.NewHandler(discussSvc, cookieStore, sessionName)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP handler: %w", err)
	}

	app := &App{
		server:  newServer(),
		handler: httpHandler,
		db:      db,
	}

	return app, nil
}

func newCommentRepository(ctx context.Context, dsn string) (discuss.CommentRepository, *sql.DB, error) {
	if dsn == MemoryDSN {
		return memory.NewCommentRepository(), nil, nil
	}

	db, err := sqlite3.NewDB(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	err = sqlite3.MigrateUp(ctx, db)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	return sqlite3.NewCommentRepository(db), db, nil
}

func (app *App) Handler() *web.Handler {
	return app.handler
}

func (app *App) Run(ctx context.Context) error {
	// Handle SIGINT (CTRL+C) gracefully.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	defer func() {
		if app.db != nil {
			err := app.db.Close()
			if err != nil {
				slog.ErrorContext(ctx, "failed to close database", "error", err)
			}
		}
	}()

	err := app.server.Run(ctx, app.handler)
	if err != nil {
		return fmt.Errorf("failed to run server: %w", err)
	}

	return nil
}

func newServer() *server.Server {
	server := &server.Server{
		Port: env.GetString("PORT", server.DefaultPort),
		Host: env.GetString("HOST", ""),
		TLS: server.ServerTLS{
			Enabled: env.GetBool("TLS_ENABLED", false),
			Mode:    env.GetString("TLS_MODE", server.DefaultTLSMode),
			AutoCert: &server.ServerTLSAutoCert{
				CacheDir: env.GetString("TLS_AUTOCERT_CACHE_DIR", "./cert-cache"),
				Domains:  env.GetStringSlice("TLS_AUTOCERT_DOMAINS", []string{}),
				Email:    env.GetString("TLS_AUTOCERT_EMAIL", ""),
			},
			CertFile: env.GetString("TLS_CERT_FILE", ""),
			KeyFile:  env.GetString("TLS_KEY_FILE", ""),
		},
	}

	return server
}

// GetMaxDepthFromEnv reads COMMENTS_MAX_DEPTH, falling back to discuss.DefaultMaxDepth.
func GetMaxDepthFromEnv() (int, error) {
	value := env.GetString("COMMENTS_MAX_DEPTH", strconv.Itoa(discuss.DefaultMaxDepth))

	maxDepth, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("failed to parse COMMENTS_MAX_DEPTH %q: %w", value, err)
	}

	return maxDepth, nil
}

func GetLogLevelFromEnv() slog.Level {
	levelStr := env.GetString("LOG_LEVEL", "info")
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		slog.Warn("unknown log level, defaulting to info", "level", levelStr)

		return slog.LevelInfo
	}
}
