// Package server wires the vidtube components together and runs the REST
// API and the gRPC health endpoint until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrijs2005/vidtube/internal/cryptox"
	"github.com/dmitrijs2005/vidtube/internal/logging"
	"github.com/dmitrijs2005/vidtube/internal/server/auth"
	"github.com/dmitrijs2005/vidtube/internal/server/config"
	"github.com/dmitrijs2005/vidtube/internal/server/media"
	"github.com/dmitrijs2005/vidtube/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/vidtube/internal/server/rest"
	"github.com/dmitrijs2005/vidtube/internal/server/services"

	gs "github.com/dmitrijs2005/vidtube/internal/server/grpc"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	http   runner
	grpc   runner
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	uploader, err := media.NewS3Uploader(ctx, media.Config{
		AccessKey: c.S3RootUser,
		SecretKey: c.S3RootPassword,
		Bucket:    c.S3Bucket,
		Region:    c.S3Region,
		Endpoint:  c.S3BaseEndpoint,
		PublicURL: c.S3PublicURL,
	}, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("object storage init error: %w", err)
	}
	if err := uploader.EnsureBucket(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("object storage bucket error: %w", err)
	}

	hasher, err := cryptox.NewHasher(c.BcryptCost)
	if err != nil {
		db.Close()
		return nil, err
	}

	issuer, err := auth.NewIssuer(auth.Config{
		AccessSecret:  []byte(c.AccessTokenSecret),
		AccessTTL:     c.AccessTokenTTL,
		RefreshSecret: []byte(c.RefreshTokenSecret),
		RefreshTTL:    c.RefreshTokenTTL,
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	us := services.NewUserService(db, rm, hasher, issuer, uploader, logger)
	cs := services.NewChannelService(db, rm, logger)
	vs := services.NewVideoService(db, rm, uploader, logger)

	h, err := rest.NewHandler(rest.Config{
		CORSOrigin:  c.CORSOrigin,
		UploadDir:   c.UploadDir,
		UploadLimit: c.UploadLimit,
		AccessTTL:   c.AccessTokenTTL,
		RefreshTTL:  c.RefreshTokenTTL,
	}, us, cs, vs, logger.With("module", "http"))
	if err != nil {
		db.Close()
		return nil, err
	}

	return &App{
		config: c,
		logger: logger,
		db:     db,
		http:   rest.NewServer(c.HTTPAddr, h.Routes(), logger.With("module", "http_server")),
		grpc:   gs.NewGRPCServer(c.GRPCAddr, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// runner is satisfied by both servers.
type runner interface {
	Run(ctx context.Context) error
}

// start runs s and cancels the whole app if it fails.
func (app *App) start(ctx context.Context, cancelFunc context.CancelFunc, name string, s runner) {
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "server failed", "server", name, "error", err)
		cancelFunc()
	}
}

// Run blocks until both servers have stopped.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.start(ctx, cancelFunc, "http", app.http)
	}()
	go func() {
		defer wg.Done()
		app.start(ctx, cancelFunc, "grpc", app.grpc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
