package main

import (
	"context"
	"net/http"
	"os"

	"github.com/dlshelf/dlshelf/pkg/assetcache"
	"github.com/dlshelf/dlshelf/pkg/config"
	"github.com/dlshelf/dlshelf/pkg/database"
	"github.com/dlshelf/dlshelf/pkg/metadata"
	"github.com/dlshelf/dlshelf/pkg/migrations"
	"github.com/dlshelf/dlshelf/pkg/prefetch"
	"github.com/dlshelf/dlshelf/pkg/server"
	"github.com/dlshelf/dlshelf/pkg/version"
	"github.com/dlshelf/dlshelf/pkg/worker"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"
)

func main() {
	ctx := context.Background()
	log := logger.New()

	log.Info("starting dlshelf", logger.Data{"version": version.Version})

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	if err := os.MkdirAll(cfg.TrashDir, 0o755); err != nil {
		log.Err(err).Fatal("trash directory error")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}

	group, err := migrations.BringUpToDate(ctx, db)
	if err != nil {
		log.Err(err).Fatal("migrations error")
	}
	if group.ID == 0 {
		log.Info("no new migrations to run")
	} else {
		log.Info("migrated to new group", logger.Data{"group_id": group.ID, "migration_names": group.Migrations.String()})
	}

	source := metadata.NewClient(cfg.EnrichmentTimeout)
	covers := assetcache.New(cfg.EnrichmentTimeout)

	pool := prefetch.NewPool(cfg.PrefetchWorkers, cfg.PrefetchQueueSize)
	pool.Start()
	dispatcher := prefetch.NewDispatcher(pool)
	go dispatcher.Run()

	wrkr := worker.New(cfg, db, source, covers)

	srv, err := server.New(cfg, db, dispatcher)
	if err != nil {
		log.Err(err).Fatal("server error")
	}

	graceful := signals.Setup()

	go func() {
		log.Info("server started", logger.Data{"addr": srv.Addr})
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Fatal("server stopped")
		}
		log.Info("server stopped")
	}()

	wrkr.Start()
	log.Info("worker started")

	<-graceful
	log.Info("starting graceful shutdown")

	err = srv.Shutdown(ctx)
	if err != nil {
		log.Err(err).Error("server shutdown error")
	}
	log.Info("server shutdown")

	wrkr.Shutdown()
	log.Info("worker shutdown")

	pool.Shutdown()
	log.Info("prefetch pool shutdown")

	err = db.Close()
	if err != nil {
		log.Err(err).Error("database close error")
	}
	log.Info("database closed")
}
