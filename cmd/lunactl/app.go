package main

import (
	"context"
	"fmt"
	"os"

	"github.com/lunim/luna-dashboard/cmd/mainconfig"
	"github.com/lunim/luna-dashboard/internal/app/bootstrap"
	"github.com/lunim/luna-dashboard/internal/archive"
	"github.com/lunim/luna-dashboard/internal/audit"
	appconfig "github.com/lunim/luna-dashboard/internal/config"
	"github.com/lunim/luna-dashboard/internal/dashboard"
	"github.com/lunim/luna-dashboard/pkg/logging"
)

type conversationReader interface {
	ListRecent(ctx context.Context) ([]dashboard.ConversationSummary, error)
	FetchByID(ctx context.Context, id string) (*dashboard.ConversationRecord, error)
}

// app holds the CLI's configuration and the factories for its backends.
// Tests replace the factories.
type app struct {
	cfg    *appconfig.Config
	logger *logging.Logger

	openConversations func(ctx context.Context) (conversationReader, func(), error)
	openAudit         func(ctx context.Context) (*audit.Service, func(), error)
	openArchive       func(ctx context.Context) (*archive.Store, error)
}

func newApp(cfg *appconfig.Config) *app {
	a := &app{cfg: cfg, logger: logging.NewWithWriter(cfg.LogLevel, os.Stderr)}
	a.openConversations = a.postgresConversations
	a.openAudit = a.postgresAudit
	a.openArchive = a.s3Archive
	return a
}

// postgresConversations reads straight from the store; the CLI skips the
// cache so operators always see current rows.
func (a *app) postgresConversations(ctx context.Context) (conversationReader, func(), error) {
	pool, err := bootstrap.BuildPool(ctx, a.cfg)
	if err != nil {
		return nil, nil, err
	}
	store := dashboard.NewPostgresStore(pool, a.cfg.ConversationsTable)
	return dashboard.NewService(store, a.cfg.StoreTimeout, nil, a.logger.Component("dashboard")), pool.Close, nil
}

func (a *app) postgresAudit(ctx context.Context) (*audit.Service, func(), error) {
	db, err := bootstrap.BuildSQLDB(a.cfg)
	if err != nil {
		return nil, nil, err
	}
	return audit.NewService(db, a.logger.Component("audit")), func() { _ = db.Close() }, nil
}

func (a *app) s3Archive(ctx context.Context) (*archive.Store, error) {
	if a.cfg.ArchiveBucket == "" {
		return nil, fmt.Errorf("ARCHIVE_BUCKET is not set")
	}
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, a.cfg)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}
	return archive.NewStore(mainconfig.NewS3Client(awsCfg, a.cfg), a.cfg.ArchiveBucket, a.logger.Component("archive")), nil
}
