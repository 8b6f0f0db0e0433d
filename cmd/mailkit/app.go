package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/dmitrymomot/mailkit/pkg/cache"
	"github.com/dmitrymomot/mailkit/pkg/logger"
	"github.com/dmitrymomot/mailkit/pkg/mailtmpl"
	"github.com/dmitrymomot/mailkit/pkg/mailtmpl/fasttmpl"
	"github.com/dmitrymomot/mailkit/pkg/mailtmpl/gotmpl"
	"github.com/dmitrymomot/mailkit/pkg/mailtmpl/markdown"
	"github.com/dmitrymomot/mailkit/pkg/preview"
	"github.com/dmitrymomot/mailkit/pkg/storage"
)

// app holds everything a command needs once the config is resolved.
type app struct {
	cfg      Config
	logger   *slog.Logger
	registry *mailtmpl.Registry
	cids     mailtmpl.Context
	fsys     fs.FS
	settings *mailtmpl.LoadSettings
	checks   preview.Checks
	closers  []func() error
}

func newApp(ctx context.Context, cfg Config, logOut io.Writer) (*app, error) {
	log := logger.NewWithSentry(
		logger.Config{Output: logOut, Level: cfg.Log.Level, Format: cfg.Log.Format},
		logger.SentryConfig{DSN: cfg.Log.SentryDSN, Environment: "mailkit"},
		logger.TemplateIDExtractor(),
		logger.RecipientExtractor(),
	)

	backend, err := newBackend(cfg, log)
	if err != nil {
		return nil, err
	}

	opts := []mailtmpl.Option{mailtmpl.WithLogger(log)}
	if fix, set, _ := cfg.fixNewlines(); set {
		opts = append(opts, mailtmpl.WithFixNewlines(fix))
	}

	a := &app{
		cfg:      cfg,
		logger:   log,
		registry: mailtmpl.NewRegistry(backend, opts...),
		cids:     mailtmpl.NewContext(cfg.CIDDomain),
		fsys:     os.DirFS(cfg.Templates),
		settings: mailtmpl.DefaultLoadSettings(),
		checks:   preview.Checks{},
	}

	if cfg.S3.Bucket != "" {
		if err := a.setupRemote(ctx); err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	return a, nil
}

func newBackend(cfg Config, log *slog.Logger) (mailtmpl.Backend, error) {
	switch cfg.Engine {
	case engineMarkdown:
		opts := []markdown.Option{markdown.WithLogger(log)}
		if cfg.Layout != "" {
			src, err := os.ReadFile(cfg.Layout)
			if err != nil {
				return nil, fmt.Errorf("reading layout: %w", err)
			}
			layout, err := markdown.ParseLayout(string(src))
			if err != nil {
				return nil, err
			}
			opts = append(opts, markdown.WithLayout(layout))
		}
		return markdown.New(opts...), nil
	case engineFast:
		return fasttmpl.New(fasttmpl.WithLogger(log)), nil
	default:
		return gotmpl.New(gotmpl.WithLogger(log)), nil
	}
}

// setupRemote resolves spec.yaml `key:` references from S3, caching objects
// in Redis when configured and in memory otherwise.
func (a *app) setupRemote(ctx context.Context) error {
	s3cfg := storage.Config{
		Bucket:    a.cfg.S3.Bucket,
		AccessKey: a.cfg.S3.AccessKey,
		SecretKey: a.cfg.S3.SecretKey,
		Endpoint:  a.cfg.S3.Endpoint,
		Region:    a.cfg.S3.Region,
		Prefix:    a.cfg.S3.Prefix,
		PathStyle: a.cfg.S3.PathStyle,
	}
	client, err := storage.NewClient(s3cfg)
	if err != nil {
		return err
	}

	var objects cache.Cache[storage.Object] = cache.NewMemory[storage.Object]()
	if a.cfg.RedisURL != "" {
		rc, err := cache.OpenRedis(ctx, a.cfg.RedisURL)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, rc.Close)
		a.checks["redis"] = cache.RedisHealthcheck(rc)
		objects = cache.NewRedis[storage.Object](rc, nil, cache.WithPrefix("mailkit:assets"))
	}

	a.settings.Remote = storage.NewS3Source(client, s3cfg,
		storage.WithCache(objects),
		storage.WithLogger(a.logger),
	)
	return nil
}

func (a *app) load(ctx context.Context) error {
	return a.registry.LoadTemplates(ctx, a.fsys, a.settings)
}

// reload re-reads the template directory, inserting every spec found and
// then removing ids whose directories are gone. A failed insert stops the
// reload before anything is removed; specs inserted up to that point stay.
func (a *app) reload(ctx context.Context) (removed []string, err error) {
	specs, err := mailtmpl.FromDirs(ctx, a.fsys, a.settings)
	if err != nil {
		return nil, err
	}

	present := make(map[string]struct{}, len(specs))
	for _, named := range specs {
		if _, err := a.registry.Insert(named.ID, named.Spec); err != nil {
			return nil, err
		}
		present[named.ID] = struct{}{}
	}

	for _, id := range a.registry.IDs() {
		if _, ok := present[id]; ok {
			continue
		}
		if _, ok := a.registry.Remove(id); ok {
			removed = append(removed, id)
		}
	}
	return removed, nil
}

func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
