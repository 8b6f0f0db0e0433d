// Package storage resolves template resources from S3-compatible object
// storage.
//
// S3Source implements resource.Source, so a directory spec can reference
// shared assets by key instead of bundling them:
//
//	# welcome/spec.yaml
//	embeddings:
//	  - name: logo
//	    key: brand/logo.png
//
//	client, err := storage.NewClient(cfg)
//	src := storage.NewS3Source(client, cfg,
//	    storage.WithCache(cache.NewMemory[storage.Object]()),
//	)
//	err = registry.LoadTemplates(ctx, os.DirFS("templates"), &mailtmpl.LoadSettings{Remote: src})
//
// Fetched objects are cached by key when a cache is configured. Missing
// objects report ErrNotFound, which also matches resource.ErrNotFound.
package storage
