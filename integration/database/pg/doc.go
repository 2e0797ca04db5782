// Package pg provides PostgreSQL connection management and a
// pgx-backed session store.
//
// Connect creates a pgxpool connection pool with retry logic and
// connection verification, Migrate applies the embedded schema using
// goose, and Healthcheck returns a probe function for readiness
// endpoints. Store persists sessions in the sessions table and
// implements session.Store.
//
//	ctx := context.Background()
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, logger); err != nil {
//		log.Fatal(err)
//	}
//
//	app, err := loom.New(appCfg, loom.WithStore(pg.NewStore(pool)))
//
// Repositories running inside a transaction can propagate it through the
// context with WithTx; the store participates in it automatically.
package pg
