// Package redis provides Redis client initialization and a Redis-backed
// session store.
//
// Connect validates the connection URL, creates a go-redis client with
// retry logic, and verifies connectivity with a ping before returning.
// Healthcheck returns a probe function for readiness endpoints. Store
// keeps each session as a JSON value under a prefixed key and implements
// session.Store.
//
//	ctx := context.Background()
//
//	var cfg redis.Config
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	store := redis.NewStore(client, redis.WithTTL(14*24*time.Hour))
//	app, err := loom.New(appCfg, loom.WithStore(store))
//
// Both redis:// and rediss:// URL schemes are supported.
package redis
