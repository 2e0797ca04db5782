// Package mongo provides MongoDB client initialization and a
// MongoDB-backed session store.
//
// New creates a client with retry logic tuned for managed deployments,
// where cold starts and brief network interruptions are routine, and
// verifies the connection with a ping. Healthcheck returns a probe
// function for readiness endpoints. Store keeps each session as a
// document keyed by its session key and implements session.Store.
//
//	ctx := context.Background()
//
//	var cfg mongo.Config
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//
//	client, err := mongo.New(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Disconnect(ctx)
//
//	store := mongo.NewStore(client.Database("myapp").Collection("sessions"))
//	app, err := loom.New(appCfg, loom.WithStore(store))
package mongo
