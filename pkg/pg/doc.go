// Package pg provides helpers for PostgreSQL on top of pgx/v5: a pooled
// connection with retry, goose migrations (from disk or an embedded FS),
// a transaction helper, health checks and error predicates.
//
// # Usage
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pg.MigrateFS(ctx, pool, migrations.FS, cfg, log); err != nil {
//	    return err
//	}
//
//	err = pg.WithTx(ctx, pool, func(tx pgx.Tx) error {
//	    _, err := tx.Exec(ctx, "UPDATE ...")
//	    return err
//	})
//
// # Errors
//
// Connection and migration failures are reported with sentinel errors joined
// to the driver error. IsNotFoundError, IsDuplicateKeyError and
// IsForeignKeyViolationError classify query errors.
package pg
