// Package config provides configuration types and loading for avaroute.
//
// Configuration is YAML with ${VAR} and ${VAR:-default} environment
// substitution ($$ escapes a dollar sign). Missing fields keep their
// defaults and unknown fields are rejected.
//
//	cfg, err := config.LoadConfig("avaroute.yaml")
//	if err != nil {
//	    return err
//	}
//	if err := config.ValidateConfig(cfg); err != nil {
//	    return err
//	}
//
// # File Watching
//
// The route table only grows, so a reload cannot replace routes. The
// watcher hands every valid reload that changed something to a callback
// as a Change, which says what differs from the previous configuration:
//
//	watcher, err := config.NewWatcher(path, func(c config.Change) {
//	    if c.LogLevel {
//	        _ = logger.SetLevel(c.Current.Logging.Level)
//	    }
//	    if c.HandlerTimeout {
//	        router.SetHandlerTimeout(c.Current.Router.HandlerTimeout.Duration())
//	    }
//	})
//	if err != nil {
//	    return err
//	}
//	err = watcher.Start(ctx)
package config
