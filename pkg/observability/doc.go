/*
Package observability turns pipeline lifecycle events into Prometheus metrics.

Collectors live on a private registry so that several runners in one process never
clash. A one-shot CLI has no scrape endpoint, so the registry is exported with
WriteTextfile in the node_exporter textfile collector format:

	metrics := observability.NewMetrics()
	r := runner.NewRunner(cfg, runner.WithLifecycleHooks(metrics.Hooks()))
	_, _ = r.Run(ctx)
	_ = metrics.WriteTextfile("/var/lib/node_exporter/covpipe.prom")
*/
package observability
