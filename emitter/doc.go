/*
Package emitter writes metrics for serverless functions as MONITORING lines on
standard output, where a log collector picks them up and forwards them.

Each call produces exactly one line:

	MONITORING|<unix_timestamp>|<value>|<metric_type>|<metric_name>|#<tags>[|m:<message>]

Metric names are prefixed with "lambda." and every dotted prefix of the name is
added as a tag. A set of default tags is derived once from the function name
and region:

	em := emitter.New(emitter.FromEnv(emitter.WithGlobalTags("team:billing")))
	em.Increment("jobs.run")
	em.Gauge("queue.depth", 12, "queue:orders")

	defer em.StartTimer("handler").Stop()

Emission is fire-and-forget. A write failure is logged and never returned.
*/
package emitter
