/*
Package analysis orchestrates cached, serialised contract analyses.

A Manager sits between callers (CLI, HTTP, MCP) and the engine. Requests for
the same contract are serialised behind a reference-counted local lock and,
when configured, a distributed lock, so replicas sharing one report store never
run the same valve twice.
*/
package analysis
