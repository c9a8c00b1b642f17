// Package diag is the diagnostics collaborator consumed by the translator.
//
// Reports are best-effort telemetry about plans that could not be pushed
// down. They are gated by relation relevance (the translator only reports
// when the tracked relation appeared in the plan), sent at most once per
// failed build, and never influence the build's own outcome.
package diag
