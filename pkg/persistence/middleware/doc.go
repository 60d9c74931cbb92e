// Package middleware wraps a ports.ReportStore with extra behaviour applied
// on the way to storage: masking of sensitive text and sealing at rest.
package middleware
