// Package domain models festival waste hotspot data for one city.
//
// # Data Source
//
// Hotspot records come from an upstream prediction service that ranks the
// city's monitored areas by projected extra waste for a festival. The service
// exposes three JSON resources per festival: the ranked hotspot list, a summary
// aggregate, and optional narrative insights. This package owns the shapes of
// those payloads and the rules applied at the fetch boundary.
//
// # Wire Conventions
//
// Payload keys are snake_case, e.g. "extra_waste_kg", "recommended_resources".
// Weights are kilograms; the dashboard displays them in tonnes with one decimal.
// Population is displayed in thousands with no decimals.
//
// # Priority Tiers
//
// Priority is supplied by the upstream and is authoritative:
//
//	CRITICAL > HIGH > MEDIUM > LOW
//
// The upstream derives it from extra waste (>80t critical, >50t high, >30t
// medium), but this package never re-derives a tier from numeric fields. An
// unrecognised tier string is kept as-is and displayed with the LOW encoding.
//
// # Fallback Data
//
// When a load cannot produce a consistent live snapshot, the built-in sample
// set (three records and a matching summary) replaces both halves. See
// [SampleRecords] and [SampleSummary].
package domain
