// Package progression is the pilot progression engine: reward application,
// rank resolution, mission-chain status and rank-based visibility.
//
// Every operation is a pure function over a User aggregate and catalog data.
// Nothing here performs I/O, blocks or keeps state between calls; callers
// serialize writes to a single User and persist the returned aggregate.
package progression
