// Package review implements spaced-repetition review: due-card queries,
// review submission with optimistic concurrency, and transient study
// sessions that batch due cards and tally outcomes.
package review
