// Package task provides the background execution machinery for
// generation jobs: a bounded in-memory queue, a worker pool runner
// that survives restarts by re-queueing pending jobs from the
// database, and the generation task itself, which drives a job from
// claim through validation to its committed deck or quiz.
package task
