// Package quiz implements quiz attempt scoring: starting attempts,
// grading submitted answers by question type, and finishing attempts
// with a pass/fail score.
package quiz
