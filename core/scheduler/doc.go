// Package scheduler assigns survey fields to observing time. A Scheduler
// walks the calendar night by night; within each window it repeatedly picks
// the lowest-cost visible field, books its slew and exposure, and marks it
// complete. Plans are deterministic for identical inputs and can be paced
// against the wall clock for real-time operation.
package scheduler
