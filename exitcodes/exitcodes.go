// Package exitcodes defines the standard exit codes used by cellchar.
package exitcodes

// Exit code constants used by cellchar
// These constants define the exit codes that the application uses to indicate
// various states when it exits:
//
// * Success (0): Used when every arc characterizes successfully
// * CharFailure (1): Used when one or more arcs fail to characterize
// * RuntimeErr (2): Used for runtime errors such as panics, timeouts or other failures
const (
	Success     = 0 // All arcs characterized
	CharFailure = 1 // Characterization failures
	RuntimeErr  = 2 // Runtime errors or timeouts
)
