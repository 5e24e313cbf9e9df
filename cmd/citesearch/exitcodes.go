package main

// Exit codes shared by all subcommands.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (missing settings, missing source)
	ExitDataError   = 3 // Data error (unknown field, unrecoverable cache)
)
