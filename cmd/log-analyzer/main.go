package main

// Build-time variables 'version', 'commit' and 'date' are declared in root.go
// and populated via -ldflags.

// main is the entry point for the log-analyzer application.
func main() {
	Execute()
}
