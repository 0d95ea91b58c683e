package exitcodes

// Exit codes for the postpack binaries.
// postpack itself always exits Success; the remaining codes belong to postpack-history.
const (
	Success      = 0 // Successful execution
	Usage        = 2 // No query selected or invalid flags
	RuntimeError = 4 // Database could not be opened or queried
)
