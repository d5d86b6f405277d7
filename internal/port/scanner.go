// scanner.go implements OS-level port availability checks backing the
// TensorBoard port pick.
package port

import (
	"fmt"
	"net"
)

// Scanner checks whether specific TCP ports are available on the host.
//
// It uses the operating system's network stack (net.Listen) to determine
// if a port is free. This is the most reliable method because it asks
// the OS directly, rather than parsing /proc/net/* or relying on
// external commands like `lsof` or `ss` which may require elevated
// permissions.
//
// The struct is currently stateless, but is defined as a struct (rather
// than bare functions) so future options (e.g. bind address) can be
// added without breaking the API. It also makes the Scanner injectable
// into the Picker, which keeps the pick logic testable.
type Scanner struct{}

// NewScanner creates a new Scanner instance.
func NewScanner() *Scanner {
	return &Scanner{}
}

// IsPortAvailable checks whether a single TCP port is free on the host.
//
// It attempts net.Listen(":port"); if the bind succeeds the port is
// available and the listener is closed immediately. Binding all
// interfaces (":port" rather than "127.0.0.1:port") matches how
// TensorBoard itself binds, avoiding false positives.
func (s *Scanner) IsPortAvailable(port int) bool {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false
	}
	defer func() { _ = listener.Close() }()
	return true
}

// FindAvailablePort scans [startPort, endPort] (inclusive) and returns
// the first available port. The search is sequential from startPort
// upward, so the same free port is selected consistently across calls.
//
// Returns an error if no port in the range is free, which the CLI
// reports with exit code ExitPortAllocationFailed.
func (s *Scanner) FindAvailablePort(startPort, endPort int) (int, error) {
	for port := startPort; port <= endPort; port++ {
		if s.IsPortAvailable(port) {
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available port found in range %d-%d", startPort, endPort)
}
