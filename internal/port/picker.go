// picker.go implements the preferred-then-scan port selection for the
// board command.
package port

import (
	"fmt"
)

const (
	// maxPort is the highest valid TCP port number.
	maxPort = 65535

	// defaultScanWindow bounds how far above the preferred port the
	// picker scans before giving up. A bounded window keeps the failure
	// mode fast and the chosen port close to the one the user asked
	// for, instead of silently landing somewhere surprising.
	defaultScanWindow = 100
)

// Picker selects the TensorBoard listen port: the preferred port when
// free, otherwise the nearest free port above it within a bounded
// window.
type Picker struct {
	scanner *Scanner
	window  int
}

// NewPicker creates a Picker using the given scanner for availability
// checks.
func NewPicker(scanner *Scanner) *Picker {
	return &Picker{
		scanner: scanner,
		window:  defaultScanWindow,
	}
}

// Pick returns the port TensorBoard should bind: preferred if it is
// free, otherwise the first free port in (preferred, preferred+window],
// capped at 65535.
func (p *Picker) Pick(preferred int) (int, error) {
	if preferred < 1 || preferred > maxPort {
		return 0, fmt.Errorf("invalid port %d: must be in range 1-%d", preferred, maxPort)
	}

	if p.scanner.IsPortAvailable(preferred) {
		return preferred, nil
	}

	end := preferred + p.window
	if end > maxPort {
		end = maxPort
	}
	if preferred+1 > end {
		return 0, fmt.Errorf("port %d is in use and no ports remain above it", preferred)
	}

	port, err := p.scanner.FindAvailablePort(preferred+1, end)
	if err != nil {
		return 0, fmt.Errorf("port %d is in use and %w", preferred, err)
	}
	return port, nil
}
