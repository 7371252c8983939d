// Package preview serves a built archive over HTTP and rebuilds it as the
// catalog changes.
package preview

import (
	"fmt"
	"sync"
)

// registry tracks the preview servers of this process by port, so a second
// preview on a busy port fails with a clear message instead of an opaque
// bind error, and shutdown paths can find their server.
type registry struct {
	mu      sync.Mutex
	servers map[int]*Server
}

var sharedRegistry = &registry{servers: make(map[int]*Server)}

func (r *registry) register(port int, s *Server) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.servers[port]; taken {
		return fmt.Errorf("a preview server is already running on port %d", port)
	}
	r.servers[port] = s
	return nil
}

func (r *registry) lookup(port int) (*Server, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.servers[port]
	return s, ok
}

func (r *registry) remove(port int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.servers, port)
}

// LookupServer returns the registered preview server on a port.
func LookupServer(port int) (*Server, bool) { return sharedRegistry.lookup(port) }

// ResetRegistry forgets all registered servers. Tests use it to isolate
// process-wide state.
func ResetRegistry() {
	sharedRegistry.mu.Lock()
	defer sharedRegistry.mu.Unlock()
	sharedRegistry.servers = make(map[int]*Server)
}
