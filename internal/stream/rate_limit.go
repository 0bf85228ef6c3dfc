package stream

import "sync"

// globalStreamCap bounds live SSE connections process-wide, so many distinct
// client IPs cannot collectively pin every server goroutine.
const globalStreamCap = 1000

// streamLimiter counts live SSE connections by client IP.
type streamLimiter struct {
	mu       sync.Mutex
	perIP    map[string]int
	active   int
	ipCap    int
	totalCap int
}

func newStreamLimiter(ipCap int) *streamLimiter {
	return &streamLimiter{
		perIP:    make(map[string]int),
		ipCap:    ipCap,
		totalCap: globalStreamCap,
	}
}

// acquire reserves a connection slot for ip. It fails when either the per-IP
// or the global ceiling is already reached.
func (l *streamLimiter) acquire(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.active >= l.totalCap || l.perIP[ip] >= l.ipCap {
		return false
	}
	l.perIP[ip]++
	l.active++
	return true
}

// release frees a slot previously reserved for ip.
func (l *streamLimiter) release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.active--
	if l.perIP[ip]--; l.perIP[ip] <= 0 {
		delete(l.perIP, ip)
	}
}

// count reports live connections for ip.
func (l *streamLimiter) count(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.perIP[ip]
}
