// ABOUTME: mDNS service discovery for mixqueue nodes
package discovery

import (
	"context"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/hashicorp/mdns"
)

// Role distinguishes what a Manager advertises or looks for.
type Role int

const (
	// Intake advertises a producer/netreceiver listener: other nodes
	// push PCM frames at it.
	Intake Role = iota
	// RelayRole advertises a consumer/netrelay broadcaster: other
	// nodes subscribe to its mixed output.
	RelayRole
)

func (r Role) serviceType() string {
	if r == RelayRole {
		return "_mixqueue-relay._tcp"
	}
	return "_mixqueue._tcp"
}

func (r Role) path() string {
	if r == RelayRole {
		return "/mixqueue/relay"
	}
	return "/mixqueue/intake"
}

// Config holds discovery configuration.
type Config struct {
	ServiceName string
	Port        int
	Role        Role
}

// Endpoint describes a discovered node advertising RelayRole (the only
// role a listener ever needs to browse for; nothing subscribes to an
// Intake endpoint's address by discovery).
type Endpoint struct {
	Name string
	Host string
	Port int
}

// Manager owns one mDNS advertisement and/or one browse loop for the
// lifetime of a node.
type Manager struct {
	config Config
	ctx    context.Context
	cancel context.CancelFunc
	found  chan *Endpoint
	seen   map[string]time.Time
}

// NewManager creates a discovery manager for the given role.
func NewManager(config Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		config: config,
		ctx:    ctx,
		cancel: cancel,
		found:  make(chan *Endpoint, 10),
		seen:   make(map[string]time.Time),
	}
}

// Advertise publishes this node's service over mDNS until Stop is
// called.
func (m *Manager) Advertise() error {
	ips, err := localIPv4s()
	if err != nil {
		return fmt.Errorf("discovery: listing local addresses: %w", err)
	}

	svc := m.config.Role.serviceType()
	service, err := mdns.NewMDNSService(
		m.config.ServiceName,
		svc,
		"",
		"",
		m.config.Port,
		ips,
		[]string{"path=" + m.config.Role.path()},
	)
	if err != nil {
		return fmt.Errorf("discovery: building mDNS service record: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("discovery: starting mDNS responder: %w", err)
	}
	log.Printf("discovery: advertising %s as %s on port %d", m.config.ServiceName, svc, m.config.Port)

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()
	return nil
}

// Browse starts a background loop repeatedly querying for RelayRole
// endpoints and streaming newly seen ones to Endpoints().
func (m *Manager) Browse() error {
	go m.browseLoop()
	return nil
}

// browseLoop reissues the mDNS query every scanInterval, suppressing
// endpoints already reported within the last seenTTL so a slow
// consumer of Endpoints() isn't flooded by the same relay every scan.
func (m *Manager) browseLoop() {
	const scanInterval = 3 * time.Second
	const seenTTL = 30 * time.Second

	ticker := time.NewTicker(scanInterval)
	defer ticker.Stop()

	for {
		for _, ep := range m.scan(scanInterval) {
			m.publish(ep, seenTTL)
		}

		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// scan runs one blocking mDNS query and collects whatever entries
// arrive within timeout.
func (m *Manager) scan(timeout time.Duration) []*Endpoint {
	entries := make(chan *mdns.ServiceEntry, 10)
	done := make(chan struct{})

	var found []*Endpoint
	go func() {
		defer close(done)
		for entry := range entries {
			found = append(found, &Endpoint{
				Name: entry.Name,
				Host: entry.AddrV4.String(),
				Port: entry.Port,
			})
		}
	}()

	mdns.Query(&mdns.QueryParam{
		Service: RelayRole.serviceType(),
		Domain:  "local",
		Timeout: timeout,
		Entries: entries,
	})
	close(entries)
	<-done
	return found
}

// publish forwards ep to the Endpoints channel unless the same
// host:port was already reported within ttl.
func (m *Manager) publish(ep *Endpoint, ttl time.Duration) {
	key := fmt.Sprintf("%s:%d", ep.Host, ep.Port)
	if last, ok := m.seen[key]; ok && time.Since(last) < ttl {
		return
	}
	m.seen[key] = time.Now()

	log.Printf("discovery: found relay %s at %s:%d", ep.Name, ep.Host, ep.Port)
	select {
	case m.found <- ep:
	case <-m.ctx.Done():
	default:
		log.Printf("discovery: endpoint channel full, dropping %s", key)
	}
}

// Endpoints returns the channel of newly discovered relay endpoints.
func (m *Manager) Endpoints() <-chan *Endpoint {
	return m.found
}

// Stop ends any running advertise/browse goroutines.
func (m *Manager) Stop() {
	m.cancel()
}

// localIPv4s collects every non-loopback IPv4 address on an interface
// that's currently up, for the mDNS service record to advertise.
func localIPv4s() ([]net.IP, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	var ips []net.IP
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok || ipnet.IP.IsLoopback() {
				continue
			}
			if v4 := ipnet.IP.To4(); v4 != nil {
				ips = append(ips, v4)
			}
		}
	}
	return ips, nil
}
