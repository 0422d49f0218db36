package uploadbot

import (
	"sort"
	"sync"
)

var (
	clientRegistryMu sync.RWMutex
	clientRegistry   = make(map[string]ClientFactory)
)

func init() {
	RegisterClient("http", func(cfg *RunConfig) Client {
		return NewHTTPClient(cfg.DumpTransport, cfg.RequestTimeout)
	})
	RegisterClient("fasthttp", func(cfg *RunConfig) Client {
		return NewLoggingFastHTTPClient(cfg.DumpTransport, cfg.RequestTimeout)
	})
}

func RegisterClient(name string, f ClientFactory) {
	clientRegistryMu.Lock()
	defer clientRegistryMu.Unlock()
	clientRegistry[name] = f
}

func ClientFromString(name string) ClientFactory {
	clientRegistryMu.RLock()
	defer clientRegistryMu.RUnlock()
	return clientRegistry[name]
}

// RegisteredClients sorted client names
func RegisteredClients() []string {
	clientRegistryMu.RLock()
	defer clientRegistryMu.RUnlock()
	names := make([]string, 0, len(clientRegistry))
	for n := range clientRegistry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
