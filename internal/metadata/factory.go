package metadata

import (
	"fmt"
	"strings"

	"github.com/soltixdb/climatix/internal/config"
)

// NewRegistry creates the configured registry backend
func NewRegistry(reg config.RegistryConfig, etcd config.EtcdConfig) (Registry, error) {
	switch strings.ToLower(reg.Backend) {
	case "", "memory":
		return NewMemoryRegistry(reg.AutoRegister), nil
	case "etcd":
		return NewEtcdRegistry(EtcdOptions{
			Endpoints:    etcd.Endpoints,
			DialTimeout:  etcd.DialTimeout,
			Username:     etcd.Username,
			Password:     etcd.Password,
			Prefix:       reg.Prefix,
			CacheTTL:     reg.CacheTTL,
			AutoRegister: reg.AutoRegister,
		})
	default:
		return nil, fmt.Errorf("unsupported registry backend: %s (supported: memory, etcd)", reg.Backend)
	}
}
