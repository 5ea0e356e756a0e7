package adapters

import (
	"net"

	"regadera/application"

	"github.com/rs/zerolog"
)

type NetInterface struct {
	Name  string
	Flags net.Flags
	Addrs []net.Addr
}

type InterfaceConnectivityParams struct {
	InterfacesFunc func() ([]NetInterface, error)

	Log zerolog.Logger
}

func (p *InterfaceConnectivityParams) EnsureDefaults() {
	if p.InterfacesFunc == nil {
		p.InterfacesFunc = hostInterfaces
	}
}

// InterfaceConnectivity reports the network as available when some
// interface is up, not loopback, and holds a global unicast address. The
// host is queried on every call.
type InterfaceConnectivity struct {
	params InterfaceConnectivityParams

	log zerolog.Logger
}

func NewInterfaceConnectivity(params InterfaceConnectivityParams) *InterfaceConnectivity {
	params.EnsureDefaults()
	return &InterfaceConnectivity{params: params, log: params.Log}
}

func (c *InterfaceConnectivity) IsNetworkAvailable() bool {
	ifaces, err := c.params.InterfacesFunc()
	if err != nil {
		c.log.Warn().Err(err).Msg("failed to list network interfaces")
		return false
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		for _, addr := range iface.Addrs {
			if ipFromAddr(addr).IsGlobalUnicast() {
				return true
			}
		}
	}

	return false
}

func ipFromAddr(addr net.Addr) net.IP {
	switch a := addr.(type) {
	case *net.IPNet:
		return a.IP
	case *net.IPAddr:
		return a.IP
	default:
		return nil
	}
}

func hostInterfaces() ([]NetInterface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	result := make([]NetInterface, 0, len(ifaces))
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		result = append(result, NetInterface{Name: iface.Name, Flags: iface.Flags, Addrs: addrs})
	}
	return result, nil
}

// StaticConnectivity always answers with its own value.
type StaticConnectivity bool

func (s StaticConnectivity) IsNetworkAvailable() bool {
	return bool(s)
}

var (
	_ application.ConnectivityChecker = &InterfaceConnectivity{}
	_ application.ConnectivityChecker = StaticConnectivity(true)
)
