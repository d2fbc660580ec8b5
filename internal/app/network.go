package app

import (
	"fmt"
	"net"
	"strconv"
)

// previewURL builds the address a phone on the same network can open.
func previewURL(port int) string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		addrs = nil
	}
	return fmt.Sprintf("http://%s/", net.JoinHostPort(hostIP(addrs), strconv.Itoa(port)))
}

// hostIP picks the first non-loopback IPv4 address, falling back to loopback.
func hostIP(addrs []net.Addr) string {
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return "127.0.0.1"
}
