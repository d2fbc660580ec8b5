package app

import (
	"net"
	"testing"
)

func TestHostIP(t *testing.T) {
	ipNet := func(s string) net.Addr {
		ip, n, err := net.ParseCIDR(s)
		if err != nil {
			t.Fatal(err)
		}
		n.IP = ip
		return n
	}
	tests := []struct {
		name  string
		addrs []net.Addr
		want  string
	}{
		{"none", nil, "127.0.0.1"},
		{"loopback only", []net.Addr{ipNet("127.0.0.1/8")}, "127.0.0.1"},
		{"skips v6", []net.Addr{ipNet("127.0.0.1/8"), ipNet("fe80::1/64"), ipNet("192.168.4.20/24")}, "192.168.4.20"},
		{"first wins", []net.Addr{ipNet("10.0.0.2/8"), ipNet("192.168.4.20/24")}, "10.0.0.2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hostIP(tt.addrs); got != tt.want {
				t.Errorf("hostIP = %q, want %q", got, tt.want)
			}
		})
	}
}
