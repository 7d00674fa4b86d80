package api

import "net"

// InterfaceOfflineProbe reports the client offline when no non-loopback
// interface carries an address, the closest native equivalent of a browser
// connectivity signal.
func InterfaceOfflineProbe() bool {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return false
	}
	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			return false
		}
	}
	return true
}
