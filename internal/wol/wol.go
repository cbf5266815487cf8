// Package wol sends Wake-on-LAN magic packets to managed hosts.
package wol

import (
	"fmt"
	"net"
	"strconv"
)

const defaultPort = 9

// MagicPacket builds the 102-byte wake frame for a MAC address:
// six 0xFF bytes followed by the MAC repeated sixteen times.
func MagicPacket(mac string) ([]byte, error) {
	hw, err := net.ParseMAC(mac)
	if err != nil {
		return nil, fmt.Errorf("invalid MAC address %q: %w", mac, err)
	}
	if len(hw) != 6 {
		return nil, fmt.Errorf("MAC address %q is not EUI-48", mac)
	}

	packet := make([]byte, 0, 102)
	for i := 0; i < 6; i++ {
		packet = append(packet, 0xFF)
	}
	for i := 0; i < 16; i++ {
		packet = append(packet, hw...)
	}
	return packet, nil
}

// Wake broadcasts a magic packet for the MAC address. An empty
// broadcast address falls back to the limited broadcast.
func Wake(mac, broadcast string) error {
	packet, err := MagicPacket(mac)
	if err != nil {
		return err
	}
	if broadcast == "" {
		broadcast = "255.255.255.255"
	}

	addr := net.JoinHostPort(broadcast, strconv.Itoa(defaultPort))
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return fmt.Errorf("wol dial %s: %w", addr, err)
	}
	defer conn.Close()

	if _, err := conn.Write(packet); err != nil {
		return fmt.Errorf("wol send to %s: %w", addr, err)
	}
	return nil
}
