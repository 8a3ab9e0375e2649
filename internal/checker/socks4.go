package checker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"
)

// socks4Dialer speaks SOCKS4, falling back to SOCKS4a when the target is a
// hostname. golang.org/x/net/proxy only ships SOCKS5.
type socks4Dialer struct {
	proxyAddr string
	userID    string
	forward   *net.Dialer
}

func (d *socks4Dialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	if network != "tcp" && network != "tcp4" {
		return nil, fmt.Errorf("socks4: network %q not supported", network)
	}

	req, err := socks4Request(addr, d.userID)
	if err != nil {
		return nil, err
	}

	conn, err := d.forward.DialContext(ctx, "tcp", d.proxyAddr)
	if err != nil {
		return nil, err
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if err := socks4Handshake(conn, req); err != nil {
		conn.Close()
		return nil, &net.OpError{Op: "socks4", Net: network, Err: err}
	}

	_ = conn.SetDeadline(time.Time{})
	return conn, nil
}

// socks4Request builds the CONNECT request:
// VER=0x04 CMD=0x01 DSTPORT(2) DSTIP(4) USERID 0x00 [HOST 0x00]
func socks4Request(addr, userID string) ([]byte, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return nil, fmt.Errorf("socks4: bad port %q", portStr)
	}

	req := []byte{0x04, 0x01, byte(port >> 8), byte(port)}

	var hostname string
	if ip := net.ParseIP(host); ip != nil {
		ip4 := ip.To4()
		if ip4 == nil {
			return nil, errors.New("socks4: ipv6 targets not supported")
		}
		req = append(req, ip4...)
	} else {
		// SOCKS4a: 0.0.0.x tells the proxy to resolve the name itself.
		req = append(req, 0x00, 0x00, 0x00, 0x01)
		hostname = host
	}

	req = append(req, []byte(userID)...)
	req = append(req, 0x00)
	if hostname != "" {
		req = append(req, []byte(hostname)...)
		req = append(req, 0x00)
	}
	return req, nil
}

func socks4Handshake(conn net.Conn, req []byte) error {
	if _, err := conn.Write(req); err != nil {
		return err
	}

	// reply: VN=0x00 CD DSTPORT(2) DSTIP(4)
	reply := make([]byte, 8)
	if _, err := io.ReadFull(conn, reply); err != nil {
		return err
	}
	if reply[0] != 0x00 {
		return fmt.Errorf("invalid reply version %#x", reply[0])
	}
	switch reply[1] {
	case 0x5A:
		return nil
	case 0x5B:
		return errors.New("request rejected or failed")
	case 0x5C:
		return errors.New("request rejected: identd unreachable")
	case 0x5D:
		return errors.New("request rejected: identd user mismatch")
	default:
		return fmt.Errorf("unknown reply code %#x", reply[1])
	}
}
