package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

const DefaultOraclePort = 1521

// OracleAddress is the easy-connect form host[:port]/service
type OracleAddress struct {
	Host    string
	Port    int
	Service string
}

// IsOracleURL reports an oracle:// URL
func IsOracleURL(dsn string) bool {
	return strings.HasPrefix(strings.TrimSpace(dsn), "oracle://")
}

// IsConnectDescriptor reports a (DESCRIPTION=...) connect descriptor
func IsConnectDescriptor(dsn string) bool {
	return strings.HasPrefix(strings.TrimSpace(dsn), "(")
}

// ParseOracleAddress parses host[:port]/service. IPv6 hosts are bracketed.
func ParseOracleAddress(dsn string) (OracleAddress, error) {
	dsn = strings.TrimSpace(dsn)
	hostPort, service, ok := strings.Cut(dsn, "/")
	if !ok || hostPort == "" || service == "" {
		return OracleAddress{}, fmt.Errorf("%q is not an oracle:// URL, a (DESCRIPTION=...) descriptor or host[:port]/service; TNS aliases are not resolved", dsn)
	}

	host, portText, err := net.SplitHostPort(hostPort)
	if err != nil {
		var addrErr *net.AddrError
		if !errors.As(err, &addrErr) || addrErr.Err != "missing port in address" {
			return OracleAddress{}, fmt.Errorf("%q has an invalid host: %v", dsn, err)
		}
		host = strings.TrimSuffix(strings.TrimPrefix(hostPort, "["), "]")
		return OracleAddress{Host: host, Port: DefaultOraclePort, Service: service}, nil
	}

	port, err := strconv.Atoi(portText)
	if err != nil || port <= 0 || port > 65535 {
		return OracleAddress{}, fmt.Errorf("%q has an invalid port %q", dsn, portText)
	}
	if host == "" {
		return OracleAddress{}, fmt.Errorf("%q has no host", dsn)
	}
	return OracleAddress{Host: host, Port: port, Service: service}, nil
}

func checkOracleDSN(dsn string) error {
	if IsOracleURL(dsn) || IsConnectDescriptor(dsn) {
		return nil
	}
	_, err := ParseOracleAddress(dsn)
	return err
}
