package discovery

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/ValentinKolb/connectkit/rpc/common"
)

var (
	ErrNoIPv4       = errors.New("no ipv4 address in session addresses")
	ErrNoAddresses  = errors.New("session has no addresses")
	ErrInvalidBlock = errors.New("invalid session broadcast")
)

// Session describes a running simulator as announced by its UDP broadcast
type Session struct {
	// IPv4 is the first IPv4 address of Addresses; the state connection is made to it
	IPv4       string   `json:"-"`
	Addresses  []string `json:"Addresses"`
	State      string   `json:"State"`
	Version    string   `json:"Version"`
	DeviceID   string   `json:"DeviceID"`
	DeviceName string   `json:"DeviceName"`
	Aircraft   string   `json:"Aircraft"`
	Livery     string   `json:"Livery"`
}

// ParseSession decodes a session broadcast. Missing text fields default to
// empty strings; Addresses is required and must contain an IPv4 address.
func ParseSession(data []byte) (Session, error) {
	var s Session
	err := json.Unmarshal(data, &s)
	switch {
	case err == nil:
		return s, nil
	case errors.Is(err, ErrNoAddresses), errors.Is(err, ErrNoIPv4), errors.Is(err, ErrInvalidBlock):
		return Session{}, err
	default:
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidBlock, err)
	}
}

// UnmarshalJSON implements json.Unmarshaler and selects the IPv4 address
func (s *Session) UnmarshalJSON(data []byte) error {
	type plain Session
	var raw struct {
		plain
		Addresses *[]string `json:"Addresses"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBlock, err)
	}
	if raw.Addresses == nil {
		return ErrNoAddresses
	}

	*s = Session(raw.plain)
	s.Addresses = *raw.Addresses
	s.IPv4 = ""
	for _, addr := range s.Addresses {
		if isIPv4(addr) {
			s.IPv4 = addr
			return nil
		}
	}
	return ErrNoIPv4
}

// Endpoint returns the address of the state connection (ipv4:10112)
func (s Session) Endpoint() string {
	return net.JoinHostPort(s.IPv4, strconv.Itoa(common.DefaultPort))
}

func (s Session) String() string {
	return fmt.Sprintf("%s (%s) at %s: %s, %s [%s]", s.DeviceName, s.DeviceID, s.IPv4, s.Aircraft, s.Livery, s.State)
}

// isIPv4 reports whether addr is a dotted quad IPv4 address
func isIPv4(addr string) bool {
	if strings.Contains(addr, ":") {
		return false
	}
	ip := net.ParseIP(addr)
	return ip != nil && ip.To4() != nil
}
