// Package discovery finds running simulators on the local network.
//
// A simulator announces itself by broadcasting a JSON document on UDP port
// 15000 (common.DefaultDiscoveryPort):
//
//	{
//	  "Addresses": ["fe80::1", "192.168.1.20"],
//	  "State": "Playing",
//	  "Version": "24.1",
//	  "DeviceID": "...",
//	  "DeviceName": "iPad",
//	  "Aircraft": "Cessna 172",
//	  "Livery": "Civil"
//	}
//
// Addresses is required and must contain an IPv4 address; the first one found
// becomes Session.IPv4. The remaining fields default to empty strings.
// Broadcasts that fail to parse are skipped by the Listener.
//
// A Session satisfies the client's resolver interface, so a discovered
// simulator can be connected to directly:
//
//	session, err := discovery.Discover(ctx, common.DefaultDiscoveryPort)
//	if err != nil {
//	    return err
//	}
//	err = c.ConnectTo(session)
//
// The Announcer sends the same broadcast periodically. The mock simulator
// uses it to be discoverable.
package discovery
