package irremote

import (
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"time"
)

const defaultTimeout = 5 // seconds

// knownDevice describes a Broadlink device type.
type knownDevice struct {
	name      string
	supported bool
}

// RM2 family devices take the plain IR data block. RM4 devices prefix it
// with a length and are not handled.
var knownDevices = map[int]knownDevice{
	0x2712: {"RM2", true},
	0x272a: {"RM2 Pro Plus", true},
	0x2737: {"RM Mini", true},
	0x273d: {"RM Pro Phicomm", true},
	0x277c: {"RM2 Home Plus GDT", true},
	0x2783: {"RM2 Home Plus", true},
	0x278f: {"RM Mini Shate", true},
	0x27c2: {"RM Mini 3", true},
	0x51da: {"RM4b", false},
	0x5f36: {"RM Mini 3 (RM4 firmware)", false},
	0x6026: {"RM4 Pro", false},
}

func isKnownDevice(deviceType int) (known bool, name string, supported bool) {
	d, ok := knownDevices[deviceType]
	if !ok {
		return false, "", false
	}
	return true, d.name, d.supported
}

// Broadlink keeps track of all discovered or manually added RM devices and
// transmits commands through the first one.
type Broadlink struct {
	timeout int // in seconds
	devices []*device
	toggle  bool
}

// NewBroadlink instantiates an empty Broadlink.
func NewBroadlink() *Broadlink {
	return &Broadlink{timeout: defaultTimeout}
}

// WithTimeout sets the timeout for all subsequent read operations.
func (b *Broadlink) WithTimeout(t int) *Broadlink {
	b.timeout = t
	return b
}

// Count returns the number of devices.
func (b *Broadlink) Count() int {
	return len(b.devices)
}

// Discover broadcasts on every local IPv4 interface and authenticates with
// every supported device that answers.
func (b *Broadlink) Discover() error {
	addresses, err := hostAddresses()
	if err != nil {
		return fmt.Errorf("error retrieving list of host addresses: %v", err)
	}

	for _, ip := range addresses {
		conn, err := net.ListenPacket("udp4", ip.String()+":0")
		if err != nil {
			log.Printf("Could not bind UDP listener to %v: %v", ip.String(), err)
			continue
		}
		log.Printf("Listening to address %v", conn.LocalAddr().String())
		if err := sendBroadcastPacket(conn); err != nil {
			log.Printf("Error sending broadcast packet: %v", err)
			conn.Close()
			continue
		}
		b.readDiscoveryPackets(conn)
		conn.Close()
	}

	return nil
}

// AddManualDevice authenticates with a device at a known address, bypassing
// discovery.
func (b *Broadlink) AddManualDevice(ip, mac string, deviceType int) error {
	hw, err := net.ParseMAC(mac)
	if err != nil {
		return fmt.Errorf("invalid MAC address %v: %v", mac, err)
	}
	known, name, supported := isKnownDevice(deviceType)
	if !known {
		return fmt.Errorf("unknown device type 0x%04x", deviceType)
	}
	if !supported {
		return fmt.Errorf("%v (0x%04x) is not supported", name, deviceType)
	}
	dev, err := newDevice("0.0.0.0", ip, hw, b.timeout)
	if err != nil {
		return fmt.Errorf("error adding %v at %v: %v", name, ip, err)
	}
	b.devices = append(b.devices, dev)
	return nil
}

// Transmit encodes cmd into IR timings and sends it through the first device.
func (b *Broadlink) Transmit(cmd Command) error {
	if len(b.devices) == 0 {
		return ErrNoDevices
	}
	durations, err := commandPulses(cmd, b.toggle)
	if err != nil {
		return err
	}
	b.toggle = !b.toggle
	return b.devices[0].sendData(broadlinkIRData(durations, cmd.Repeats))
}

func hostAddresses() ([]net.IP, error) {
	var filtered []net.IP
	addresses, err := net.InterfaceAddrs()
	if err != nil {
		return filtered, fmt.Errorf("could not retrieve host addresses: %v", err)
	}
	for _, a := range addresses {
		s := a.String()
		if index := strings.Index(s, "/"); index != -1 {
			s = s[:index]
		}
		ip := net.ParseIP(s)
		if ip == nil {
			continue
		}
		ip4 := ip.To4()
		if ip4 == nil || ip4.IsLoopback() {
			continue
		}
		filtered = append(filtered, ip4)
	}
	return filtered, nil
}

func (b *Broadlink) readDiscoveryPackets(conn net.PacketConn) {
	var buf [1024]byte
	if b.timeout <= 0 {
		b.timeout = defaultTimeout
	}
	for {
		conn.SetReadDeadline(time.Now().Add(time.Duration(b.timeout) * time.Second))
		plen, remote, err := conn.ReadFrom(buf[:])
		if err != nil {
			if e, ok := err.(net.Error); ok && e.Timeout() {
				return
			}
			log.Printf("Error reading UDP packet: %v", err)
			return
		}
		log.Printf("Received packet of length %v bytes from %v", plen, remote.String())
		if plen < 0x40 {
			log.Print("Ignoring packet because it is too short")
			continue
		}
		mac := net.HardwareAddr{buf[0x3f], buf[0x3e], buf[0x3d], buf[0x3c], buf[0x3b], buf[0x3a]}
		deviceType := int(buf[0x34]) | int(buf[0x35])<<8

		b.addDevice(conn.LocalAddr().String(), remote, mac, deviceType)
	}
}

func (b *Broadlink) addDevice(localAddr string, remoteAddr net.Addr, mac net.HardwareAddr, deviceType int) {
	known, name, supported := isKnownDevice(deviceType)
	if !known {
		log.Printf("Unknown device 0x%04x at address %v, MAC %v", deviceType, remoteAddr.String(), mac.String())
		return
	}
	if !supported {
		log.Printf("Unsupported %v found at address %v, MAC %v", name, remoteAddr.String(), mac.String())
		return
	}
	if index := strings.Index(localAddr, ":"); index != -1 {
		localAddr = localAddr[:index]
	}
	remote := remoteAddr.String()
	if index := strings.LastIndex(remote, ":"); index != -1 {
		remote = remote[:index]
	}
	log.Printf("Found a supported %v at address %v, MAC %v from local address %v", name, remote, mac.String(), localAddr)
	dev, err := newDevice(localAddr, remote, mac, b.timeout)
	if err != nil {
		log.Printf("Error creating new device: %v", err)
		return
	}
	b.devices = append(b.devices, dev)
}

func sendBroadcastPacket(conn net.PacketConn) error {
	ip, port, err := parseIPAndPort(conn.LocalAddr().String())
	if err != nil {
		return err
	}

	var packet [0x30]byte

	t := currentTime(time.Now())
	copy(packet[0x08:], t[:])
	copy(packet[0x18:], ip[:])
	copy(packet[0x1c:], port[:])
	packet[0x26] = 6
	checksum := calculateChecksum(packet[:])
	copy(packet[0x20:], checksum[:])

	destAddr, err := net.ResolveUDPAddr("udp", "255.255.255.255:80")
	if err != nil {
		return fmt.Errorf("could not resolve broadcast address: %v", err)
	}
	if _, err := conn.WriteTo(packet[:], destAddr); err != nil {
		return fmt.Errorf("error while writing broadcast message: %v", err)
	}
	return nil
}

func parseIPAndPort(address string) ([4]byte, [2]byte, error) {
	var ip [4]byte
	var port [2]byte

	index := strings.LastIndex(address, ":")
	if index == -1 {
		return ip, port, fmt.Errorf("%v is not of the form XXX.XXX.XXX.XXX:XXX", address)
	}

	p, err := strconv.Atoi(address[index+1:])
	if err != nil || p < 0 || p > 0xffff {
		return ip, port, fmt.Errorf("could not parse port number %v", address[index+1:])
	}
	port[0] = byte(p & 0xff)
	port[1] = byte(p >> 8)

	components := strings.Split(address[:index], ".")
	if len(components) != 4 {
		return ip, port, fmt.Errorf("%v is not of the form XXX.XXX.XXX.XXX", address[:index])
	}

	for i := 0; i < 4; i++ {
		tmp, err := strconv.Atoi(components[i])
		if err != nil || tmp < 0 || tmp > 255 {
			return ip, port, fmt.Errorf("%v is not a valid IP address", address[:index])
		}
		ip[i] = byte(tmp)
	}

	return ip, port, nil
}

// currentTime encodes now in the layout of the discovery packet.
func currentTime(now time.Time) [12]byte {
	var b [12]byte

	_, offset := now.Zone()
	offset = offset / 3600

	if offset < 0 {
		b[0] = byte(0xff + offset - 1)
		b[1] = 0xff
		b[2] = 0xff
		b[3] = 0xff
	} else {
		b[0] = byte(offset)
	}

	year := now.Year()
	b[4] = byte(year & 0xff)
	b[5] = byte(year >> 8)
	b[6] = byte(now.Minute())
	b[7] = byte(now.Hour())
	b[8] = byte(year % 100)
	b[9] = byte(now.Weekday())
	b[10] = byte(now.Day())
	b[11] = byte(now.Month())

	return b
}

func calculateChecksum(p []byte) [2]byte {
	checksum := 0xbeaf
	for _, v := range p {
		checksum += int(v)
	}
	checksum = checksum & 0xffff
	return [2]byte{byte(checksum & 0xff), byte(checksum >> 8)}
}
