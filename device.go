package irremote

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net"
	"time"
)

// Broadlink command bytes.
const (
	commandAuthenticate   = 0x65
	commandRequest        = 0x6a
	responseAuthenticated = 0xe9
)

var (
	initialKey = []byte{0x09, 0x76, 0x28, 0x34, 0x3f, 0xe9, 0x9e, 0x23, 0x76, 0x5c, 0x15, 0x13, 0xac, 0xcf, 0x8b, 0x02}
	initialIV  = []byte{0x56, 0x2e, 0x17, 0x99, 0x6d, 0x09, 0x3d, 0x28, 0xdd, 0xb3, 0xba, 0x69, 0x5a, 0x2e, 0x6f, 0x58}
)

type device struct {
	conn       net.PacketConn
	localAddr  string
	remoteAddr string
	timeout    int
	mac        net.HardwareAddr
	count      int
	key        []byte
	iv         []byte
	id         []byte
}

func newDevice(localAddr, remoteAddr string, mac net.HardwareAddr, timeout int) (*device, error) {
	d := &device{
		localAddr:  localAddr,
		remoteAddr: remoteAddr,
		timeout:    timeout,
		mac:        mac,
		count:      rand.Intn(0xffff),
		key:        append([]byte(nil), initialKey...),
		iv:         append([]byte(nil), initialIV...),
		id:         []byte{0, 0, 0, 0},
	}

	// readPacket updates the key and id from the authentication response.
	if err := d.serverRequest(commandAuthenticate, authenticatePayload()); err != nil {
		return d, fmt.Errorf("error authenticating with %v: %v", remoteAddr, err)
	}

	return d, nil
}

func (d *device) serverRequest(command byte, payload []byte) error {
	if err := d.setupConnection(); err != nil {
		return fmt.Errorf("could not setup UDP listener: %v", err)
	}
	defer d.close()

	if err := d.sendPacket(command, payload); err != nil {
		return fmt.Errorf("could not send packet: %v", err)
	}

	return d.readPacket()
}

func (d *device) close() {
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}
}

func (d *device) setupConnection() error {
	if d.conn != nil {
		return nil
	}
	conn, err := net.ListenPacket("udp4", d.localAddr+":0")
	if err != nil {
		return err
	}
	d.conn = conn
	return nil
}

func authenticatePayload() []byte {
	payload := make([]byte, 0x50)
	for i := 0x04; i <= 0x12; i++ {
		payload[i] = 0x31
	}
	payload[0x1e] = 0x01
	payload[0x2d] = 0x01
	copy(payload[0x30:], "Test  1")
	return payload
}

// buildPacket frames and encrypts payload. payload is zero padded to the AES
// block size.
func (d *device) buildPacket(command byte, payload []byte) ([]byte, error) {
	if rem := len(payload) % aes.BlockSize; rem != 0 {
		payload = append(payload, make([]byte, aes.BlockSize-rem)...)
	}

	d.count = (d.count + 1) & 0xffff
	header := make([]byte, 0x38)
	copy(header, []byte{0x5a, 0xa5, 0xaa, 0x55, 0x5a, 0xa5, 0xaa, 0x55})
	header[0x24] = 0x2a
	header[0x25] = 0x27
	header[0x26] = command
	header[0x28] = byte(d.count & 0xff)
	header[0x29] = byte(d.count >> 8)
	header[0x2a] = d.mac[5]
	header[0x2b] = d.mac[4]
	header[0x2c] = d.mac[3]
	header[0x2d] = d.mac[2]
	header[0x2e] = d.mac[1]
	header[0x2f] = d.mac[0]
	copy(header[0x30:0x34], d.id)

	payloadChecksum := calculateChecksum(payload)

	block, err := aes.NewCipher(d.key)
	if err != nil {
		return nil, fmt.Errorf("unable to create new AES cipher: %v", err)
	}
	encrypted := make([]byte, len(payload))
	cipher.NewCBCEncrypter(block, d.iv).CryptBlocks(encrypted, payload)

	packet := append(header, encrypted...)
	packet[0x34] = payloadChecksum[0]
	packet[0x35] = payloadChecksum[1]

	checksum := calculateChecksum(packet)
	packet[0x20] = checksum[0]
	packet[0x21] = checksum[1]
	return packet, nil
}

func (d *device) sendPacket(command byte, payload []byte) error {
	packet, err := d.buildPacket(command, payload)
	if err != nil {
		return err
	}

	destAddr, err := net.ResolveUDPAddr("udp", d.remoteAddr+":80")
	if err != nil {
		return fmt.Errorf("could not resolve device address %v: %v", d.remoteAddr, err)
	}

	if err := d.setupConnection(); err != nil {
		return err
	}
	if _, err := d.conn.WriteTo(packet, destAddr); err != nil {
		return fmt.Errorf("could not send packet: %v", err)
	}
	return nil
}

func (d *device) readPacket() error {
	var buf [1024]byte
	if d.conn == nil {
		return errors.New("a connection to the device does not exist")
	}
	d.conn.SetReadDeadline(time.Now().Add(time.Duration(d.timeout) * time.Second))
	plen, _, err := d.conn.ReadFrom(buf[:])
	if err != nil {
		return fmt.Errorf("error reading UDP packet: %v", err)
	}
	return d.processResponse(buf[:plen])
}

// processResponse decrypts a response and picks up the session key and id
// after authentication.
func (d *device) processResponse(packet []byte) error {
	if len(packet) < 0x38+aes.BlockSize {
		return fmt.Errorf("received a packet with a length of %v which is too short", len(packet))
	}

	errorCode := int(packet[0x22]) | int(packet[0x23])<<8
	if errorCode != 0 {
		return fmt.Errorf("device returned error code 0x%04x", errorCode)
	}

	encrypted := packet[0x38:]
	if len(encrypted)%aes.BlockSize != 0 {
		return fmt.Errorf("encrypted payload length %v is not a multiple of the block size", len(encrypted))
	}
	block, err := aes.NewCipher(d.key)
	if err != nil {
		return fmt.Errorf("error creating new decryption cipher: %v", err)
	}
	payload := make([]byte, len(encrypted))
	cipher.NewCBCDecrypter(block, d.iv).CryptBlocks(payload, encrypted)

	if packet[0x26] == responseAuthenticated {
		if len(payload) < 0x14 {
			return fmt.Errorf("authentication response from %v carries %d bytes, need at least %d", d.remoteAddr, len(payload), 0x14)
		}
		copy(d.key, payload[0x04:0x14])
		copy(d.id, payload[:0x04])
		log.Printf("Device %v ready", d.remoteAddr)
	}
	return nil
}

// sendData sends an IR data block. The device doesn't acknowledge IR sends
// in a way that's worth waiting for.
func (d *device) sendData(data []byte) error {
	payload := make([]byte, 4, len(data)+4)
	payload[0] = 0x02
	payload = append(payload, data...)

	defer d.close()
	if err := d.sendPacket(commandRequest, payload); err != nil {
		return fmt.Errorf("could not send packet: %v", err)
	}
	return nil
}
