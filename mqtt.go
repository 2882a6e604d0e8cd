package irremote

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const mqttTimeout = 5 * time.Second

// tasmotaIRSend is the payload accepted by the Tasmota IRsend command.
type tasmotaIRSend struct {
	Protocol string `json:"Protocol"`
	Bits     int    `json:"Bits"`
	Data     string `json:"Data"`
	Repeat   int    `json:"Repeat"`
}

// publisher is the part of mqtt.Client used here.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTTransmitter publishes commands to a Tasmota IR bridge.
type MQTTTransmitter struct {
	client publisher
	topic  string
	toggle bool
}

// NewMQTTTransmitter connects to broker and publishes to cmnd/<topic>/IRsend.
func NewMQTTTransmitter(broker, clientID, topic string) (*MQTTTransmitter, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetConnectTimeout(mqttTimeout).
		SetAutoReconnect(true)
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttTimeout) {
		return nil, fmt.Errorf("timed out connecting to MQTT broker %v", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("could not connect to MQTT broker %v: %v", broker, err)
	}
	return newMQTTTransmitter(client, topic), nil
}

func newMQTTTransmitter(client publisher, topic string) *MQTTTransmitter {
	return &MQTTTransmitter{client: client, topic: fmt.Sprintf("cmnd/%s/IRsend", topic)}
}

// Transmit publishes cmd and waits for the broker to accept it.
func (t *MQTTTransmitter) Transmit(cmd Command) error {
	payload, err := encodeTasmota(cmd, t.toggle)
	if err != nil {
		return err
	}
	t.toggle = !t.toggle

	token := t.client.Publish(t.topic, 0, false, payload)
	if !token.WaitTimeout(mqttTimeout) {
		return fmt.Errorf("timed out publishing to %v", t.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("error publishing to %v: %v", t.topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (t *MQTTTransmitter) Close() error {
	if c, ok := t.client.(mqtt.Client); ok {
		c.Disconnect(250)
	}
	return nil
}

// encodeTasmota packs cmd the way IRremoteESP8266 does: RC5 is toggle,
// 5 address bits and 6 command bits, with a 13th bit for commands >= 64;
// RC6 mode 0 is toggle, 8 address bits and 8 command bits in 20 bits.
func encodeTasmota(cmd Command, toggle bool) ([]byte, error) {
	var t uint64
	if toggle {
		t = 1
	}
	p := tasmotaIRSend{Protocol: cmd.Protocol.String(), Repeat: cmd.Repeats}
	var data uint64
	switch cmd.Protocol {
	case ProtocolRC5:
		address, function := rc5Fields(cmd)
		data = t<<11 | uint64(address)<<6 | uint64(function&0x3f)
		p.Bits = 12
		if function >= 0x40 {
			data |= 1 << 12
			p.Bits = 13
		}
	case ProtocolRC6:
		address, function := rc6Fields(cmd)
		data = t<<16 | uint64(address)<<8 | uint64(function)
		p.Bits = 20
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedProtocol, cmd.Protocol)
	}
	p.Data = fmt.Sprintf("0x%X", data)

	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("error encoding IRsend payload: %v", err)
	}
	return b, nil
}
