package waterbath

import (
	"fmt"
	"strings"
)

// Fixed framing bytes for RS-232 mode. On RS-485 the prefix is 0xCC and the
// address LSB ranges over 0x01-0x64; this driver supports RS-232 only.
const (
	PrefixRS232 byte = 0xCA
	PrefixRS485 byte = 0xCC

	deviceAddressMSB byte = 0x00
	deviceAddressLSB byte = 0x01
)

// MaxDataBytes is the protocol limit on the data field length.
const MaxDataBytes = 8

// packetOverhead is the byte count of a packet with an empty data field:
// prefix, two address bytes, command, data count, checksum.
const packetOverhead = 6

// Packet is one framed command or response.
//
// Packets are validated on construction (NewCommandPacket, ParsePacket) and
// never mutated afterwards.
type Packet struct {
	Prefix   byte
	AddrMSB  byte
	AddrLSB  byte
	Command  Command
	Data     []byte
	Checksum byte
}

// NewCommandPacket builds an outgoing packet around command and data,
// computing the checksum. data may be nil for read commands.
func NewCommandPacket(command Command, data []byte) (*Packet, error) {
	if len(data) > MaxDataBytes {
		return nil, fmt.Errorf("waterbath: %d data bytes exceeds maximum %d", len(data), MaxDataBytes)
	}

	pkt := &Packet{
		Prefix:  PrefixRS232,
		AddrMSB: deviceAddressMSB,
		AddrLSB: deviceAddressLSB,
		Command: command,
		Data:    data,
	}
	pkt.Checksum = Checksum(pkt.messageBytes())

	return pkt, nil
}

// ParsePacket deserializes and validates a packet from raw wire bytes.
//
// Every failed check is reported, not just the first, and the raw bytes are
// always included for diagnosis.
func ParsePacket(raw []byte) (*Packet, error) {
	if len(raw) < packetOverhead {
		return nil, fmt.Errorf("%w: got %d bytes, want at least %d (raw: % X)",
			ErrInvalidResponse, len(raw), packetOverhead, raw)
	}

	pkt := &Packet{
		Prefix:   raw[0],
		AddrMSB:  raw[1],
		AddrLSB:  raw[2],
		Command:  Command(raw[3]),
		Data:     raw[5 : len(raw)-1],
		Checksum: raw[len(raw)-1],
	}
	dataCount := int(raw[4])

	checks := []struct {
		name     string
		actual   int
		expected int
	}{
		{"prefix", int(pkt.Prefix), int(PrefixRS232)},
		{"addr msb", int(pkt.AddrMSB), int(deviceAddressMSB)},
		{"addr lsb", int(pkt.AddrLSB), int(deviceAddressLSB)},
		{"data bytes count", dataCount, len(pkt.Data)},
		{"checksum", int(pkt.Checksum), int(Checksum(pkt.messageBytes()))},
	}

	var failures []string
	for _, check := range checks {
		if check.actual != check.expected {
			failures = append(failures,
				fmt.Sprintf("%s actual (0x%02X) != expected (0x%02X)", check.name, check.actual, check.expected))
		}
	}

	if len(failures) > 0 {
		return nil, fmt.Errorf("%w: %s (raw: % X)", ErrInvalidResponse, strings.Join(failures, "; "), raw)
	}

	return pkt, nil
}

// Bytes serializes the packet to its wire format.
func (p *Packet) Bytes() []byte {
	out := make([]byte, 0, packetOverhead+len(p.Data))
	out = append(out, p.Prefix)
	out = append(out, p.messageBytes()...)
	out = append(out, p.Checksum)

	return out
}

// messageBytes is everything between the prefix and the checksum: the span
// the checksum is computed over.
func (p *Packet) messageBytes() []byte {
	msg := make([]byte, 0, 4+len(p.Data))
	msg = append(msg, p.AddrMSB, p.AddrLSB, byte(p.Command), byte(len(p.Data)))
	msg = append(msg, p.Data...)

	return msg
}

func (p *Packet) String() string {
	return fmt.Sprintf("bytes: % X, command: %s, data: % X", p.Bytes(), p.Command, p.Data)
}

// Checksum computes the packet checksum over the message bytes (Addr-MSB
// through the last data byte): the one-byte sum, bitwise inverted.
func Checksum(messageBytes []byte) byte {
	var sum int
	for _, b := range messageBytes {
		sum += int(b)
	}

	return byte(sum&0xFF) ^ 0xFF
}
