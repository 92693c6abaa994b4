// Package waterbath drives a NESLAB RTE-series temperature-controlled water
// bath over its binary serial protocol.
//
// The protocol is master/slave and half-duplex: the host sends a framed
// command packet and the bath answers with a packet of the same framing. A
// packet on the wire is:
//
//	[Prefix][Addr-MSB][Addr-LSB][Command][N data bytes][data...][Checksum]
//
// Prefix is 0xCA on RS-232 (0xCC on RS-485) and the RS-232 device address is
// fixed at 0x00 0x01. The checksum is the bitwise inversion (XOR 0xFF) of the
// one-byte sum of every byte from Addr-MSB through the last data byte.
//
// Read commands carry no data. Set commands carry a two-byte big-endian
// integer: the desired value divided by the bath's reporting precision
// (0.1 or 0.01). Responses to both carry a qualifier byte that names the
// precision the bath actually used, followed by the two-byte value.
package waterbath
