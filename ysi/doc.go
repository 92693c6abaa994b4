// Package ysi reads a YSI multiparameter sonde over a serial line.
//
// The protocol is ASCII. Requests open with a "$" initiator:
//
//	-> $ADC Get Normal SENSOR_DO_PERCENT_SAT\r\n
//	<- $49.9\r\n$ACK\r\n
//
// Responses carry one payload between the initiator and the fixed
// "\r\n$ACK\r\n" terminator. Sensor channels answer with a float; the unit
// ID query answers with a URL-encoded string.
package ysi
