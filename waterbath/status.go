package waterbath

import (
	"fmt"
	"strings"
)

// Status is the bath's fault/warning/state register block, decoded from the
// five data bytes of a Read Status response. Field names and ordering follow
// the manual; bits are taken most significant first within each byte. The
// last three bits of byte 5 are unused.
type Status struct {
	// Byte 1
	RTD1OpenFault    bool
	RTD1ShortedFault bool
	RTD1Open         bool
	RTD1Shorted      bool
	RTD3OpenFault    bool
	RTD3ShortedFault bool
	RTD3Open         bool
	RTD3Shorted      bool
	// Byte 2
	RTD2OpenFault    bool
	RTD2ShortedFault bool
	RTD2OpenWarn     bool
	RTD2ShortedWarn  bool
	RTD2Open         bool
	RTD2Shorted      bool
	RefrigHighTemp   bool
	HTCFault         bool
	// Byte 3
	HighFixedTempFault bool
	LowFixedTempFault  bool
	HighTempFault      bool
	LowTempFault       bool
	LowLevelFault      bool
	HighTempWarn       bool
	LowTempWarn        bool
	LowLevelWarn       bool
	// Byte 4
	BuzzerOn     bool
	AlarmMuted   bool
	UnitFaulted  bool
	UnitStopping bool
	UnitOn       bool
	PumpOn       bool
	CompressorOn bool
	HeaterOn     bool
	// Byte 5 (a flashing LED is also reported as on)
	RTD2Controlling  bool
	HeatLEDFlashing  bool
	HeatLEDOn        bool
	CoolLEDFlashing  bool
	CoolLEDOn        bool
}

const statusDataBytes = 5

// parseStatusData decodes the Read Status data bytes bit by bit.
func parseStatusData(data []byte) (Status, error) {
	if len(data) != statusDataBytes {
		return Status{}, fmt.Errorf("%w: status data is %d bytes, want %d (data: % X)",
			ErrInvalidResponse, len(data), statusDataBytes, data)
	}

	bits := make([]bool, 0, statusDataBytes*8)
	for _, b := range data {
		for shift := 7; shift >= 0; shift-- {
			bits = append(bits, b&(1<<shift) != 0)
		}
	}

	return Status{
		RTD1OpenFault:    bits[0],
		RTD1ShortedFault: bits[1],
		RTD1Open:         bits[2],
		RTD1Shorted:      bits[3],
		RTD3OpenFault:    bits[4],
		RTD3ShortedFault: bits[5],
		RTD3Open:         bits[6],
		RTD3Shorted:      bits[7],

		RTD2OpenFault:    bits[8],
		RTD2ShortedFault: bits[9],
		RTD2OpenWarn:     bits[10],
		RTD2ShortedWarn:  bits[11],
		RTD2Open:         bits[12],
		RTD2Shorted:      bits[13],
		RefrigHighTemp:   bits[14],
		HTCFault:         bits[15],

		HighFixedTempFault: bits[16],
		LowFixedTempFault:  bits[17],
		HighTempFault:      bits[18],
		LowTempFault:       bits[19],
		LowLevelFault:      bits[20],
		HighTempWarn:       bits[21],
		LowTempWarn:        bits[22],
		LowLevelWarn:       bits[23],

		BuzzerOn:     bits[24],
		AlarmMuted:   bits[25],
		UnitFaulted:  bits[26],
		UnitStopping: bits[27],
		UnitOn:       bits[28],
		PumpOn:       bits[29],
		CompressorOn: bits[30],
		HeaterOn:     bits[31],

		RTD2Controlling: bits[32],
		HeatLEDFlashing: bits[33],
		HeatLEDOn:       bits[34],
		CoolLEDFlashing: bits[35],
		CoolLEDOn:       bits[36],
	}, nil
}

// ErrorFlags returns the names of every raised flag that indicates a fault,
// warning, shorted sensor, or refrigerant over-temperature. A bath with any
// of these raised is not safe to keep collecting data against.
func (s Status) ErrorFlags() []string {
	alarming := []struct {
		name   string
		raised bool
	}{
		{"rtd1 open fault", s.RTD1OpenFault},
		{"rtd1 shorted fault", s.RTD1ShortedFault},
		{"rtd1 shorted", s.RTD1Shorted},
		{"rtd3 open fault", s.RTD3OpenFault},
		{"rtd3 shorted fault", s.RTD3ShortedFault},
		{"rtd3 shorted", s.RTD3Shorted},
		{"rtd2 open fault", s.RTD2OpenFault},
		{"rtd2 shorted fault", s.RTD2ShortedFault},
		{"rtd2 open warn", s.RTD2OpenWarn},
		{"rtd2 shorted warn", s.RTD2ShortedWarn},
		{"rtd2 shorted", s.RTD2Shorted},
		{"refrig high temp", s.RefrigHighTemp},
		{"htc fault", s.HTCFault},
		{"high fixed temp fault", s.HighFixedTempFault},
		{"low fixed temp fault", s.LowFixedTempFault},
		{"high temp fault", s.HighTempFault},
		{"low temp fault", s.LowTempFault},
		{"low level fault", s.LowLevelFault},
		{"high temp warn", s.HighTempWarn},
		{"low temp warn", s.LowTempWarn},
		{"low level warn", s.LowLevelWarn},
		{"unit faulted", s.UnitFaulted},
	}

	var flags []string
	for _, flag := range alarming {
		if flag.raised {
			flags = append(flags, flag.name)
		}
	}

	return flags
}

// Validate reports ErrBadStatus naming every raised error flag.
func (s Status) Validate() error {
	flags := s.ErrorFlags()
	if len(flags) == 0 {
		return nil
	}

	return fmt.Errorf("%w: %s", ErrBadStatus, strings.Join(flags, "; "))
}
