package bt

import (
	"encoding/binary"
	"fmt"

	"tinygo.org/x/bluetooth"
)

// Location and Navigation Service (LNS) UUIDs
// See: https://www.bluetooth.com/specifications/specs/location-and-navigation-service-1-0/
var (
	ServiceUUIDLocationNavigation = bluetooth.New16BitUUID(0x1819)
	CharUUIDLocationAndSpeed      = bluetooth.New16BitUUID(0x2A67)
)

// Location and Speed flag bits
const (
	lnsFlagSpeedPresent         = 1 << 0
	lnsFlagTotalDistancePresent = 1 << 1
	lnsFlagLocationPresent      = 1 << 2
	lnsFlagElevationPresent     = 1 << 3
	lnsFlagPositionStatusShift  = 7
	lnsFlagPositionStatusMask   = 0x3
)

// PositionStatus is the quality of a reported fix
type PositionStatus uint8

const (
	PositionStatusNone PositionStatus = iota
	PositionStatusOK
	PositionStatusEstimated
	PositionStatusLastKnown
)

// LocationAndSpeed is the decoded part of a Location and Speed notification
type LocationAndSpeed struct {
	SpeedMetersPerSecond float64
	HasSpeed             bool
	TotalDistanceMeters  float64
	Latitude             float64
	Longitude            float64
	HasLocation          bool
	ElevationMeters      float64
	HasElevation         bool
	Status               PositionStatus
}

// ParseLocationAndSpeed decodes a Location and Speed characteristic value.
// Fields after elevation (heading, rolling time, UTC time) are not decoded.
func ParseLocationAndSpeed(buf []byte) (LocationAndSpeed, error) {
	var ls LocationAndSpeed
	if len(buf) < 2 {
		return ls, fmt.Errorf("location and speed data too short: %d bytes", len(buf))
	}
	flags := binary.LittleEndian.Uint16(buf[0:2])
	ls.Status = PositionStatus((flags >> lnsFlagPositionStatusShift) & lnsFlagPositionStatusMask)
	offset := 2

	need := func(n int, field string) error {
		if len(buf) < offset+n {
			return fmt.Errorf("location and speed data too short for %s: %d bytes", field, len(buf))
		}
		return nil
	}

	if flags&lnsFlagSpeedPresent != 0 {
		if err := need(2, "speed"); err != nil {
			return ls, err
		}
		ls.SpeedMetersPerSecond = float64(binary.LittleEndian.Uint16(buf[offset:])) / 100
		ls.HasSpeed = true
		offset += 2
	}

	if flags&lnsFlagTotalDistancePresent != 0 {
		if err := need(3, "total distance"); err != nil {
			return ls, err
		}
		ls.TotalDistanceMeters = float64(uint24(buf[offset:])) / 10
		offset += 3
	}

	if flags&lnsFlagLocationPresent != 0 {
		if err := need(8, "location"); err != nil {
			return ls, err
		}
		ls.Latitude = float64(int32(binary.LittleEndian.Uint32(buf[offset:]))) / 1e7
		ls.Longitude = float64(int32(binary.LittleEndian.Uint32(buf[offset+4:]))) / 1e7
		ls.HasLocation = true
		offset += 8
	}

	if flags&lnsFlagElevationPresent != 0 {
		if err := need(3, "elevation"); err != nil {
			return ls, err
		}
		raw := int32(uint24(buf[offset:]))
		if raw&0x800000 != 0 {
			raw -= 1 << 24
		}
		ls.ElevationMeters = float64(raw) / 100
		ls.HasElevation = true
	}

	return ls, nil
}

func uint24(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}
