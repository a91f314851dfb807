package domain

import "strings"

// Mode is an ASVCO2 operating state as written in DATA and STATS lines.
type Mode string

const (
	ModeZPON   Mode = "ZPON"
	ModeZPOFF  Mode = "ZPOFF"
	ModeZPPCAL Mode = "ZPPCAL"
	ModeSPON   Mode = "SPON"
	ModeSPOFF  Mode = "SPOFF"
	ModeSPPCAL Mode = "SPPCAL"
	ModeEPON   Mode = "EPON"
	ModeEPOFF  Mode = "EPOFF"
	ModeAPON   Mode = "APON"
	ModeAPOFF  Mode = "APOFF"
)

// AllModes lists the ten operating states in firmware cycle order.
var AllModes = []Mode{
	ModeZPON, ModeZPOFF, ModeZPPCAL,
	ModeSPON, ModeSPOFF, ModeSPPCAL,
	ModeEPON, ModeEPOFF, ModeAPON, ModeAPOFF,
}

// IsValid reports whether m is one of the ten known operating states.
func (m Mode) IsValid() bool {
	for _, known := range AllModes {
		if m == known {
			return true
		}
	}
	return false
}

// Matches reports whether a raw mode label emitted by firmware belongs to m.
// Firmware emits compound names such as "APOFF-2", so containment is used.
func (m Mode) Matches(label string) bool {
	return strings.Contains(label, string(m))
}

// ModeOf returns the operating state a firmware label belongs to, matching
// compound labels such as "APOFF-2" by containment.
func ModeOf(label string) (Mode, bool) {
	if m, ok := ParseMode(label); ok {
		return m, true
	}
	for _, m := range AllModes {
		if m.Matches(label) {
			return m, true
		}
	}
	return "", false
}

// ParseMode resolves a mode name, returning false for unknown names.
func ParseMode(s string) (Mode, bool) {
	m := Mode(strings.ToUpper(strings.TrimSpace(s)))
	return m, m.IsValid()
}

// String returns the mode name
func (m Mode) String() string {
	return string(m)
}
