// internal/canid/filter.go
package canid

// Filter is an acceptance code/mask pair over the 29-bit identifier.
// A frame passes when (id & Mask) == (Code & Mask).
type Filter struct {
	Code uint32
	Mask uint32
}

// Matches reports whether the raw identifier passes the filter.
func (f Filter) Matches(raw uint32) bool {
	return raw&f.Mask == f.Code&f.Mask
}

// FilterSet is the pair of filters installed for one node.
// A frame is accepted when either filter matches.
type FilterSet struct {
	Node      Filter // own device type, coarse device id
	Broadcast Filter // any frame carrying the version flag
}

// dualShift selects identifier bits 28..13, the part a 16-bit
// hardware comparator can see.
const dualShift = 13

// coarseIDMask keeps the top 3 bits of the device id; the
// exact id comparison is left to software.
const coarseIDMask = 0xE0

// Filters derives the hardware filters for a node.
// Must be re-derived whenever the node address changes.
func Filters(deviceType, deviceID uint8) FilterSet {
	version := uint32(1) << versionShift

	node := Filter{
		Code: version |
			(uint32(deviceType)&deviceTypeMask)<<deviceTypeShift |
			(uint32(deviceID)&coarseIDMask)<<deviceIDShift,
		Mask: version |
			deviceTypeMask<<deviceTypeShift |
			coarseIDMask<<deviceIDShift,
	}

	return FilterSet{
		Node:      node,
		Broadcast: Filter{Code: version, Mask: version},
	}
}

// Accepts reports whether the raw identifier passes the set.
func (s FilterSet) Accepts(raw uint32) bool {
	return s.Node.Matches(raw) || s.Broadcast.Matches(raw)
}

// All returns the filters in installation order.
func (s FilterSet) All() []Filter {
	return []Filter{s.Node, s.Broadcast}
}

// DualFilter is the narrowed form for controllers that compare only
// 16 identifier bits per filter (two filters per register set).
type DualFilter struct {
	Codes [2]uint16
	Masks [2]uint16
}

// Dual narrows the set to two 16-bit code/mask pairs.
func (s FilterSet) Dual() DualFilter {
	narrow := func(v uint32) uint16 { return uint16(v >> dualShift) }
	return DualFilter{
		Codes: [2]uint16{narrow(s.Node.Code), narrow(s.Broadcast.Code)},
		Masks: [2]uint16{narrow(s.Node.Mask), narrow(s.Broadcast.Mask)},
	}
}

// Accepts reports whether the raw identifier passes the narrowed filters.
func (d DualFilter) Accepts(raw uint32) bool {
	v := uint16(raw >> dualShift)
	for i := range d.Codes {
		if v&d.Masks[i] == d.Codes[i]&d.Masks[i] {
			return true
		}
	}
	return false
}
