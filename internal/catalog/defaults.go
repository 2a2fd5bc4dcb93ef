package catalog

func ptr(v float64) *float64 { return &v }

// DefaultPoints is the plant's factory point list, used to seed an empty
// catalog on first start.
func DefaultPoints() []Point {
	return []Point{
		{Name: "cv", XID: "DP_851894", FriendlyName: "Control valve", Unit: "%", MinVal: ptr(0), MaxVal: ptr(100)},
		{Name: "freq1", XID: "DP_693642", FriendlyName: "Inverter 1 frequency", Unit: "Hz", MinVal: ptr(0), MaxVal: ptr(60)},
		{Name: "freq2", XID: "DP_XXXXXX", FriendlyName: "Inverter 2 frequency", Unit: "Hz", MinVal: ptr(0), MaxVal: ptr(60)},
		{Name: "pt1", XID: "DP_155700", FriendlyName: "Pressure transmitter 1", Unit: "bar"},
		{Name: "pt2", XID: "DP_719779", FriendlyName: "Pressure transmitter 2", Unit: "bar"},
		{Name: "ft1", XID: "DP_041666", FriendlyName: "Flow meter 1", Unit: "m³/h"},
	}
}
