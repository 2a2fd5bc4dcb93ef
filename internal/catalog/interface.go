package catalog

// Point maps a stable logical name to a SCADA XID plus display metadata
// and an optional safety range.
type Point struct {
	Name         string   `json:"name"`
	XID          string   `json:"xid"`
	FriendlyName string   `json:"friendly_name"`
	Unit         string   `json:"unit"`
	MinVal       *float64 `json:"min_val,omitempty"`
	MaxVal       *float64 `json:"max_val,omitempty"`
}

// Store is the persistence contract for the point catalog.
type Store interface {
	List() ([]Point, error)
	Get(name string) (*Point, error)
	Add(point Point) error
	Update(point Point) error
	Delete(name string) error
	Reorder(names []string) error
	Seed(points []Point) error
	Close() error
}
