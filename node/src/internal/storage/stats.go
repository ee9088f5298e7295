package storage

// Stats is a point-in-time view of the store.
//
// ClientsConnected counts every connection ever accepted and never goes
// down; ClientsActive tracks connections that are still open.
type Stats struct {
	Tuples           int           `json:"tuples"`
	AvgKeyLen        float64       `json:"avg_key_len"`
	AvgValueLen      float64       `json:"avg_value_len"`
	ClientsConnected int           `json:"clients_connected"`
	ClientsActive    int           `json:"clients_active"`
	Ops              map[Op]uint64 `json:"ops"`
}

// TotalOps returns the sum of all operation counters.
func (s Stats) TotalOps() uint64 {
	var total uint64
	for _, n := range s.Ops {
		total += n
	}
	return total
}
