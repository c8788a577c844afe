package auction

import "sort"

// Deadline is the scheduled end of one auction.
type Deadline struct {
	NFTID NFTID       `json:"nft_id" cbor:"1,keyasint"`
	Block BlockNumber `json:"block" cbor:"2,keyasint"`
}

// DeadlineList orders the ends of every live auction ascending by block.
// Entries sharing a block keep their insertion order. Callers keep at most
// one entry per auction.
type DeadlineList struct {
	Entries []Deadline `json:"entries" cbor:"1,keyasint"`
}

// Len returns the number of scheduled auctions.
func (d *DeadlineList) Len() int { return len(d.Entries) }

// Clone returns a deep copy.
func (d DeadlineList) Clone() DeadlineList {
	c := DeadlineList{Entries: make([]Deadline, len(d.Entries))}
	copy(c.Entries, d.Entries)
	return c
}

// Insert schedules id to end at block.
func (d *DeadlineList) Insert(id NFTID, block BlockNumber) {
	// Upper bound keeps ties in arrival order.
	i := sort.Search(len(d.Entries), func(i int) bool {
		return d.Entries[i].Block > block
	})
	d.Entries = append(d.Entries, Deadline{})
	copy(d.Entries[i+1:], d.Entries[i:])
	d.Entries[i] = Deadline{NFTID: id, Block: block}
}

// Remove drops the entry of id and reports whether there was one.
func (d *DeadlineList) Remove(id NFTID) bool {
	for i := range d.Entries {
		if d.Entries[i].NFTID == id {
			d.Entries = append(d.Entries[:i], d.Entries[i+1:]...)
			return true
		}
	}
	return false
}

// Update reschedules id to block. It reports false, changing nothing, when
// id was not scheduled.
func (d *DeadlineList) Update(id NFTID, block BlockNumber) bool {
	if !d.Remove(id) {
		return false
	}
	d.Insert(id, block)
	return true
}

// Next returns the earliest scheduled auction if it is due at block.
// The entry is left in place.
func (d *DeadlineList) Next(block BlockNumber) (NFTID, bool) {
	if len(d.Entries) == 0 || d.Entries[0].Block > block {
		return 0, false
	}
	return d.Entries[0].NFTID, true
}
