package auction

// BidderList keeps the best MaxSize bids of one auction sorted ascending by
// amount: the first entry is the lowest retained bid, the last the highest.
type BidderList struct {
	List    []Bid  `json:"list" cbor:"1,keyasint"`
	MaxSize uint16 `json:"max_size" cbor:"2,keyasint"`
}

// NewBidderList returns an empty list capped at maxSize entries.
func NewBidderList(maxSize uint16) BidderList {
	return BidderList{List: make([]Bid, 0, maxSize), MaxSize: maxSize}
}

// Len returns the number of retained bids.
func (l *BidderList) Len() int { return len(l.List) }

// Clone returns a deep copy.
func (l BidderList) Clone() BidderList {
	c := BidderList{MaxSize: l.MaxSize, List: make([]Bid, len(l.List), max(len(l.List), int(l.MaxSize)))}
	copy(c.List, l.List)
	return c
}

// HighestBid returns the last entry.
func (l *BidderList) HighestBid() (Bid, bool) {
	if len(l.List) == 0 {
		return Bid{}, false
	}
	return l.List[len(l.List)-1], true
}

// LowestBid returns the first entry.
func (l *BidderList) LowestBid() (Bid, bool) {
	if len(l.List) == 0 {
		return Bid{}, false
	}
	return l.List[0], true
}

// FindBid returns the bid placed by account. The list is ordered by amount,
// not by bidder, so this is a linear scan over at most MaxSize entries.
func (l *BidderList) FindBid(account AccountID) (Bid, bool) {
	if i := l.indexOf(account); i >= 0 {
		return l.List[i], true
	}
	return Bid{}, false
}

// InsertNewBid inserts the bid keeping the list sorted; a bid equal to
// existing ones goes after them. When the list grows past MaxSize the lowest
// bid is evicted and returned so the caller can refund it.
//
// Bid monotonicity is the caller's job: this is a purely structural insert.
func (l *BidderList) InsertNewBid(account AccountID, amount Balance) (Bid, bool) {
	// New bids are expected near the top, so search from the end.
	i := len(l.List)
	for i > 0 && l.List[i-1].Amount > amount {
		i--
	}
	l.List = append(l.List, Bid{})
	copy(l.List[i+1:], l.List[i:])
	l.List[i] = Bid{Bidder: account, Amount: amount}

	if len(l.List) > int(l.MaxSize) {
		evicted := l.List[0]
		l.List = append(l.List[:0], l.List[1:]...)
		return evicted, true
	}
	return Bid{}, false
}

// RemoveBid removes the bid placed by account, preserving the order of the rest.
func (l *BidderList) RemoveBid(account AccountID) (Bid, bool) {
	i := l.indexOf(account)
	if i < 0 {
		return Bid{}, false
	}
	removed := l.List[i]
	l.List = append(l.List[:i], l.List[i+1:]...)
	return removed, true
}

// RemoveHighestBid pops the last entry.
func (l *BidderList) RemoveHighestBid() (Bid, bool) {
	if len(l.List) == 0 {
		return Bid{}, false
	}
	last := l.List[len(l.List)-1]
	l.List = l.List[:len(l.List)-1]
	return last, true
}

func (l *BidderList) indexOf(account AccountID) int {
	for i := range l.List {
		if l.List[i].Bidder == account {
			return i
		}
	}
	return -1
}
