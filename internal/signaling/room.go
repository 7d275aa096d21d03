package signaling

// Room is a pairing scope for exactly two participants. The slots are
// storage only; a joiner takes whichever is free, and the role lives on the
// client. A room has no life of its own: it is created on first join and
// deleted by the hub as soon as its last member leaves.
type Room struct {
	ID    string
	Host  *Client
	Guest *Client
}

// Size returns the current member count.
func (r *Room) Size() int {
	n := 0
	if r.Host != nil {
		n++
	}
	if r.Guest != nil {
		n++
	}
	return n
}

// Other returns the member that is not c, or nil.
func (r *Room) Other(c *Client) *Client {
	switch c {
	case r.Host:
		return r.Guest
	case r.Guest:
		return r.Host
	}
	return nil
}

// Remaining returns whichever member is still present, or nil.
func (r *Room) Remaining() *Client {
	if r.Host != nil {
		return r.Host
	}
	return r.Guest
}

// Remove clears c's slot and reports whether c was a member.
func (r *Room) Remove(c *Client) bool {
	switch c {
	case r.Host:
		r.Host = nil
	case r.Guest:
		r.Guest = nil
	default:
		return false
	}
	return true
}
