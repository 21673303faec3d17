package ipset

import (
	"net/netip"
	"sort"
	"strings"
)

// Set is an unordered collection of IP addresses without duplicates.
// IPv4 and IPv6 addresses may be mixed.
type Set map[netip.Addr]struct{}

func New(addrs ...netip.Addr) Set {
	s := make(Set, len(addrs))
	for i := range addrs {
		s.Add(addrs[i])
	}
	return s
}

// Add inserts addr. Invalid (zero) addresses are ignored.
func (s Set) Add(addr netip.Addr) {
	if !addr.IsValid() {
		return
	}
	s[addr] = struct{}{}
}

func (s Set) Has(addr netip.Addr) bool {
	_, ok := s[addr]
	return ok
}

func (s Set) Len() int {
	return len(s)
}

// Equal reports whether both sets hold exactly the same addresses.
func (s Set) Equal(o Set) bool {
	if len(s) != len(o) {
		return false
	}
	for k := range s {
		if _, ok := o[k]; !ok {
			return false
		}
	}
	return true
}

// Merge adds every address of o to s.
func (s Set) Merge(o Set) {
	for k := range o {
		s[k] = struct{}{}
	}
}

// Slice returns the addresses in ascending order, IPv4 first.
func (s Set) Slice() []netip.Addr {
	out := make([]netip.Addr, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Less(out[j])
	})
	return out
}

// Family returns the subset of IPv4 (is4 == true) or IPv6 addresses.
func (s Set) Family(is4 bool) Set {
	out := make(Set)
	for k := range s {
		if k.Is4() == is4 {
			out[k] = struct{}{}
		}
	}
	return out
}

func (s Set) String() string {
	addrs := s.Slice()
	str := make([]string, len(addrs))
	for i := range addrs {
		str[i] = addrs[i].String()
	}
	return strings.Join(str, ", ")
}

// RecordType gives the DNS record type holding addr.
func RecordType(addr netip.Addr) string {
	if addr.Is4() {
		return "A"
	}
	return "AAAA"
}
