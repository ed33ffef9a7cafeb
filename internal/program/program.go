// Package program models the target address space that the load mutates:
// named permissioned memory regions, a code address range collection,
// external entry points, record types and labels.
package program

import (
	"errors"
	"fmt"
	"sort"

	"github.com/retroenv/retrogolib/set"
)

var (
	// ErrRegionConflict is returned when a new region would overlap an
	// existing one.
	ErrRegionConflict = errors.New("memory region conflict")
	// ErrOutOfRegion is returned when a byte write does not fit into the
	// target region.
	ErrOutOfRegion = errors.New("write outside of memory region")
)

// Region is a named memory region with access permissions. Data is nil for
// uninitialized regions.
type Region struct {
	Name  string
	Start uint32
	Size  uint32
	Data  []byte

	Read    bool
	Write   bool
	Execute bool

	// Source records the provenance of the region content.
	Source string
}

// End returns the exclusive end address of the region.
func (r *Region) End() uint32 {
	return r.Start + r.Size
}

// Contains returns whether the address lies inside the region.
func (r *Region) Contains(address uint32) bool {
	return address >= r.Start && address < r.End()
}

// Initialized returns whether the region has backing bytes.
func (r *Region) Initialized() bool {
	return r.Data != nil
}

// WriteAt overwrites region bytes starting at the given absolute address.
func (r *Region) WriteAt(address uint32, data []byte) error {
	if !r.Contains(address) || uint64(address)+uint64(len(data)) > uint64(r.End()) {
		return fmt.Errorf("%d bytes at 0x%08X into region %s: %w",
			len(data), address, r.Name, ErrOutOfRegion)
	}
	copy(r.Data[address-r.Start:], data)
	return nil
}

// AddressRange is a half-open address range [Start,End).
type AddressRange struct {
	Start uint32
	End   uint32
}

// AddressSpace is the externally owned mutation target of a load. It may
// already be partially populated by an earlier load phase, every operation
// tolerates existing content.
type AddressSpace struct {
	regions     []*Region
	codeRanges  []AddressRange
	entryPoints []uint32
	entrySeen   set.Set[uint32]

	types     map[string]*RecordType
	typeOrder []string
	instances []RecordInstance

	namespaces map[string]*Namespace
	nsOrder    []string
}

// NewAddressSpace creates an empty address space.
func NewAddressSpace() *AddressSpace {
	return &AddressSpace{
		entrySeen:  set.New[uint32](),
		types:      map[string]*RecordType{},
		namespaces: map[string]*Namespace{},
	}
}

// CreateInitializedRegion creates a region backed by the given bytes.
func (s *AddressSpace) CreateInitializedRegion(name string, start uint32,
	data []byte, read, write, execute bool) (*Region, error) {

	region := &Region{
		Name:    name,
		Start:   start,
		Size:    uint32(len(data)),
		Data:    data,
		Read:    read,
		Write:   write,
		Execute: execute,
	}
	return region, s.insert(region)
}

// CreateUninitializedRegion creates a region without backing bytes.
func (s *AddressSpace) CreateUninitializedRegion(name string, start, size uint32,
	read, write bool) (*Region, error) {

	region := &Region{
		Name:  name,
		Start: start,
		Size:  size,
		Read:  read,
		Write: write,
	}
	return region, s.insert(region)
}

func (s *AddressSpace) insert(region *Region) error {
	for _, existing := range s.regions {
		if region.Start < existing.End() && existing.Start < region.End() {
			return fmt.Errorf("region %s [0x%08X:0x%08X] overlaps %s: %w",
				region.Name, region.Start, region.End(), existing.Name, ErrRegionConflict)
		}
	}
	s.regions = append(s.regions, region)
	sort.Slice(s.regions, func(i, j int) bool {
		return s.regions[i].Start < s.regions[j].Start
	})
	return nil
}

// RegionContaining returns the region covering the address, nil if none.
func (s *AddressSpace) RegionContaining(address uint32) *Region {
	for _, region := range s.regions {
		if region.Contains(address) {
			return region
		}
	}
	return nil
}

// Covers returns whether the whole range [start,end) lies inside existing
// regions.
func (s *AddressSpace) Covers(start, end uint32) bool {
	for addr := start; addr < end; {
		region := s.RegionContaining(addr)
		if region == nil {
			return false
		}
		addr = region.End()
	}
	return true
}

// ConvertToInitialized gives an uninitialized region zero filled backing
// bytes. Initialized regions are left untouched.
func (s *AddressSpace) ConvertToInitialized(region *Region) {
	if region.Data == nil {
		region.Data = make([]byte, region.Size)
	}
}

// Regions returns all regions ordered by start address.
func (s *AddressSpace) Regions() []*Region {
	return s.regions
}

// AddCodeRange marks [start,end) as executable code. Overlapping and
// adjacent ranges are coalesced, repeated additions are no-ops.
func (s *AddressSpace) AddCodeRange(start, end uint32) {
	if start >= end {
		return
	}
	s.codeRanges = append(s.codeRanges, AddressRange{Start: start, End: end})
	sort.Slice(s.codeRanges, func(i, j int) bool {
		return s.codeRanges[i].Start < s.codeRanges[j].Start
	})

	merged := s.codeRanges[:1]
	for _, r := range s.codeRanges[1:] {
		last := &merged[len(merged)-1]
		if r.Start <= last.End {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	s.codeRanges = merged
}

// CodeRanges returns the collected code ranges ordered by start address.
func (s *AddressSpace) CodeRanges() []AddressRange {
	return s.codeRanges
}

// AddEntryPoint registers an external entry point. Repeated registration of
// the same address is a no-op.
func (s *AddressSpace) AddEntryPoint(address uint32) {
	if s.entrySeen.Contains(address) {
		return
	}
	s.entrySeen.Add(address)
	s.entryPoints = append(s.entryPoints, address)
}

// EntryPoints returns the registered entry points in registration order.
func (s *AddressSpace) EntryPoints() []uint32 {
	return s.entryPoints
}
