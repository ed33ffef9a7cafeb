package program

import "sort"

// Field is a named fixed-size field inside a record type.
type Field struct {
	Name   string
	Offset uint32
	Size   uint32
}

// RecordType is a fixed-size record layout, used for peripheral register
// overlays.
type RecordType struct {
	Name   string
	Size   uint32
	fields map[uint32]Field
}

// NewRecordType creates an empty record type of the given byte size.
func NewRecordType(name string, size uint32) *RecordType {
	return &RecordType{
		Name:   name,
		Size:   size,
		fields: map[uint32]Field{},
	}
}

// DefineField places a field at the given byte offset. A field already
// defined at the offset is replaced, the last definition wins.
// It reports whether an existing field was replaced.
func (t *RecordType) DefineField(offset uint32, name string, size uint32) bool {
	_, replaced := t.fields[offset]
	t.fields[offset] = Field{Name: name, Offset: offset, Size: size}
	return replaced
}

// Fields returns the fields ordered by offset.
func (t *RecordType) Fields() []Field {
	fields := make([]Field, 0, len(t.fields))
	for _, f := range t.fields {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool {
		return fields[i].Offset < fields[j].Offset
	})
	return fields
}

// RecordInstance is a record type placed at an address in the listing.
type RecordInstance struct {
	Address uint32
	Type    *RecordType
}

// AddType registers a record type, replacing any prior type of the same
// name.
func (s *AddressSpace) AddType(t *RecordType) {
	if _, exists := s.types[t.Name]; !exists {
		s.typeOrder = append(s.typeOrder, t.Name)
	}
	s.types[t.Name] = t
}

// Type returns the registered record type with the given name, nil if none.
func (s *AddressSpace) Type(name string) *RecordType {
	return s.types[name]
}

// Types returns all registered record types in registration order.
func (s *AddressSpace) Types() []*RecordType {
	types := make([]*RecordType, 0, len(s.typeOrder))
	for _, name := range s.typeOrder {
		types = append(types, s.types[name])
	}
	return types
}

// PlaceRecord instantiates a record type at an address in the listing. A
// record already placed at the address is replaced.
func (s *AddressSpace) PlaceRecord(address uint32, t *RecordType) {
	for i, instance := range s.instances {
		if instance.Address == address {
			s.instances[i].Type = t
			return
		}
	}
	s.instances = append(s.instances, RecordInstance{Address: address, Type: t})
}

// Records returns all placed record instances in placement order.
func (s *AddressSpace) Records() []RecordInstance {
	return s.instances
}
