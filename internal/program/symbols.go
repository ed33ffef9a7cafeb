package program

// Label is a named address inside a namespace.
type Label struct {
	Name    string
	Address uint32
}

// Namespace groups labels under a common name.
type Namespace struct {
	Name   string
	labels []Label
	byName map[string]int
}

// EnsureNamespace returns the namespace with the given name, creating it on
// first use.
func (s *AddressSpace) EnsureNamespace(name string) *Namespace {
	if ns, ok := s.namespaces[name]; ok {
		return ns
	}
	ns := &Namespace{
		Name:   name,
		byName: map[string]int{},
	}
	s.namespaces[name] = ns
	s.nsOrder = append(s.nsOrder, name)
	return ns
}

// Namespaces returns all namespaces in creation order.
func (s *AddressSpace) Namespaces() []*Namespace {
	namespaces := make([]*Namespace, 0, len(s.nsOrder))
	for _, name := range s.nsOrder {
		namespaces = append(namespaces, s.namespaces[name])
	}
	return namespaces
}

// AddLabel creates a label at the address. A label of the same name is
// moved to the new address instead of being duplicated.
func (n *Namespace) AddLabel(name string, address uint32) {
	if i, ok := n.byName[name]; ok {
		n.labels[i].Address = address
		return
	}
	n.byName[name] = len(n.labels)
	n.labels = append(n.labels, Label{Name: name, Address: address})
}

// Labels returns the labels in creation order.
func (n *Namespace) Labels() []Label {
	return n.labels
}
