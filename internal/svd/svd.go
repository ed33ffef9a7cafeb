// Package svd parses CMSIS-SVD chip descriptor files and imports the
// peripheral register maps into the target address space.
package svd

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
)

var (
	// ErrMissingField is returned for a peripheral node lacking a required
	// child node.
	ErrMissingField = errors.New("missing required field")
	// ErrBadNumber is returned for a numeric literal that is neither
	// hexadecimal nor decimal.
	ErrBadNumber = errors.New("invalid numeric literal")
)

// Register is a named register at a byte offset inside a peripheral block.
type Register struct {
	Name   string
	Offset uint32
}

// Peripheral is the register map of one hardware peripheral.
type Peripheral struct {
	Name        string
	BaseAddress uint32
	Size        uint32
	Registers   []Register
}

// Malformed records a peripheral node that could not be decoded. The
// importer logs these and continues with the remaining peripherals.
type Malformed struct {
	Index int
	Name  string
	Err   error
}

// Device is the decoded subset of an SVD document.
type Device struct {
	Peripherals []Peripheral
	Malformed   []Malformed
}

// XML document subset, decoded in a single pass. All numeric values are
// text nodes holding hexadecimal or decimal literals.
type deviceNode struct {
	XMLName     xml.Name         `xml:"device"`
	Peripherals []peripheralNode `xml:"peripherals>peripheral"`
}

type peripheralNode struct {
	Name         string           `xml:"name"`
	BaseAddress  string           `xml:"baseAddress"`
	AddressBlock addressBlockNode `xml:"addressBlock"`
	Registers    []registerNode   `xml:"registers>register"`
}

type addressBlockNode struct {
	Size string `xml:"size"`
}

type registerNode struct {
	Name          string `xml:"name"`
	AddressOffset string `xml:"addressOffset"`
}

// Parse decodes an SVD document into the typed peripheral model. A
// peripheral node missing a required field does not fail the parse, it is
// reported in Device.Malformed instead.
func Parse(r io.Reader) (*Device, error) {
	var doc deviceNode
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding svd document: %w", err)
	}

	device := &Device{}
	for i, node := range doc.Peripherals {
		peripheral, err := decodePeripheral(node)
		if err != nil {
			device.Malformed = append(device.Malformed, Malformed{
				Index: i,
				Name:  node.Name,
				Err:   err,
			})
			continue
		}
		device.Peripherals = append(device.Peripherals, peripheral)
	}
	return device, nil
}

func decodePeripheral(node peripheralNode) (Peripheral, error) {
	if node.Name == "" {
		return Peripheral{}, fmt.Errorf("peripheral name: %w", ErrMissingField)
	}
	if node.BaseAddress == "" {
		return Peripheral{}, fmt.Errorf("peripheral %s baseAddress: %w", node.Name, ErrMissingField)
	}
	if node.AddressBlock.Size == "" {
		return Peripheral{}, fmt.Errorf("peripheral %s addressBlock size: %w", node.Name, ErrMissingField)
	}

	base, err := decodeNumber(node.BaseAddress)
	if err != nil {
		return Peripheral{}, fmt.Errorf("peripheral %s baseAddress: %w", node.Name, err)
	}
	size, err := decodeNumber(node.AddressBlock.Size)
	if err != nil {
		return Peripheral{}, fmt.Errorf("peripheral %s addressBlock size: %w", node.Name, err)
	}

	peripheral := Peripheral{
		Name:        node.Name,
		BaseAddress: base,
		Size:        size,
	}

	for _, reg := range node.Registers {
		if reg.Name == "" || reg.AddressOffset == "" {
			return Peripheral{}, fmt.Errorf("peripheral %s register: %w", node.Name, ErrMissingField)
		}
		offset, err := decodeNumber(reg.AddressOffset)
		if err != nil {
			return Peripheral{}, fmt.Errorf("peripheral %s register %s: %w", node.Name, reg.Name, err)
		}
		peripheral.Registers = append(peripheral.Registers, Register{
			Name:   reg.Name,
			Offset: offset,
		})
	}
	return peripheral, nil
}

// decodeNumber parses a hexadecimal (0x prefixed) or decimal literal.
func decodeNumber(s string) (uint32, error) {
	value, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", s, ErrBadNumber)
	}
	return uint32(value), nil
}
