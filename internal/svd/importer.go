package svd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/retroenv/esp32goload/internal/image"
	"github.com/retroenv/esp32goload/internal/program"
	"github.com/retroenv/retrogolib/log"
)

// PeripheralNamespace is the label namespace all peripheral labels are
// created in.
const PeripheralNamespace = "Peripherals"

// registerSize is the width of a register field in the record overlay.
const registerSize = 4

// variantMarker selects the descriptor file for the ESP32-S2.
const variantMarker = "esp32s2"

// Importer materializes peripheral register maps as memory regions, record
// types and labels in the target address space.
type Importer struct {
	logger *log.Logger
	space  *program.AddressSpace
}

// NewImporter creates a new peripheral descriptor importer targeting the
// given address space.
func NewImporter(logger *log.Logger, space *program.AddressSpace) *Importer {
	return &Importer{
		logger: logger,
		space:  space,
	}
}

// SelectFile picks the descriptor file matching the chip variant. Files
// whose name contains the variant marker belong to the ESP32-S2, all others
// to the original ESP32. If no file matches, the first one is used.
func SelectFile(files []string, variant image.ChipVariant) string {
	if len(files) == 0 {
		return ""
	}
	wantMarker := variant == image.ChipESP32S2
	for _, file := range files {
		hasMarker := strings.Contains(strings.ToLower(filepath.Base(file)), variantMarker)
		if hasMarker == wantMarker {
			return file
		}
	}
	return files[0]
}

// ImportFile parses the descriptor file and imports all peripherals.
func (i *Importer) ImportFile(ctx context.Context, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening svd file %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	device, err := Parse(file)
	if err != nil {
		return fmt.Errorf("parsing svd file %s: %w", path, err)
	}
	return i.Import(ctx, device)
}

// Import materializes all peripherals of the device. Malformed peripherals
// are logged and skipped, the import continues with the remaining ones.
func (i *Importer) Import(ctx context.Context, device *Device) error {
	for _, malformed := range device.Malformed {
		i.logger.Warn("Skipping malformed peripheral",
			log.Int("index", malformed.Index),
			log.String("name", malformed.Name),
			log.Err(malformed.Err))
	}

	for _, peripheral := range device.Peripherals {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("importing peripherals: %w", err)
		}
		i.importPeripheral(peripheral)
	}
	return nil
}

func (i *Importer) importPeripheral(peripheral Peripheral) {
	_, err := i.space.CreateUninitializedRegion(peripheral.Name,
		peripheral.BaseAddress, peripheral.Size, true, true)
	if err != nil {
		// region conflicts happen on re-import, the overlay below still
		// replaces the prior type definition
		i.logger.Warn("Peripheral region not created", log.Err(err))
	}

	record := program.NewRecordType(peripheral.Name, peripheral.Size)
	for _, register := range peripheral.Registers {
		if register.Offset >= peripheral.Size {
			i.logger.Warn("Register offset outside of peripheral block",
				log.String("peripheral", peripheral.Name),
				log.String("register", register.Name),
				log.String("offset", fmt.Sprintf("0x%X", register.Offset)))
			continue
		}
		if record.DefineField(register.Offset, register.Name, registerSize) {
			i.logger.Debug("Duplicate register offset, last definition wins",
				log.String("peripheral", peripheral.Name),
				log.String("register", register.Name),
				log.String("offset", fmt.Sprintf("0x%X", register.Offset)))
		}
	}

	i.space.AddType(record)
	i.space.PlaceRecord(peripheral.BaseAddress, record)

	namespace := i.space.EnsureNamespace(PeripheralNamespace)
	namespace.AddLabel(peripheral.Name, peripheral.BaseAddress)

	i.logger.Debug("Imported peripheral",
		log.String("name", peripheral.Name),
		log.String("address", fmt.Sprintf("0x%08X", peripheral.BaseAddress)),
		log.Int("registers", len(peripheral.Registers)))
}
