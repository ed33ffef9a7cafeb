// Package writer renders the populated address space as a text memory map
// report.
package writer

import (
	"fmt"
	"io"

	"github.com/retroenv/esp32goload/internal/program"
)

// Write renders the memory map report of the address space.
func Write(w io.Writer, space *program.AddressSpace) error {
	if err := writeRegions(w, space); err != nil {
		return err
	}
	if err := writeEntryPoints(w, space); err != nil {
		return err
	}
	if err := writeCodeRanges(w, space); err != nil {
		return err
	}
	return writePeripherals(w, space)
}

func writeRegions(w io.Writer, space *program.AddressSpace) error {
	if _, err := fmt.Fprintf(w, "Memory regions:\n"); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	for _, region := range space.Regions() {
		state := "uninitialized"
		if region.Initialized() {
			state = "initialized"
		}
		source := region.Source
		if source == "" {
			source = "-"
		}
		if _, err := fmt.Fprintf(w, "  %-16s 0x%08X-0x%08X  %s  %-13s  %s\n",
			region.Name, region.Start, region.End(), permissions(region),
			state, source); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	}
	return nil
}

func writeEntryPoints(w io.Writer, space *program.AddressSpace) error {
	for _, entry := range space.EntryPoints() {
		if _, err := fmt.Fprintf(w, "Entry point: 0x%08X\n", entry); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	}
	return nil
}

func writeCodeRanges(w io.Writer, space *program.AddressSpace) error {
	ranges := space.CodeRanges()
	if len(ranges) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "Code ranges:\n"); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	for _, r := range ranges {
		if _, err := fmt.Fprintf(w, "  0x%08X-0x%08X\n", r.Start, r.End); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	}
	return nil
}

func writePeripherals(w io.Writer, space *program.AddressSpace) error {
	for _, namespace := range space.Namespaces() {
		if _, err := fmt.Fprintf(w, "%s:\n", namespace.Name); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		for _, label := range namespace.Labels() {
			line := fmt.Sprintf("  %-16s 0x%08X", label.Name, label.Address)
			if t := space.Type(label.Name); t != nil {
				line += fmt.Sprintf("  %d registers, 0x%X bytes",
					len(t.Fields()), t.Size)
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}
		}
	}
	return nil
}

func permissions(region *program.Region) string {
	perms := []byte("---")
	if region.Read {
		perms[0] = 'r'
	}
	if region.Write {
		perms[1] = 'w'
	}
	if region.Execute {
		perms[2] = 'x'
	}
	return string(perms)
}
