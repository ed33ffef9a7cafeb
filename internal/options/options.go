// Package options contains the program options.
package options

import "strings"

// Program options of the loader.
type Program struct {
	Input  string // image file to load
	Output string // memory map report file, stdout if empty

	Partition string // partition to load from a full flash dump
	SVD       string // comma separated list of SVD descriptor files

	Debug bool
	Quiet bool
}

// DescriptorFiles returns the configured SVD file paths.
func (p Program) DescriptorFiles() []string {
	var files []string
	for _, file := range strings.Split(p.SVD, ",") {
		if file = strings.TrimSpace(file); file != "" {
			files = append(files, file)
		}
	}
	return files
}
