package cartridge

import (
	"errors"
	"fmt"
)

// Sentinel causes wrapped by LoadError.
var (
	ErrHeaderTooShort = errors.New("header shorter than 16 bytes")
	ErrInvalidMagic   = errors.New("missing NES<EOF> magic")
	ErrEmptyPRG       = errors.New("PRG ROM size is zero")
	ErrTruncatedPRG   = errors.New("PRG ROM region truncated")
	ErrTruncatedCHR   = errors.New("CHR ROM region truncated")
	ErrTruncatedTrain = errors.New("trainer region truncated")
)

// LoadError reports a malformed ROM image. It is fatal to session start.
type LoadError struct {
	Op  string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("cartridge load failed (%s): %v", e.Op, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// UnsupportedMapperError reports a mapper number that is not in the registry.
type UnsupportedMapperError struct {
	Mapper    uint16
	Submapper uint8
}

func (e *UnsupportedMapperError) Error() string {
	if e.Submapper != 0 {
		return fmt.Sprintf("unsupported mapper %d (submapper %d)", e.Mapper, e.Submapper)
	}
	return fmt.Sprintf("unsupported mapper %d", e.Mapper)
}

// DiagnosticKind classifies a non-fatal load diagnostic.
type DiagnosticKind int

const (
	// DiagCHRSize is raised when the CHR region is not a whole number of the
	// board's CHR bank units. The region is zero-filled up to the next unit.
	DiagCHRSize DiagnosticKind = iota
	// DiagPRGSize is raised when PRG ROM is not a whole number of 8 KiB
	// units. The region is zero-filled the same way.
	DiagPRGSize
	// DiagTrailingData is raised when the image carries bytes after CHR ROM.
	DiagTrailingData
)

func (k DiagnosticKind) String() string {
	switch k {
	case DiagCHRSize:
		return "chr-size"
	case DiagPRGSize:
		return "prg-size"
	case DiagTrailingData:
		return "trailing-data"
	}
	return "unknown"
}

// Diagnostic is a reported, non-fatal anomaly found while loading an image.
type Diagnostic struct {
	Kind    DiagnosticKind
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Kind, d.Message)
}
