package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cyclenes/internal/cartridge"
	"cyclenes/internal/logger"
)

// BatteryPath returns <dir>/<rom>.sav
func BatteryPath(dir string, rom ROMInfo) string {
	return filepath.Join(dir, rom.Name()+".sav")
}

// LoadBattery restores battery RAM from path. A board without a battery or a
// missing file is not an error.
func LoadBattery(cart *cartridge.Cartridge, path string) error {
	if cart == nil || cart.BatteryRAM() == nil {
		return nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read battery save: %w", err)
	}
	if err := cart.LoadBatteryRAM(data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	logger.Logf(logger.TagApp, "restored %d bytes of battery RAM", len(data))
	return nil
}

// SaveBattery writes battery RAM to path when the board has any.
func SaveBattery(cart *cartridge.Cartridge, path string) error {
	if cart == nil {
		return nil
	}
	data := cart.BatteryRAM()
	if data == nil {
		return nil
	}
	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write battery save: %w", err)
	}
	logger.Logf(logger.TagApp, "wrote battery save %s", path)
	return nil
}
