package cartridge

import "fmt"

// BankPolicy decides what a bank index past the end of a region resolves to.
type BankPolicy uint8

const (
	// BankWrap reduces the index modulo the region's bank count. For power
	// of two sizes this is what unconnected high address lines do.
	BankWrap BankPolicy = iota
	// BankOpenBus leaves the data bus undriven: reads return open bus and
	// writes are dropped.
	BankOpenBus
)

func (p BankPolicy) String() string {
	switch p {
	case BankWrap:
		return "wrap"
	case BankOpenBus:
		return "openbus"
	}
	return fmt.Sprintf("BankPolicy(%d)", uint8(p))
}

// ParseBankPolicy converts a config string to a policy.
func ParseBankPolicy(s string) (BankPolicy, error) {
	switch s {
	case "wrap":
		return BankWrap, nil
	case "openbus":
		return BankOpenBus, nil
	}
	return BankWrap, fmt.Errorf("unknown bank policy %q", s)
}

// BankPolicies holds a board's policy for each of its banked regions.
type BankPolicies struct {
	PRG BankPolicy
	CHR BankPolicy
	RAM BankPolicy
}

// Uniform returns a policy set applying p to every region.
func Uniform(p BankPolicy) BankPolicies {
	return BankPolicies{PRG: p, CHR: p, RAM: p}
}

// bankOffset resolves a bank of bankSize bytes within a region of size bytes.
// Negative banks count back from the end of the region, so -1 is the last bank.
func bankOffset(size, bankSize, bank, offset int, policy BankPolicy) (int, bool) {
	count := size / bankSize
	if count == 0 {
		return 0, false
	}
	if bank < 0 {
		bank = count + bank%count
		if bank == count {
			bank = 0
		}
	}
	if bank >= count {
		if policy == BankOpenBus {
			return 0, false
		}
		bank %= count
	}
	return bank*bankSize + offset&(bankSize-1), true
}

// bankCount returns how many banks of bankSize fit in size bytes.
func bankCount(size, bankSize int) int {
	return size / bankSize
}
