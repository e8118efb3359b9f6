package licensor

import (
	"crypto/sha256"
	"fmt"
	"net"
	"os"
	"runtime"
	"sort"
	"strings"
)

// FingerprintEnv overrides GenerateFingerprint when set.
const FingerprintEnv = "LICENSOR_FINGERPRINT"

// GenerateFingerprint produces a deterministic, reboot-safe machine identifier.
// It combines hostname, MAC addresses, OS, architecture, and machine-id (Linux)
// into a SHA-256 hex string.
//
// In containers, where MAC addresses and hostnames may change between runs,
// set LICENSOR_FINGERPRINT to pin the value.
func GenerateFingerprint() (string, error) {
	if fp := os.Getenv(FingerprintEnv); fp != "" {
		return fp, nil
	}

	hostname, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("get hostname: %w", err)
	}
	parts := []string{hostname}

	// best-effort
	if macs, err := macAddresses(); err == nil {
		parts = append(parts, macs...)
	}
	parts = append(parts, runtime.GOOS, runtime.GOARCH)
	if machineID, err := os.ReadFile("/etc/machine-id"); err == nil {
		parts = append(parts, strings.TrimSpace(string(machineID)))
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("%x", sum), nil
}

// macAddresses returns sorted, non-loopback hardware MAC addresses.
func macAddresses() ([]string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	var macs []string
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if mac := iface.HardwareAddr.String(); mac != "" {
			macs = append(macs, mac)
		}
	}
	sort.Strings(macs)
	return macs, nil
}

// BindToMachine stores the fingerprint of the current machine in the
// machineId feature. The document must be signed afterwards.
func BindToMachine(doc *Document) (string, error) {
	fp, err := GenerateFingerprint()
	if err != nil {
		return "", fmt.Errorf("generate fingerprint: %w", err)
	}
	doc.SetFeature(FeatureMachineID, fp)
	return fp, nil
}

// CheckMachine returns ErrMachineMismatch when doc is bound to a machine
// other than this one. Unbound documents pass.
func CheckMachine(doc *Document) error {
	want, ok := doc.Feature(FeatureMachineID)
	if !ok {
		return nil
	}
	got, err := GenerateFingerprint()
	if err != nil {
		return fmt.Errorf("generate fingerprint: %w", err)
	}
	if got != want {
		return ErrMachineMismatch
	}
	return nil
}
