package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"strings"
	"time"
)

var processStart = time.Now()

// StartedAt reports when this process came up. Clients compare it across
// responses to detect a server restart.
func StartedAt() time.Time {
	return processStart
}

// GetDeviceID reads the physical MAC address of the machine and hashes it
// so clients see a clean, stable ID like "PHARM-A1B2C3D4"
func GetDeviceID() string {
	interfaces, err := net.Interfaces()
	if err != nil {
		return "UNKNOWN-DEVICE"
	}

	var macAddress string
	for _, i := range interfaces {
		// Find the first active physical network interface
		if i.Flags&net.FlagUp != 0 && len(i.HardwareAddr) > 0 {
			macAddress = i.HardwareAddr.String()
			break
		}
	}

	if macAddress == "" {
		return "UNKNOWN-DEVICE"
	}

	hash := sha256.Sum256([]byte(macAddress + "PHARMACY-POS-SALT"))
	hashString := hex.EncodeToString(hash[:])

	return "PHARM-" + strings.ToUpper(hashString[:8])
}

// InstanceID identifies this exact process: same device, new value after
// every restart.
func InstanceID() string {
	seed := fmt.Sprintf("%s|%d|%d", GetDeviceID(), os.Getpid(), processStart.UnixNano())
	hash := sha256.Sum256([]byte(seed))
	return GetDeviceID() + "-" + strings.ToUpper(hex.EncodeToString(hash[:])[:8])
}
