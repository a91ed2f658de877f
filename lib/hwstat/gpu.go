// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package hwstat

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gantry-foundation/gantry/lib/schema"
)

// isCardDevice returns true for DRM card device names (card0, card1,
// ...) but not connectors (card0-DP-1) or render nodes (renderD128).
func isCardDevice(name string) bool {
	if !strings.HasPrefix(name, "card") {
		return false
	}
	suffix := name[4:]
	if len(suffix) == 0 {
		return false
	}
	for _, character := range suffix {
		if character < '0' || character > '9' {
			return false
		}
	}
	return true
}

// parsePCIUevent extracts the normalized vendor and PCI slot from a
// DRM device's uevent file. The uevent file contains lines like:
//
//	PCI_ID=1002:744A
//	PCI_SLOT_NAME=0000:c3:00.0
func parsePCIUevent(devicePath string) (vendor, pciSlot string) {
	data, err := os.ReadFile(filepath.Join(devicePath, "uevent"))
	if err != nil {
		return "", ""
	}

	for _, line := range strings.Split(string(data), "\n") {
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		switch parts[0] {
		case "PCI_ID":
			ids := strings.SplitN(parts[1], ":", 2)
			if len(ids) == 2 {
				vendor = pciVendorName(strings.ToLower(ids[0]))
			}
		case "PCI_SLOT_NAME":
			pciSlot = parts[1]
		}
	}
	return vendor, pciSlot
}

// pciVendorName maps a PCI vendor ID to the normalized name used in
// GPUSample.Vendor. Unrecognized vendors map to empty.
func pciVendorName(vendorID string) string {
	switch vendorID {
	case "1002":
		return "amd"
	case "10de":
		return "nvidia"
	case "8086":
		return "intel"
	}
	return ""
}

// sampleGPUs enumerates DRM card devices under sysRoot and reads one
// GPUSample per card, ordered by PCI slot. Missing sensors produce
// zero fields; a card without a PCI slot (virtual DRM device) is
// skipped.
func sampleGPUs(sysRoot string) []schema.GPUSample {
	drmBase := filepath.Join(sysRoot, "class/drm")
	entries, err := os.ReadDir(drmBase)
	if err != nil {
		return nil
	}

	var samples []schema.GPUSample
	for _, entry := range entries {
		if !isCardDevice(entry.Name()) {
			continue
		}
		devicePath := filepath.Join(drmBase, entry.Name(), "device")
		vendor, pciSlot := parsePCIUevent(devicePath)
		if pciSlot == "" {
			continue
		}

		sample := schema.GPUSample{
			PCISlot:            pciSlot,
			Vendor:             vendor,
			Name:               readDeviceName(devicePath),
			UtilizationPercent: float64(readSysfsInt64(filepath.Join(devicePath, "gpu_busy_percent"))),
			VRAMTotalBytes:     uint64(readSysfsInt64(filepath.Join(devicePath, "mem_info_vram_total"))),
			VRAMUsedBytes:      uint64(readSysfsInt64(filepath.Join(devicePath, "mem_info_vram_used"))),
		}
		readHwmonSensors(devicePath, &sample)
		samples = append(samples, sample)
	}

	sort.Slice(samples, func(i, j int) bool {
		return samples[i].PCISlot < samples[j].PCISlot
	})
	return samples
}

// readDeviceName returns the marketing name for the device when the
// driver exposes one (amdgpu's product_name), falling back to empty.
func readDeviceName(devicePath string) string {
	return readSysfsString(filepath.Join(devicePath, "product_name"))
}

// readHwmonSensors fills temperature, power, and clock fields from
// the card's hwmon directory. The hwmon subdirectory name (hwmon0,
// hwmon3, ...) is not stable across boots, so the first entry with a
// readable sensor wins.
//
// Units follow hwmon conventions: temp1_input in millidegrees,
// power1_average in microwatts, freq*_input in hertz.
func readHwmonSensors(devicePath string, sample *schema.GPUSample) {
	hwmonBase := filepath.Join(devicePath, "hwmon")
	entries, err := os.ReadDir(hwmonBase)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "hwmon") {
			continue
		}
		hwmonDir := filepath.Join(hwmonBase, entry.Name())

		sample.TemperatureMillidegrees = readSysfsInt64(filepath.Join(hwmonDir, "temp1_input"))
		if microwatts := readSysfsInt64(filepath.Join(hwmonDir, "power1_average")); microwatts > 0 {
			sample.PowerDrawWatts = float64(microwatts) / 1e6
		}
		if hertz := readSysfsInt64(filepath.Join(hwmonDir, "freq1_input")); hertz > 0 {
			sample.ClockMHz = uint64(hertz / 1e6)
		}
		if hertz := readSysfsInt64(filepath.Join(hwmonDir, "freq2_input")); hertz > 0 {
			sample.MemClockMHz = uint64(hertz / 1e6)
		}

		if sample.TemperatureMillidegrees != 0 || sample.PowerDrawWatts != 0 {
			return
		}
	}
}

// readSysfsString reads a single-line sysfs file and returns its
// trimmed content. Returns "" on any error.
func readSysfsString(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// readSysfsInt64 reads a 64-bit integer from a sysfs file. Returns 0
// on error.
func readSysfsInt64(path string) int64 {
	value := readSysfsString(path)
	if value == "" {
		return 0
	}
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}
