// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package hwstat

import (
	"os"
	"path/filepath"
	"testing"
)

// writeCard builds a synthetic DRM card directory under sysRoot with
// the given sysfs attribute files.
func writeCard(t *testing.T, sysRoot, card string, attributes map[string]string) string {
	t.Helper()
	devicePath := filepath.Join(sysRoot, "class/drm", card, "device")
	if err := os.MkdirAll(devicePath, 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	for name, content := range attributes {
		path := filepath.Join(devicePath, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	return devicePath
}

func TestIsCardDevice(t *testing.T) {
	tests := []struct {
		name     string
		expected bool
	}{
		{"card0", true},
		{"card1", true},
		{"card12", true},
		{"card0-DP-1", false},
		{"card0-HDMI-A-1", false},
		{"renderD128", false},
		{"card", false},
		{"version", false},
	}

	for _, test := range tests {
		if got := isCardDevice(test.name); got != test.expected {
			t.Errorf("isCardDevice(%q) = %v, want %v", test.name, got, test.expected)
		}
	}
}

func TestSampleGPUsAmdgpuCard(t *testing.T) {
	sysRoot := t.TempDir()
	writeCard(t, sysRoot, "card0", map[string]string{
		"uevent": "DRIVER=amdgpu\n" +
			"PCI_CLASS=38000\n" +
			"PCI_ID=1002:744A\n" +
			"PCI_SLOT_NAME=0000:c3:00.0\n",
		"product_name":                "Radeon RX 7900 XTX",
		"gpu_busy_percent":            "73\n",
		"mem_info_vram_total":         "25753026560\n",
		"mem_info_vram_used":          "19922944000\n",
		"hwmon/hwmon3/temp1_input":    "64000\n",
		"hwmon/hwmon3/power1_average": "284000000\n",
		"hwmon/hwmon3/freq1_input":    "2482000000\n",
		"hwmon/hwmon3/freq2_input":    "1249000000\n",
	})

	samples := sampleGPUs(sysRoot)
	if len(samples) != 1 {
		t.Fatalf("sampleGPUs returned %d samples, want 1", len(samples))
	}

	sample := samples[0]
	if sample.PCISlot != "0000:c3:00.0" {
		t.Errorf("PCISlot = %q, want 0000:c3:00.0", sample.PCISlot)
	}
	if sample.Vendor != "amd" {
		t.Errorf("Vendor = %q, want amd", sample.Vendor)
	}
	if sample.Name != "Radeon RX 7900 XTX" {
		t.Errorf("Name = %q", sample.Name)
	}
	if sample.UtilizationPercent != 73 {
		t.Errorf("UtilizationPercent = %f, want 73", sample.UtilizationPercent)
	}
	if sample.VRAMTotalBytes != 25753026560 {
		t.Errorf("VRAMTotalBytes = %d", sample.VRAMTotalBytes)
	}
	if sample.VRAMUsedBytes != 19922944000 {
		t.Errorf("VRAMUsedBytes = %d", sample.VRAMUsedBytes)
	}
	if sample.TemperatureMillidegrees != 64000 {
		t.Errorf("TemperatureMillidegrees = %d, want 64000", sample.TemperatureMillidegrees)
	}
	if sample.PowerDrawWatts != 284 {
		t.Errorf("PowerDrawWatts = %f, want 284", sample.PowerDrawWatts)
	}
	if sample.ClockMHz != 2482 {
		t.Errorf("ClockMHz = %d, want 2482", sample.ClockMHz)
	}
	if sample.MemClockMHz != 1249 {
		t.Errorf("MemClockMHz = %d, want 1249", sample.MemClockMHz)
	}
}

func TestSampleGPUsOrderedByPCISlot(t *testing.T) {
	sysRoot := t.TempDir()
	// card1 has the lower PCI slot; output must sort by slot, not
	// card number.
	writeCard(t, sysRoot, "card0", map[string]string{
		"uevent": "PCI_ID=1002:744A\nPCI_SLOT_NAME=0000:c3:00.0\n",
	})
	writeCard(t, sysRoot, "card1", map[string]string{
		"uevent": "PCI_ID=1002:744A\nPCI_SLOT_NAME=0000:03:00.0\n",
	})

	samples := sampleGPUs(sysRoot)
	if len(samples) != 2 {
		t.Fatalf("sampleGPUs returned %d samples, want 2", len(samples))
	}
	if samples[0].PCISlot != "0000:03:00.0" || samples[1].PCISlot != "0000:c3:00.0" {
		t.Errorf("samples not ordered by PCI slot: %q, %q", samples[0].PCISlot, samples[1].PCISlot)
	}
}

func TestSampleGPUsSkipsConnectorsAndVirtualDevices(t *testing.T) {
	sysRoot := t.TempDir()
	writeCard(t, sysRoot, "card0", map[string]string{
		"uevent": "PCI_ID=1002:744A\nPCI_SLOT_NAME=0000:c3:00.0\n",
	})
	// Connector directory under the same card.
	connectorPath := filepath.Join(sysRoot, "class/drm/card0-DP-1")
	if err := os.MkdirAll(connectorPath, 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	// Virtual DRM device with no PCI slot in its uevent.
	writeCard(t, sysRoot, "card1", map[string]string{
		"uevent": "DRIVER=vkms\n",
	})

	samples := sampleGPUs(sysRoot)
	if len(samples) != 1 {
		t.Fatalf("sampleGPUs returned %d samples, want 1", len(samples))
	}
}

func TestSampleGPUsMissingSensorsYieldZero(t *testing.T) {
	sysRoot := t.TempDir()
	writeCard(t, sysRoot, "card0", map[string]string{
		"uevent": "PCI_ID=10de:2684\nPCI_SLOT_NAME=0000:01:00.0\n",
	})

	samples := sampleGPUs(sysRoot)
	if len(samples) != 1 {
		t.Fatalf("sampleGPUs returned %d samples, want 1", len(samples))
	}
	sample := samples[0]
	if sample.Vendor != "nvidia" {
		t.Errorf("Vendor = %q, want nvidia", sample.Vendor)
	}
	if sample.UtilizationPercent != 0 || sample.VRAMTotalBytes != 0 || sample.PowerDrawWatts != 0 {
		t.Errorf("missing sensors should produce zero fields, got %+v", sample)
	}
}

func TestSampleGPUsMissingSysRoot(t *testing.T) {
	if samples := sampleGPUs("/nonexistent/sys"); samples != nil {
		t.Errorf("sampleGPUs for missing root = %v, want nil", samples)
	}
}

func TestPCIVendorName(t *testing.T) {
	tests := []struct {
		id       string
		expected string
	}{
		{"1002", "amd"},
		{"10de", "nvidia"},
		{"8086", "intel"},
		{"1af4", ""},
	}
	for _, test := range tests {
		if got := pciVendorName(test.id); got != test.expected {
			t.Errorf("pciVendorName(%q) = %q, want %q", test.id, got, test.expected)
		}
	}
}
