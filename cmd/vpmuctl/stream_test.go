// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"testing"

	"code.hybscloud.com/vpmutrace"
)

func TestBackendKind(t *testing.T) {
	cases := []struct {
		name string
		want vpmu.BackendKind
	}{
		{"inline", vpmu.BackendInline},
		{"thread", vpmu.BackendThread},
		{"process", vpmu.BackendProcess},
	}
	for _, c := range cases {
		got, err := backendKind(c.name)
		if err != nil {
			t.Fatalf("backendKind(%q): %v", c.name, err)
		}
		if got != c.want {
			t.Fatalf("backendKind(%q): got %v, want %v", c.name, got, c.want)
		}
	}
}

func TestBackendKindUnknown(t *testing.T) {
	if _, err := backendKind("gpu"); err == nil {
		t.Fatalf("backendKind(gpu): want error, got nil")
	}
}

func TestParseMode(t *testing.T) {
	cases := map[string]vpmu.ProcessorMode{
		"USR": vpmu.ModeUSR,
		"SVC": vpmu.ModeSVC,
		"FIQ": vpmu.ModeFIQ,
		"IRQ": vpmu.ModeIRQ,
		"ABT": vpmu.ModeABT,
		"":    vpmu.ModeUSR,
		"???": vpmu.ModeUSR,
	}
	for name, want := range cases {
		if got := parseMode(name); got != want {
			t.Fatalf("parseMode(%q): got %v, want %v", name, got, want)
		}
	}
}

func TestBuildInstructionStreamFeedsAndSyncs(t *testing.T) {
	o := &opts{backend: "thread", sim: "CortexA9", buffer: 64, cores: 1}
	s, err := buildInstructionStream(o)
	if err != nil {
		t.Fatalf("buildInstructionStream: %v", err)
	}
	defer s.Destroy()

	ref := vpmu.InstructionPacket{
		Type:       vpmu.PacketData,
		Core:       0,
		Mode:       vpmu.ModeUSR,
		TBCounters: &vpmu.TBCounters{Total: 10, Load: 3, Store: 2, HasBranch: 1, Ticks: 12},
	}
	if err := s.SendRef(0, ref); err != nil {
		t.Fatalf("SendRef: %v", err)
	}
	if err := s.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if got := s.Data(0).User().Total; got != 10 {
		t.Fatalf("Data(0).User().Total: got %d, want 10", got)
	}
}
