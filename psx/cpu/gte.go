package cpu

import "log/slog"

// gte is a stub for the Geometry Transformation Engine (COP2). Real
// hardware performs fixed-point matrix/vector math for 3D transforms and
// perspective projection; this core exposes only the data/control register
// surface so MFC2/MTC2/CTC2/LWC2/SWC2 and command dispatch round-trip
// without crashing software that probes the coprocessor, per the stub
// policy for unsupported SPU/GTE opcodes: log and return a neutral value.
type gte struct {
	data [32]uint32
	ctrl [32]uint32

	log *slog.Logger
}

func newGte(log *slog.Logger) *gte {
	if log == nil {
		log = slog.Default()
	}
	return &gte{log: log}
}

func (g *gte) readData(reg uint32) uint32 { return g.data[reg&31] }
func (g *gte) writeData(reg uint32, val uint32) { g.data[reg&31] = val }

func (g *gte) readCtrl(reg uint32) uint32 { return g.ctrl[reg&31] }
func (g *gte) writeCtrl(reg uint32, val uint32) { g.ctrl[reg&31] = val }

// runCommand executes a COP2 GTE opcode. Every opcode is unimplemented
// geometry math; the core logs the command word and leaves the data
// registers untouched rather than attempting a computation it can't get
// right.
func (g *gte) runCommand(cmd uint32) {
	g.log.Debug("unsupported gte command", "cmd", cmd&0x1ffffff)
}
